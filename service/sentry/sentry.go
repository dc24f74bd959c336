package sentryutil

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mikeydub/go-gallery-layout/service/logger"
)

const (
	collectionContextName = "collection context"
	errorContextName      = "error context"
)

type collectionContext struct {
	CollectionID string
	Tokens       int
	Sections     int
}

type errorContext struct {
	Mapped   bool
	MappedTo string
}

func ReportRemappedError(ctx context.Context, originalErr error, remappedErr interface{}) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		logger.For(ctx).Warnln("could not report error to Sentry because hub is nil")
		return
	}

	// Use a new scope so our error context and tag don't persist beyond this error
	hub.WithScope(func(scope *sentry.Scope) {
		if remappedErr != nil {
			SetErrorContext(scope, true, fmt.Sprintf("%T", remappedErr))
			scope.SetTag("remappedError", "true")
		} else {
			SetErrorContext(scope, false, "")
		}

		hub.CaptureException(originalErr)
	})
}

func ReportError(ctx context.Context, err error) {
	ReportRemappedError(ctx, err, nil)
}

// RecoverAndRaise reports a panic to Sentry before re-panicking
func RecoverAndRaise(ctx context.Context) {
	if err := recover(); err != nil {
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			hub.Recover(err)
			hub.Flush(2 * time.Second)
		}
		panic(err)
	}
}

func UpdateErrorFingerprints(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if event == nil || hint == nil || hint.OriginalException == nil {
		return event
	}

	// errors.errorString isn't exported, so group errors created with errors.New() by their message
	exceptionType := fmt.Sprintf("%T", hint.OriginalException)
	if exceptionType == "*errors.errorString" {
		event.Fingerprint = []string{"{{ default }}", hint.OriginalException.Error()}
	}

	return event
}

func SetCollectionContext(scope *sentry.Scope, collectionID string, tokens, sections int) {
	scope.SetContext(collectionContextName, sentry.Context{
		"CollectionID": collectionID,
		"Tokens":       tokens,
		"Sections":     sections,
	})
	scope.SetTag("collectionID", collectionID)
}

func SetErrorContext(scope *sentry.Scope, mapped bool, mappedTo string) {
	scope.SetContext(errorContextName, sentry.Context{
		"Mapped":   mapped,
		"MappedTo": mappedTo,
	})
}

func NewSentryHubContext(ctx context.Context, hub *sentry.Hub) context.Context {
	var cpy *sentry.Hub

	if hub != nil {
		cpy = hub.Clone()
	}

	return sentry.SetHubOnContext(ctx, cpy)
}
