package tracing

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/mikeydub/go-gallery-layout/service/logger"
	"github.com/sirupsen/logrus"
)

// StartTransaction starts a root span for a unit of work such as a repair run
func StartTransaction(ctx context.Context, name string, options ...sentry.SpanOption) (*sentry.Span, context.Context) {
	transaction := sentry.StartTransaction(ctx, name, options...)
	ctx = logger.NewContextWithFields(transaction.Context(), logrus.Fields{
		"traceId": transaction.TraceID,
	})
	return transaction, ctx
}

func StartSpan(ctx context.Context, operation string, description string, options ...sentry.SpanOption) (*sentry.Span, context.Context) {
	span := sentry.StartSpan(ctx, operation, options...)
	ctx = logger.NewContextWithFields(span.Context(), logrus.Fields{
		"spanId":       span.SpanID,
		"parentSpanId": span.ParentSpanID,
	})

	span.Description = description

	return span, ctx
}

func FinishSpan(span *sentry.Span) {
	if span == nil {
		return
	}

	span.Finish()
}

func AddEventDataToSpan(span *sentry.Span, eventData map[string]interface{}) {
	if span == nil {
		return
	}

	if span.Data == nil {
		span.Data = make(map[string]interface{})
	}

	for k, v := range eventData {
		span.Data[k] = v
	}
}
