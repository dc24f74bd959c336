package repair

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mikeydub/go-gallery-layout/service/layout"
	"github.com/mikeydub/go-gallery-layout/service/logger"
	"github.com/mikeydub/go-gallery-layout/service/persist"
	sentryutil "github.com/mikeydub/go-gallery-layout/service/sentry"
	"github.com/mikeydub/go-gallery-layout/service/tracing"
	"github.com/mikeydub/go-gallery-layout/util"
	"github.com/mikeydub/go-gallery-layout/validate"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

const (
	defaultWorkers   = 8
	defaultBatchSize = 100
)

// Change describes how the layout of a single collection was repaired
type Change struct {
	CollectionID  persist.DBID        `json:"collection_id" yaml:"collection_id"`
	RemovedTokens []persist.DBID      `json:"removed_tokens" yaml:"removed_tokens"`
	Reset         bool                `json:"reset" yaml:"reset"`
	Before        persist.TokenLayout `json:"before" yaml:"before"`
	After         persist.TokenLayout `json:"after" yaml:"after"`
	Diff          string              `json:"diff" yaml:"diff"`
}

// Report summarizes a repair run
type Report struct {
	Checked int               `json:"checked" yaml:"checked"`
	Updated int               `json:"updated" yaml:"updated"`
	Reset   int               `json:"reset" yaml:"reset"`
	Stale   int               `json:"stale" yaml:"stale"`
	Failed  int               `json:"failed" yaml:"failed"`
	DryRun  bool              `json:"dry_run" yaml:"dry_run"`
	Changes []Change          `json:"changes" yaml:"changes"`
	Errors  map[string]string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Repairer rewrites collection layouts so that they decode cleanly against the tokens that still exist
type Repairer struct {
	repo      persist.CollectionLayoutRepository
	codec     *layout.Codec[persist.DBID]
	validate  *validator.Validate
	workers   int
	batchSize int
	dryRun    bool
}

type Option func(*Repairer)

func WithWorkers(workers int) Option {
	return func(r *Repairer) {
		if workers > 0 {
			r.workers = workers
		}
	}
}

func WithBatchSize(size int) Option {
	return func(r *Repairer) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

// WithDryRun reports changes without writing them
func WithDryRun(dryRun bool) Option {
	return func(r *Repairer) {
		r.dryRun = dryRun
	}
}

func WithCodec(codec *layout.Codec[persist.DBID]) Option {
	return func(r *Repairer) {
		r.codec = codec
	}
}

func NewRepairer(repo persist.CollectionLayoutRepository, opts ...Option) *Repairer {
	r := &Repairer{
		repo:      repo,
		codec:     layout.NewDBIDCodec(),
		validate:  validate.New(),
		workers:   defaultWorkers,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run repairs the given collections, or every collection when ids is empty. Failures of individual
// collections are counted in the report and do not stop the run.
func (r *Repairer) Run(ctx context.Context, ids []persist.DBID) (Report, error) {
	transaction, ctx := tracing.StartTransaction(ctx, "layout.repair")
	defer tracing.FinishSpan(transaction)

	report := Report{DryRun: r.dryRun, Changes: []Change{}, Errors: map[string]string{}}
	mu := &sync.Mutex{}

	wp := workerpool.New(r.workers)
	submit := func(batch []persist.DBID) {
		for _, id := range batch {
			id := id
			wp.Submit(func() {
				if ctx.Err() != nil {
					return
				}
				change, changed, err := r.repairCollection(ctx, id)
				mu.Lock()
				defer mu.Unlock()
				report.record(id, change, changed, err)
			})
		}
	}

	var listErr error
	if len(ids) > 0 {
		for _, batch := range util.Chunk(util.Dedupe(ids, false), r.batchSize) {
			submit(batch)
		}
	} else {
		listErr = r.listAll(ctx, submit)
	}

	wp.StopWait()

	slices.SortFunc(report.Changes, func(a, b Change) int {
		return strings.Compare(a.CollectionID.String(), b.CollectionID.String())
	})

	if listErr != nil {
		return report, listErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	logger.For(ctx).WithFields(logrus.Fields{
		"checked": report.Checked,
		"updated": report.Updated,
		"reset":   report.Reset,
		"stale":   report.Stale,
		"failed":  report.Failed,
		"dryRun":  report.DryRun,
	}).Info("finished repairing collection layouts")

	return report, nil
}

func (r *Repairer) listAll(ctx context.Context, submit func([]persist.DBID)) error {
	var after persist.DBID
	for {
		batch, err := r.repo.ListIDs(ctx, after, r.batchSize)
		if err != nil {
			return fmt.Errorf("failed to list collections after %q: %w", after, err)
		}
		if len(batch) == 0 {
			return nil
		}
		submit(batch)
		if len(batch) < r.batchSize {
			return nil
		}
		after = batch[len(batch)-1]
	}
}

func (r *Report) record(id persist.DBID, change Change, changed bool, err error) {
	r.Checked++

	var stale persist.ErrStaleCollection
	switch {
	case errors.As(err, &stale):
		r.Stale++
		r.Errors[id.String()] = err.Error()
	case err != nil:
		r.Failed++
		r.Errors[id.String()] = err.Error()
	case changed:
		r.Updated++
		if change.Reset {
			r.Reset++
		}
		r.Changes = append(r.Changes, change)
	}
}

func (r *Repairer) repairCollection(ctx context.Context, id persist.DBID) (change Change, changed bool, err error) {
	span, ctx := tracing.StartSpan(ctx, "layout.repair.collection", id.String())
	defer tracing.FinishSpan(span)

	ctx = logger.NewContextWithFields(ctx, logrus.Fields{"collectionID": id})
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		ctx = sentryutil.NewSentryHubContext(ctx, hub)
	}

	defer func() {
		var stale persist.ErrStaleCollection
		if errors.As(err, &stale) {
			logger.For(ctx).WithError(err).Warn("collection changed during repair")
			return
		}
		if err != nil {
			logger.For(ctx).WithError(err).Error("failed to repair collection layout")
			sentryutil.ReportError(ctx, err)
		}
	}()

	record, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return Change{}, false, err
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.ConfigureScope(func(scope *sentry.Scope) {
			sentryutil.SetCollectionContext(scope, id.String(), len(record.Tokens), len(record.Layout.Sections))
		})
	}

	live, err := r.repo.FilterLiveTokens(ctx, record.OwnerUserID, record.Tokens)
	if err != nil {
		return Change{}, false, err
	}

	change = Change{
		CollectionID:  id,
		RemovedTokens: util.Difference(record.Tokens, live),
		Before:        record.Layout,
	}

	// Unset columns keep the stored default rather than the codec's
	collection, err := r.codec.Decode(record.Tokens, persist.ApplyDefaultColumns(persist.UpgradeLayout(record.Layout)))
	if err != nil {
		var invalid layout.ErrInvalidLayout
		if !errors.As(err, &invalid) {
			return Change{}, false, err
		}

		logger.For(ctx).WithError(err).Warn("layout does not fit its tokens, resetting to a single section")
		change.Reset = true
		collection, err = r.codec.Decode(live, persist.DefaultLayout())
		if err != nil {
			return Change{}, false, err
		}
	} else {
		r.codec.RemoveTokens(&collection, change.RemovedTokens...)
	}

	tokens := r.codec.TokenIDs(collection)
	repaired, err := persist.ValidateLayout(r.codec.Encode(collection), tokens)
	if err != nil {
		return Change{}, false, fmt.Errorf("repaired layout is invalid: %w", err)
	}
	if err := r.validate.Struct(repaired); err != nil {
		return Change{}, false, fmt.Errorf("repaired layout is invalid: %w", err)
	}
	change.After = repaired

	tracing.AddEventDataToSpan(span, map[string]interface{}{
		"removedTokens": len(change.RemovedTokens),
		"sections":      len(repaired.Sections),
		"reset":         change.Reset,
	})

	change.Diff = cmp.Diff(record.Layout, repaired, cmpopts.EquateEmpty())
	if change.Diff == "" && cmp.Equal(record.Tokens, tokens, cmpopts.EquateEmpty()) {
		return change, false, nil
	}

	logger.For(ctx).WithFields(logrus.Fields{
		"removedTokens": len(change.RemovedTokens),
		"sections":      len(repaired.Sections),
		"reset":         change.Reset,
	}).Info("repairing collection layout")

	if r.dryRun {
		return change, true, nil
	}

	err = r.repo.UpdateLayout(ctx, id, persist.CollectionLayoutUpdateInput{
		Tokens:      tokens,
		Layout:      repaired,
		LastUpdated: record.LastUpdated,
	})
	if err != nil {
		return Change{}, false, err
	}

	return change, true, nil
}
