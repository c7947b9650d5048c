package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"isbndate/internal/isbn"
	"isbndate/internal/logging"
	"isbndate/internal/providers"
	"isbndate/internal/services"
)

const defaultFlushEvery = 3

// Resolver resolves batches of identifiers against a cache and a provider
// chain. It is not safe for concurrent batches.
type Resolver struct {
	cache      Cache
	lookup     Lookuper
	pacer      Pacer
	flushEvery int
	progress   ProgressFunc
	logger     *slog.Logger
}

// Option configures optional Resolver behavior.
type Option func(*Resolver)

// WithPacer sets the pause applied after every remote lookup.
func WithPacer(p Pacer) Option {
	return func(r *Resolver) {
		if p != nil {
			r.pacer = p
		}
	}
}

// WithFlushEvery sets how many new cache entries trigger an intermediate flush.
func WithFlushEvery(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.flushEvery = n
		}
	}
}

// WithProgress registers a per-identifier callback.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Resolver) {
		r.progress = fn
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.NewComponentLogger(logger, "resolver")
	}
}

// New constructs a Resolver over cache and lookup.
func New(cache Cache, lookup Lookuper, opts ...Option) (*Resolver, error) {
	if cache == nil {
		return nil, services.Wrap(services.ErrConfiguration, "resolver", "init", "cache is required", nil)
	}
	if lookup == nil {
		return nil, services.Wrap(services.ErrConfiguration, "resolver", "init", "provider chain is required", nil)
	}
	r := &Resolver{
		cache:      cache,
		lookup:     lookup,
		pacer:      noPacer{},
		flushEvery: defaultFlushEvery,
		logger:     logging.NewComponentLogger(nil, "resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// batch carries the cumulative state of one run across chunks.
type batch struct {
	ctx     context.Context
	logger  *slog.Logger
	report  Report
	sampler *logging.ProgressSampler

	// sinceFlush counts entries added since the last flush attempt.
	sinceFlush int
}

func (r *Resolver) newBatch(ctx context.Context, total int) *batch {
	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = services.WithRunID(ctx, runID)
	}
	b := &batch{
		ctx:     ctx,
		logger:  logging.WithContext(ctx, r.logger),
		sampler: logging.NewProgressSampler(10),
	}
	b.report = Report{
		RunID:   runID,
		Results: make([]Result, 0, total),
		Stats:   Stats{Total: total, Pending: total},
	}
	return b
}

// ResolveBatch resolves ids in order. On cancellation the partial report is
// flushed and returned with ctx.Err(). A failing final flush is returned with
// the complete report.
func (r *Resolver) ResolveBatch(ctx context.Context, ids []string) (Report, error) {
	b := r.newBatch(ctx, len(ids))
	b.logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("total", len(ids)),
	)
	runErr := r.process(b, ids)
	return r.finish(b, runErr)
}

func (r *Resolver) finish(b *batch, runErr error) (Report, error) {
	flushErr := r.flush(b, "final")
	stats := b.report.Stats
	if runErr != nil {
		logging.WarnWithContext(b.logger, "batch interrupted", "batch_interrupted",
			logging.Int("processed", stats.Processed),
			logging.Int("pending", stats.Pending),
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, "rerun the same input; resolved dates are cached"),
			logging.String(logging.FieldImpact, "remaining identifiers were not resolved"),
		)
		return b.report, runErr
	}
	b.logger.Info("batch completed",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("total", stats.Total),
		logging.Int("from_cache", stats.FromCache),
		logging.Int("from_api", stats.FromAPI),
		logging.Int("not_found", stats.NotFound),
		logging.Int("new_entries", b.report.NewEntries),
	)
	if flushErr != nil {
		return b.report, flushErr
	}
	return b.report, nil
}

// process resolves ids into b, stopping at the first cancellation.
func (r *Resolver) process(b *batch, ids []string) error {
	for _, raw := range ids {
		if err := b.ctx.Err(); err != nil {
			return err
		}
		res, remote, err := r.resolveOne(b, raw)
		if err != nil {
			return err
		}
		r.record(b, res)
		if remote {
			if err := r.pacer.Pause(b.ctx); err != nil {
				return err
			}
		}
		if res.Status == StatusFound {
			b.sinceFlush++
		}
		if b.sinceFlush >= r.flushEvery {
			_ = r.flush(b, "periodic")
		}
	}
	return nil
}

// resolveOne returns the result for raw and whether a remote lookup was made.
// The only error is the context's, in which case raw stays pending.
func (r *Resolver) resolveOne(b *batch, raw string) (Result, bool, error) {
	id, err := isbn.Normalize(raw)
	if err != nil {
		b.logger.Debug("invalid identifier", logging.String("input", raw), logging.Error(err))
		b.logf("%s: invalid identifier", raw)
		return Result{Input: raw, Date: providers.NotFoundSentinel, Source: SourceNone, Status: StatusInvalid}, false, nil
	}

	if date, ok := r.cache.Get(id); ok {
		b.logf("%s: cache hit (%s)", id, date)
		return Result{Input: raw, ISBN: id, Date: date, Source: SourceCache, Status: StatusCached}, false, nil
	}

	ctx := services.WithISBN(b.ctx, id)
	out := r.safeResolve(ctx, id)
	b.report.Log = append(b.report.Log, out.Trace...)

	switch out.Status {
	case providers.StatusFound:
		r.cache.Put(id, out.Date)
		b.report.NewEntries++
		b.logf("%s: found via %s (%s)", id, out.Provider, out.Date)
		return Result{Input: raw, ISBN: id, Date: out.Date, Source: out.Provider, Status: StatusFound}, true, nil
	case providers.StatusNotFound:
		b.logf("%s: not found", id)
		return Result{Input: raw, ISBN: id, Date: providers.NotFoundSentinel, Source: SourceNone, Status: StatusNotFound}, true, nil
	default:
		if ctxErr := b.ctx.Err(); ctxErr != nil {
			return Result{}, true, ctxErr
		}
		logging.ErrorWithContext(logging.WithContext(ctx, b.logger), "identifier resolution failed", "resolution_failed",
			logging.Error(out.Err),
			logging.String(logging.FieldErrorHint, "rerun to retry this identifier"),
		)
		b.logf("%s: unexpected error: %v", id, out.Err)
		return Result{Input: raw, ISBN: id, Date: providers.UnprocessedSentinel, Source: SourceNone, Status: StatusError}, true, nil
	}
}

// safeResolve converts a panic inside the chain into a StatusError outcome.
func (r *Resolver) safeResolve(ctx context.Context, id string) (out providers.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = providers.Failed("", services.Wrap(services.ErrUnexpectedResolution, "resolver", "lookup", fmt.Sprintf("panic: %v", rec), nil))
		}
	}()
	out = r.lookup.Resolve(ctx, id)
	if out.Status == providers.StatusError && out.Err == nil {
		out.Err = services.Wrap(services.ErrUnexpectedResolution, "resolver", "lookup", "provider chain failed without detail", nil)
	}
	return out
}

func (r *Resolver) record(b *batch, res Result) {
	st := &b.report.Stats
	switch res.Status {
	case StatusCached:
		st.FromCache++
	case StatusFound:
		st.FromAPI++
	default:
		st.NotFound++
	}
	st.Pending--
	st.Processed++
	b.report.Results = append(b.report.Results, res)

	if b.sampler.ShouldLog(st.Processed, st.Total) {
		b.logger.Info("batch progress",
			logging.String(logging.FieldEventType, "batch_progress"),
			logging.Int("processed", st.Processed),
			logging.Int("total", st.Total),
		)
	}
	if r.progress != nil {
		r.progress(res, *st)
	}
}

// flush persists the cache. A failed attempt still restarts the periodic
// count, so the next try waits for flushEvery more entries.
func (r *Resolver) flush(b *batch, reason string) error {
	b.sinceFlush = 0
	if r.cache.Unflushed() == 0 {
		return nil
	}
	if err := r.cache.Flush(); err != nil {
		logging.WarnWithContext(b.logger, "cache flush failed", "cache_flush_failed",
			logging.String("reason", reason),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the cache directory is writable"),
			logging.String(logging.FieldImpact, "new dates remain in memory until the next flush"),
		)
		return err
	}
	b.logger.Debug("cache flushed", logging.String("reason", reason))
	return nil
}

func (b *batch) logf(format string, args ...any) {
	b.report.Log = append(b.report.Log, fmt.Sprintf(format, args...))
}
