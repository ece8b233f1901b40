// Package cycle runs one ingestion cycle across every configured source:
// reset the new-today flags, scrape and ingest each source, then sweep.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobtrack/internal/model"
	"github.com/amishk599/jobtrack/internal/posting"
)

// Store is the part of the lifecycle store a cycle writes to.
type Store interface {
	ResetNewToday(ctx context.Context) (int64, error)
	Upsert(ctx context.Context, p model.Posting, res model.Resolution, c model.Classifier) (model.Outcome, error)
	Sweep(ctx context.Context, cycleStart time.Time, excludeSources []string) (map[string]int64, error)
	NewToday(ctx context.Context) ([]model.Job, error)
	RecordCycle(ctx context.Context, report model.CycleReport) error
	Ping(ctx context.Context) error
}

// Resolver matches a posting to a stored job.
type Resolver interface {
	Resolve(ctx context.Context, p model.Posting) (model.Resolution, error)
}

// Options tune a cycle. The zero value scrapes one source at a time and sweeps
// globally.
type Options struct {
	// Concurrency bounds how many sources are scraped at once. Store writes
	// stay sequential regardless.
	Concurrency int
	// SkipFailedSources keeps the jobs of a failed source out of the sweep.
	SkipFailedSources bool
	// Now overrides the clock used for the cycle start.
	Now func() time.Time
}

// Orchestrator drives cycles against one store. Callers must not run two
// cycles against the same store at once.
type Orchestrator struct {
	store      Store
	resolver   Resolver
	classifier model.Classifier
	opts       Options
	logger     *slog.Logger
}

// New creates an Orchestrator. classifier may be nil, in which case new jobs
// are stored without a category.
func New(store Store, resolver Resolver, classifier model.Classifier, opts Options, logger *slog.Logger) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		store:      store,
		resolver:   resolver,
		classifier: classifier,
		opts:       opts,
		logger:     logger,
	}
}

type scrapeResult struct {
	postings []model.RawPosting
	err      error
	took     time.Duration
}

// Run executes one cycle over sources. Per-posting and per-source failures
// are reported in the CycleReport. An error is returned only when the cycle
// was aborted (store unreachable or ctx cancelled), in which case no sweep
// ran and the report holds whatever was ingested before the abort.
func (o *Orchestrator) Run(ctx context.Context, sources []model.Scraper) (model.CycleReport, error) {
	report := model.CycleReport{
		ID:        uuid.NewString(),
		StartedAt: o.opts.Now(),
		Sources:   make([]model.SourceStatus, len(sources)),
	}
	for i, src := range sources {
		report.Sources[i] = model.SourceStatus{Name: src.Name(), State: model.SourceRunning}
	}
	logger := o.logger.With("cycle_id", report.ID)

	reset, err := o.store.ResetNewToday(ctx)
	if err != nil {
		return o.finish(ctx, report, fmt.Errorf("%w: resetting new-today flags: %v", model.ErrStoreUnavailable, err))
	}
	logger.Info("starting cycle", "sources", len(sources), "cleared_new_flags", reset)

	scrapeCtx, cancelScrapes := context.WithCancel(ctx)
	defer cancelScrapes()

	results := make([]chan scrapeResult, len(sources))
	for i := range results {
		results[i] = make(chan scrapeResult, 1)
	}
	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for i, src := range sources {
			ch := results[i]
			if err := scrapeCtx.Err(); err != nil {
				ch <- scrapeResult{err: err}
				continue
			}
			g.Go(func() error {
				start := time.Now()
				postings, err := src.Scrape(scrapeCtx)
				ch <- scrapeResult{postings: postings, err: err, took: time.Since(start)}
				return nil
			})
		}
	}()

	// Postings are written in source order as each scrape completes.
	var abortErr error
	for i := range sources {
		var res scrapeResult
		select {
		case <-ctx.Done():
			abortErr = ctx.Err()
		case res = <-results[i]:
		}
		if abortErr != nil {
			break
		}

		status := &report.Sources[i]
		if err := o.ingest(ctx, logger, status, res); err != nil {
			abortErr = err
			break
		}
	}
	cancelScrapes()
	<-dispatched
	_ = g.Wait()

	for _, s := range report.Sources {
		report.New += s.New
		report.Touched += s.Touched
		report.Unchanged += s.Unchanged
		report.Invalid += s.Invalid
		report.Failed += s.Failed
	}

	if abortErr != nil {
		logger.Error("cycle aborted before sweep", "error", abortErr)
		return o.finish(ctx, report, abortErr)
	}

	var exclude []string
	if o.opts.SkipFailedSources {
		exclude = report.FailedSources()
	}
	counts, err := o.store.Sweep(ctx, report.StartedAt, exclude)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.Error("cycle aborted during sweep", "error", ctxErr)
			return o.finish(ctx, report, ctxErr)
		}
		return o.finish(ctx, report, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err))
	}
	report.Swept = true
	for i := range report.Sources {
		report.Sources[i].Deactivated = counts[report.Sources[i].Name]
	}
	for _, n := range counts {
		report.Deactivated += n
	}

	if report.New > 0 {
		jobs, err := o.store.NewToday(ctx)
		if err != nil {
			logger.Warn("loading new jobs", "error", err)
		}
		report.NewJobs = jobs
	}

	logger.Info("cycle complete",
		"new", report.New,
		"touched", report.Touched,
		"unchanged", report.Unchanged,
		"failed_postings", report.FailedPostings(),
		"deactivated", report.Deactivated,
		"failed_sources", len(report.FailedSources()),
	)
	return o.finish(ctx, report, nil)
}

// ingest writes one source's postings. It returns an error only when the
// cycle must abort.
func (o *Orchestrator) ingest(ctx context.Context, logger *slog.Logger, status *model.SourceStatus, res scrapeResult) error {
	logger = logger.With("source", status.Name)
	start := time.Now()
	defer func() { status.Duration = res.took + time.Since(start) }()

	if res.err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		status.State = model.SourceFailed
		status.Err = &model.SourceError{Source: status.Name, Err: res.err}
		logger.Error("source failed", "error", res.err)
		return nil
	}

	status.Found = len(res.postings)
	for _, raw := range res.postings {
		if err := ctx.Err(); err != nil {
			return err
		}
		effect, err := o.observe(ctx, raw, status.Name)
		if err == nil {
			switch effect {
			case model.EffectCreated:
				status.New++
			case model.EffectTouched:
				status.Touched++
			case model.EffectUnchanged:
				status.Unchanged++
			}
			continue
		}

		var verr *model.ValidationError
		if errors.As(err, &verr) {
			status.Invalid++
			logger.Warn("skipping invalid posting", "title", raw.Title, "url", raw.URL, "error", err)
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if fatal := o.storeDown(ctx, err); fatal != nil {
			return fatal
		}
		status.Failed++
		logger.Error("skipping posting", "title", raw.Title, "url", raw.URL, "error", err)
	}

	status.State = model.SourceSuccess
	logger.Info("ingested source",
		"found", status.Found,
		"new", status.New,
		"touched", status.Touched,
		"unchanged", status.Unchanged,
		"invalid", status.Invalid,
		"failed", status.Failed,
	)
	return nil
}

func (o *Orchestrator) observe(ctx context.Context, raw model.RawPosting, source string) (model.Effect, error) {
	// Jobs belong to the configured source, whatever label the record carries.
	raw.Source = source
	p, err := posting.Normalize(raw, source)
	if err != nil {
		return "", err
	}
	res, err := o.resolver.Resolve(ctx, p)
	if err != nil {
		return "", err
	}
	out, err := o.store.Upsert(ctx, p, res, o.classifier)
	if err != nil {
		return "", err
	}
	return out.Effect, nil
}

// storeDown tells a per-posting store failure apart from a lost store.
func (o *Orchestrator) storeDown(ctx context.Context, err error) error {
	if errors.Is(err, model.ErrStoreUnavailable) {
		return err
	}
	if pingErr := o.store.Ping(ctx); pingErr != nil {
		return fmt.Errorf("%w: %v (after: %v)", model.ErrStoreUnavailable, pingErr, err)
	}
	return nil
}

// finish stamps the report and persists its history unless the store is
// gone. A history write failure never changes the cycle's outcome.
func (o *Orchestrator) finish(ctx context.Context, report model.CycleReport, err error) (model.CycleReport, error) {
	report.FinishedAt = o.opts.Now()
	if !errors.Is(err, model.ErrStoreUnavailable) {
		o.record(ctx, report)
	}
	return report, err
}

func (o *Orchestrator) record(ctx context.Context, report model.CycleReport) {
	if len(report.Sources) == 0 {
		return
	}
	// A cancelled cycle still leaves a history row.
	recordCtx := context.WithoutCancel(ctx)
	if err := o.store.RecordCycle(recordCtx, report); err != nil {
		o.logger.Warn("recording cycle history", "cycle_id", report.ID, "error", err)
	}
}
