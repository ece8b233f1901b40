package main

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobtrack/internal/cycle"
	"github.com/amishk599/jobtrack/internal/identity"
	"github.com/amishk599/jobtrack/internal/metrics"
	"github.com/amishk599/jobtrack/internal/model"
	"github.com/amishk599/jobtrack/internal/store"
)

// cycleRunner runs one cycle and hands its results to metrics and the
// notifier.
type cycleRunner struct {
	orch     *cycle.Orchestrator
	store    *store.SQLStore
	sources  []model.Scraper
	notifier model.Notifier
	logger   *slog.Logger
}

func newCycleRunner(st *store.SQLStore, sources []model.Scraper, classifier model.Classifier, n model.Notifier, opts cycle.Options, logger *slog.Logger) *cycleRunner {
	return &cycleRunner{
		orch:     cycle.New(st, identity.NewResolver(st, logger), classifier, opts, logger),
		store:    st,
		sources:  sources,
		notifier: n,
		logger:   logger,
	}
}

// run executes one cycle. Notification and metric update failures are
// logged; only an aborted cycle is an error.
func (r *cycleRunner) run(ctx context.Context) (model.CycleReport, error) {
	report, err := r.orch.Run(ctx, r.sources)
	metrics.ObserveCycle(report)
	if err != nil {
		return report, err
	}

	if len(report.NewJobs) > 0 {
		if nerr := r.notifier.Notify(ctx, report.NewJobs); nerr != nil {
			r.logger.Error("notifying new jobs", "cycle_id", report.ID, "error", nerr)
		}
	}

	if stats, serr := r.store.Stats(ctx); serr != nil {
		r.logger.Warn("refreshing active job gauge", "error", serr)
	} else {
		metrics.UpdateActiveJobs(stats.BySource)
	}
	return report, nil
}
