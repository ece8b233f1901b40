package techstack

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobtrack/internal/model"
)

// SkillStore is the slice of the store the enrichment pass needs.
type SkillStore interface {
	ListUnenriched(ctx context.Context, limit int) ([]model.Job, error)
	SetSkills(ctx context.Context, id int64, skills []string) error
}

// Enricher fills in skills for jobs that have a description. It runs outside
// the ingestion cycle.
type Enricher struct {
	store     SkillStore
	extractor *Extractor
	logger    *slog.Logger
}

// NewEnricher creates an enrichment pass over store.
func NewEnricher(store SkillStore, extractor *Extractor, logger *slog.Logger) *Enricher {
	return &Enricher{store: store, extractor: extractor, logger: logger}
}

// EnrichResult counts what a pass did.
type EnrichResult struct {
	Scanned  int
	Enriched int
	Failed   int
}

// Run processes up to limit pending jobs (all when limit <= 0). A failed
// write is logged and skipped.
func (e *Enricher) Run(ctx context.Context, limit int) (EnrichResult, error) {
	jobs, err := e.store.ListUnenriched(ctx, limit)
	if err != nil {
		return EnrichResult{}, fmt.Errorf("enrich: %w", err)
	}

	var res EnrichResult
	for _, j := range jobs {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Scanned++

		skills := e.extractor.Extract(j.Title + " " + j.Description)
		if len(skills) == 0 {
			continue
		}
		if err := e.store.SetSkills(ctx, j.ID, skills); err != nil {
			e.logger.Error("storing skills failed", "job_id", j.ID, "error", err)
			res.Failed++
			continue
		}
		e.logger.Debug("job enriched", "job_id", j.ID, "skills", skills)
		res.Enriched++
	}

	e.logger.Info("enrichment complete",
		"scanned", res.Scanned,
		"enriched", res.Enriched,
		"failed", res.Failed,
	)
	return res, nil
}
