package identity

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/amishk599/jobtrack/internal/model"
	"github.com/amishk599/jobtrack/internal/posting"
)

// CandidateFinder returns the ids of every stored job whose url key equals
// urlKey or whose external id equals externalID. Empty arguments never match.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, urlKey, externalID string) ([]int64, error)
}

// Resolver decides whether a posting is a re-observation of a stored job.
type Resolver struct {
	finder CandidateFinder
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by finder.
func NewResolver(finder CandidateFinder, logger *slog.Logger) *Resolver {
	return &Resolver{finder: finder, logger: logger}
}

// Resolve returns the matching job id, or New when nothing matches. When
// several jobs match, the lowest id wins.
func (r *Resolver) Resolve(ctx context.Context, p model.Posting) (model.Resolution, error) {
	key := posting.URLKey(p.MatchURL)
	if key == "" && p.ExternalID == "" {
		return model.Resolution{}, &model.ValidationError{Field: "url", Reason: "and external_id are both missing"}
	}

	ids, err := r.finder.FindCandidates(ctx, key, p.ExternalID)
	if err != nil {
		return model.Resolution{}, fmt.Errorf("resolving %s: %w", p.MatchURL, err)
	}
	if len(ids) == 0 {
		return model.Resolution{New: true}, nil
	}

	lowest := slices.Min(ids)
	if len(ids) > 1 {
		r.logger.Warn("posting matches several jobs, keeping lowest id",
			"url", p.MatchURL,
			"external_id", p.ExternalID,
			"candidates", ids,
			"job_id", lowest,
		)
	}
	return model.Resolution{JobID: lowest}, nil
}
