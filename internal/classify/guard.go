package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amishk599/jobtrack/internal/model"
)

// Ensure Guarded implements model.Classifier.
var _ model.Classifier = (*Guarded)(nil)

// Guarded makes any classifier total: a panic or a blank label is replaced
// by the fallback category.
type Guarded struct {
	inner    model.Classifier
	fallback string
	logger   *slog.Logger
}

// Guard wraps inner. An empty fallback means DefaultCategory.
func Guard(inner model.Classifier, fallback string, logger *slog.Logger) *Guarded {
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultCategory
	}
	return &Guarded{inner: inner, fallback: fallback, logger: logger}
}

// Classify never panics and never returns an empty label.
func (g *Guarded) Classify(ctx context.Context, title, description string) (label string) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("classifier panicked, using fallback category",
				"title", title,
				"error", fmt.Sprint(r),
				"category", g.fallback,
			)
			label = g.fallback
		}
	}()

	if g.inner == nil {
		return g.fallback
	}

	label = strings.TrimSpace(g.inner.Classify(ctx, title, description))
	if label == "" {
		g.logger.Warn("classifier returned no label, using fallback category",
			"title", title,
			"category", g.fallback,
		)
		return g.fallback
	}
	return label
}
