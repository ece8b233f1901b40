package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobtrack/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes new jobs to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per job. It never fails.
func (n *LogNotifier) Notify(_ context.Context, jobs []model.Job) error {
	for _, j := range jobs {
		args := []any{
			"job_id", j.ID,
			"company", j.Company,
			"title", j.Title,
			"location", j.Location,
			"source", j.Source,
			"url", j.URL,
		}
		if j.Category != "" {
			args = append(args, "category", j.Category)
		}
		n.logger.Info("new job", args...)
	}
	return nil
}
