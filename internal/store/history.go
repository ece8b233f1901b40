package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amishk599/jobtrack/internal/model"
)

// RecordCycle writes one scrape_logs row per source of report.
func (s *SQLStore) RecordCycle(ctx context.Context, report model.CycleReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("recording cycle %s: %w", report.ID, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.q(`INSERT INTO scrape_logs (
			cycle_id, source, started_at, jobs_found, jobs_new, jobs_updated,
			jobs_removed, status, error_message, duration_seconds
		) VALUES (`+placeholders(10)+`)`))
	if err != nil {
		return fmt.Errorf("recording cycle %s: %w", report.ID, err)
	}
	defer stmt.Close()

	for _, src := range report.Sources {
		var msg sql.NullString
		if src.Err != nil {
			msg = sql.NullString{String: src.Err.Error(), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			report.ID,
			src.Name,
			formatTime(report.StartedAt),
			src.Found,
			src.New,
			src.Touched,
			src.Deactivated,
			string(src.State),
			msg,
			src.Duration.Seconds(),
		)
		if err != nil {
			return fmt.Errorf("recording source %s of cycle %s: %w", src.Name, report.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("recording cycle %s: %w", report.ID, err)
	}
	return nil
}

// ListCycles returns the most recent scrape history rows, newest first.
func (s *SQLStore) ListCycles(ctx context.Context, limit int) ([]model.CycleLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id, cycle_id, source, started_at, jobs_found,
			jobs_new, jobs_updated, jobs_removed, status, error_message, duration_seconds
		FROM scrape_logs ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("listing scrape history: %w", err)
	}
	defer rows.Close()

	var logs []model.CycleLog
	for rows.Next() {
		var (
			l       model.CycleLog
			started string
			status  string
			msg     sql.NullString
			secs    float64
		)
		err := rows.Scan(&l.ID, &l.CycleID, &l.Source, &started, &l.Found,
			&l.New, &l.Updated, &l.Removed, &status, &msg, &secs)
		if err != nil {
			return nil, fmt.Errorf("scanning scrape history: %w", err)
		}
		if l.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		l.Status = model.SourceState(status)
		l.Error = msg.String
		l.Duration = time.Duration(secs * float64(time.Second))
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
