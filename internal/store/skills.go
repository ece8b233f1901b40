package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/amishk599/jobtrack/internal/model"
)

// ListUnenriched returns up to limit jobs that have a description but no
// extracted skills yet.
func (s *SQLStore) ListUnenriched(ctx context.Context, limit int) ([]model.Job, error) {
	query := "SELECT " + jobColumns + ` FROM jobs
		WHERE description IS NOT NULL AND description <> '' AND skills = ?
		ORDER BY id`
	args := []any{"[]"}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing unenriched jobs: %w", err)
	}
	return collectJobs(rows)
}

// SetSkills stores the extracted skills of a job.
func (s *SQLStore) SetSkills(ctx context.Context, id int64, skills []string) error {
	if skills == nil {
		skills = []string{}
	}
	data, err := json.Marshal(skills)
	if err != nil {
		return fmt.Errorf("encoding skills: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		s.q("UPDATE jobs SET skills = ?, updated_at = ? WHERE id = ?"),
		string(data), formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("setting skills of job %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting skills of job %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
