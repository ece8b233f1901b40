package store

import (
	"context"
	"fmt"

	"github.com/amishk599/jobtrack/internal/filter"
	"github.com/amishk599/jobtrack/internal/model"
)

// ListActive returns one page of active jobs matching f, newest-today first,
// then most recently created, along with the total number of matches.
func (s *SQLStore) ListActive(ctx context.Context, f filter.ActiveJobs, limit, offset int) ([]model.Job, int, error) {
	where, args := f.Where()

	var total int
	if err := s.db.QueryRowContext(ctx, s.q("SELECT COUNT(*) FROM jobs WHERE "+where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting active jobs: %w", err)
	}

	query := "SELECT " + jobColumns + " FROM jobs WHERE " + where +
		" ORDER BY is_new_today DESC, created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, max(offset, 0))
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing active jobs: %w", err)
	}
	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("listing active jobs: %w", err)
	}
	return jobs, total, nil
}

// Categories lists the distinct categories of active jobs.
func (s *SQLStore) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "category")
}

// Locations lists the distinct locations of active jobs.
func (s *SQLStore) Locations(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "location")
}

func (s *SQLStore) distinct(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT %[1]s FROM jobs WHERE is_active = ? AND %[1]s IS NOT NULL AND %[1]s <> '' ORDER BY %[1]s",
		column)
	rows, err := s.db.QueryContext(ctx, s.q(query), true)
	if err != nil {
		return nil, fmt.Errorf("listing %s values: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", column, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Stats returns a snapshot of the active job market.
func (s *SQLStore) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats

	err := s.db.QueryRowContext(ctx,
		s.q("SELECT COUNT(*) FROM jobs WHERE is_active = ?"), true).Scan(&st.TotalActive)
	if err != nil {
		return st, fmt.Errorf("counting active jobs: %w", err)
	}
	err = s.db.QueryRowContext(ctx,
		s.q("SELECT COUNT(*) FROM jobs WHERE is_new_today = ?"), true).Scan(&st.NewToday)
	if err != nil {
		return st, fmt.Errorf("counting new jobs: %w", err)
	}
	weekAgo := formatTime(s.now().AddDate(0, 0, -7))
	err = s.db.QueryRowContext(ctx,
		s.q("SELECT COUNT(*) FROM jobs WHERE created_at >= ?"), weekAgo).Scan(&st.CreatedLast7)
	if err != nil {
		return st, fmt.Errorf("counting recent jobs: %w", err)
	}

	if st.ByCategory, err = s.countBy(ctx, "COALESCE(category, 'Uncategorized')", 0); err != nil {
		return st, err
	}
	if st.BySource, err = s.countBy(ctx, "source", 0); err != nil {
		return st, err
	}
	if st.TopCompanies, err = s.countBy(ctx, "company", 10); err != nil {
		return st, err
	}
	return st, nil
}

func (s *SQLStore) countBy(ctx context.Context, expr string, limit int) ([]model.Count, error) {
	query := "SELECT " + expr + " AS label, COUNT(*) AS n FROM jobs WHERE is_active = ? GROUP BY " + expr +
		" ORDER BY n DESC, label"
	args := []any{true}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("grouping active jobs by %s: %w", expr, err)
	}
	defer rows.Close()

	var out []model.Count
	for rows.Next() {
		var c model.Count
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
