package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/jobtrack/internal/model"
	"github.com/amishk599/jobtrack/internal/posting"
)

const jobColumns = `id, external_id, url, title, company, location, salary_range, job_type,
	description, category, skills, source, first_seen_date, last_seen_date,
	is_active, is_new_today, created_at, updated_at`

// ResetNewToday clears the new-today flag on every job in one statement and
// returns how many rows were cleared. It does not bump updated_at; the flag is
// per-cycle bookkeeping, not a change to the job.
func (s *SQLStore) ResetNewToday(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.q("UPDATE jobs SET is_new_today = ? WHERE is_new_today = ?"), false, true)
	if err != nil {
		return 0, fmt.Errorf("resetting new-today flags: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resetting new-today flags: %w", err)
	}
	return n, nil
}

// FindCandidates returns, in ascending order, the ids of jobs whose url key
// equals urlKey or whose external id equals externalID.
func (s *SQLStore) FindCandidates(ctx context.Context, urlKey, externalID string) ([]int64, error) {
	var conds []string
	var args []any
	if urlKey != "" {
		conds = append(conds, "url_key = ?")
		args = append(args, urlKey)
	}
	if externalID != "" {
		conds = append(conds, "external_id = ?")
		args = append(args, externalID)
	}
	if len(conds) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT id FROM jobs WHERE "+strings.Join(conds, " OR ")+" ORDER BY id"), args...)
	if err != nil {
		return nil, fmt.Errorf("finding candidates: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Upsert applies one observation of p. A new resolution inserts a job and
// invokes c exactly once for its category; an existing one is touched when it
// was last seen before today and left alone otherwise.
func (s *SQLStore) Upsert(ctx context.Context, p model.Posting, res model.Resolution, c model.Classifier) (model.Outcome, error) {
	if res.New {
		return s.insert(ctx, p, c)
	}
	return s.touch(ctx, res.JobID)
}

func (s *SQLStore) insert(ctx context.Context, p model.Posting, c model.Classifier) (model.Outcome, error) {
	var category sql.NullString
	if c != nil {
		category = sql.NullString{String: c.Classify(ctx, p.Title, p.Description), Valid: true}
	}

	now := formatTime(s.now())
	query := s.q(`INSERT INTO jobs (
			external_id, url_key, url, title, company, location, salary_range, job_type,
			description, category, skills, source, first_seen_date, last_seen_date,
			is_active, is_new_today, created_at, updated_at
		) VALUES (` + placeholders(18) + `) RETURNING id`)

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		nullString(p.ExternalID),
		nullString(posting.URLKey(p.MatchURL)),
		nullString(p.URL),
		p.Title,
		p.Company,
		nullString(p.Location),
		nullString(p.SalaryRange),
		nullString(p.JobType),
		nullString(p.Description),
		category,
		"[]",
		p.Source,
		now, now,
		true, true,
		now, now,
	).Scan(&id)
	if err != nil {
		return model.Outcome{}, &model.PersistenceError{Op: "insert", Err: err}
	}

	return model.Outcome{JobID: id, Effect: model.EffectCreated, Category: category.String}, nil
}

func (s *SQLStore) touch(ctx context.Context, id int64) (model.Outcome, error) {
	nowT := s.now()
	now := formatTime(nowT)
	today := formatTime(s.startOfDay(nowT))

	res, err := s.db.ExecContext(ctx, s.q(`UPDATE jobs
		SET last_seen_date = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND last_seen_date < ?`),
		now, true, now, id, today)
	if err != nil {
		return model.Outcome{}, &model.PersistenceError{Op: "touch", JobID: id, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Outcome{}, &model.PersistenceError{Op: "touch", JobID: id, Err: err}
	}
	if n > 0 {
		return model.Outcome{JobID: id, Effect: model.EffectTouched}, nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, s.q("SELECT 1 FROM jobs WHERE id = ?"), id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Outcome{}, &model.PersistenceError{Op: "touch", JobID: id, Err: ErrNotFound}
	}
	if err != nil {
		return model.Outcome{}, &model.PersistenceError{Op: "touch", JobID: id, Err: err}
	}
	return model.Outcome{JobID: id, Effect: model.EffectUnchanged}, nil
}

// Sweep deactivates every active job last seen on a calendar day before
// cycleStart's day. Jobs from excludeSources are left alone. It returns the
// number of deactivated jobs per source.
func (s *SQLStore) Sweep(ctx context.Context, cycleStart time.Time, excludeSources []string) (map[string]int64, error) {
	cutoff := formatTime(s.startOfDay(cycleStart))
	where := "is_active = ? AND last_seen_date < ?"
	args := []any{true, cutoff}
	if len(excludeSources) > 0 {
		where += " AND source NOT IN (" + placeholders(len(excludeSources)) + ")"
		for _, src := range excludeSources {
			args = append(args, src)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sweep: begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, s.q("SELECT source, COUNT(*) FROM jobs WHERE "+where+" GROUP BY source"), args...)
	if err != nil {
		return nil, fmt.Errorf("sweep: counting stale jobs: %w", err)
	}
	counts := make(map[string]int64)
	for rows.Next() {
		var src string
		var n int64
		if err := rows.Scan(&src, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sweep: scanning count: %w", err)
		}
		counts[src] = n
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("sweep: counting stale jobs: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sweep: counting stale jobs: %w", err)
	}

	updateArgs := append([]any{false, formatTime(s.now())}, args...)
	if _, err := tx.ExecContext(ctx, s.q("UPDATE jobs SET is_active = ?, updated_at = ? WHERE "+where), updateArgs...); err != nil {
		return nil, fmt.Errorf("sweep: deactivating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sweep: commit: %w", err)
	}
	return counts, nil
}

// Get returns the job with the given id.
func (s *SQLStore) Get(ctx context.Context, id int64) (model.Job, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT "+jobColumns+" FROM jobs WHERE id = ?"), id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, ErrNotFound
	}
	if err != nil {
		return model.Job{}, fmt.Errorf("getting job %d: %w", id, err)
	}
	return job, nil
}

// NewToday returns the jobs flagged as created in the current cycle.
func (s *SQLStore) NewToday(ctx context.Context) ([]model.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT "+jobColumns+" FROM jobs WHERE is_new_today = ? ORDER BY id"), true)
	if err != nil {
		return nil, fmt.Errorf("listing new jobs: %w", err)
	}
	return collectJobs(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(r scanner) (model.Job, error) {
	var (
		j                                        model.Job
		externalID, url, location, salary        sql.NullString
		jobType, description, category           sql.NullString
		skills, firstSeen, lastSeen, created, up string
	)
	err := r.Scan(&j.ID, &externalID, &url, &j.Title, &j.Company, &location, &salary, &jobType,
		&description, &category, &skills, &j.Source, &firstSeen, &lastSeen,
		&j.IsActive, &j.IsNewToday, &created, &up)
	if err != nil {
		return model.Job{}, err
	}

	j.ExternalID = externalID.String
	j.URL = url.String
	j.Location = location.String
	j.SalaryRange = salary.String
	j.JobType = jobType.String
	j.Description = description.String
	j.Category = category.String

	if skills != "" {
		if err := json.Unmarshal([]byte(skills), &j.Skills); err != nil {
			return model.Job{}, fmt.Errorf("decoding skills of job %d: %w", j.ID, err)
		}
	}

	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&j.FirstSeen, firstSeen},
		{&j.LastSeen, lastSeen},
		{&j.CreatedAt, created},
		{&j.UpdatedAt, up},
	} {
		t, err := parseTime(f.src)
		if err != nil {
			return model.Job{}, err
		}
		*f.dst = t
	}
	return j, nil
}

func collectJobs(rows *sql.Rows) ([]model.Job, error) {
	defer rows.Close()
	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
