package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL flavour and database/sql driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect maps a config driver name onto a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Dialect) idColumn() string {
	if d == Postgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// rebind rewrites ? placeholders into $1, $2, ... for Postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func schema(d Dialect) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id              ` + d.idColumn() + `,
			external_id     TEXT UNIQUE,
			url_key         TEXT,
			url             TEXT,
			title           TEXT NOT NULL,
			company         TEXT NOT NULL,
			location        TEXT,
			salary_range    TEXT,
			job_type        TEXT,
			description     TEXT,
			category        TEXT,
			skills          TEXT NOT NULL DEFAULT '[]',
			source          TEXT NOT NULL,
			first_seen_date TEXT NOT NULL,
			last_seen_date  TEXT NOT NULL,
			is_active       BOOLEAN NOT NULL DEFAULT TRUE,
			is_new_today    BOOLEAN NOT NULL DEFAULT FALSE,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_url_key ON jobs (url_key)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_active_seen ON jobs (is_active, last_seen_date)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_new_today ON jobs (is_new_today)`,
		`CREATE TABLE IF NOT EXISTS scrape_logs (
			id               ` + d.idColumn() + `,
			cycle_id         TEXT NOT NULL,
			source           TEXT NOT NULL,
			started_at       TEXT NOT NULL,
			jobs_found       INTEGER NOT NULL DEFAULT 0,
			jobs_new         INTEGER NOT NULL DEFAULT 0,
			jobs_updated     INTEGER NOT NULL DEFAULT 0,
			jobs_removed     INTEGER NOT NULL DEFAULT 0,
			status           TEXT NOT NULL,
			error_message    TEXT,
			duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scrape_logs_cycle ON scrape_logs (cycle_id)`,
	}
}
