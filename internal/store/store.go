package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"

	"github.com/amishk599/jobtrack/internal/model"
)

// ErrNotFound is returned by lookups for a job id that does not exist.
var ErrNotFound = errors.New("job not found")

// SQLite's built-in lower() folds ASCII only. Replace it so text filters
// fold case the same way on both dialects.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("lower", 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// timeLayout is fixed width so that lexical order equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// SQLStore is the persisted lifecycle table of jobs plus scrape history.
// It assumes a single writer: only one cycle may run against it at a time.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	loc     *time.Location
}

// Option configures an SQLStore.
type Option func(*SQLStore)

// WithClock overrides the store's notion of now.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) { s.now = now }
}

// WithLocation sets the timezone in which calendar days are evaluated.
func WithLocation(loc *time.Location) Option {
	return func(s *SQLStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// ":memory:" gives a throwaway store, used for dry runs.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLStore, error) {
	return Open(SQLite, dbPath, opts...)
}

// Open connects to the database described by dialect and dsn and ensures the
// schema exists.
func Open(dialect Dialect, dsn string, opts ...Option) (*SQLStore, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", dialect, err)
	}

	if dialect == SQLite {
		// One connection keeps :memory: databases alive and serialises writers.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s db: %w", dialect, err)
	}

	if dialect == SQLite {
		if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting sqlite busy_timeout: %w", err)
		}
	}

	for _, stmt := range schema(dialect) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	s := &SQLStore{
		db:      db,
		dialect: dialect,
		now:     time.Now,
		loc:     time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ping reports whether the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) q(query string) string {
	return s.dialect.rebind(query)
}

// startOfDay returns midnight of t's calendar day in the store timezone.
func (s *SQLStore) startOfDay(t time.Time) time.Time {
	local := t.In(s.loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", v, err)
	}
	return t, nil
}
