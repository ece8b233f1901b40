package model

import (
	"context"
	"time"
)

// RawPosting is a single record as handed over by a source scraper, before
// any cleanup. Every field may be empty or padded.
type RawPosting struct {
	Source      string
	ExternalID  string
	Title       string
	Company     string
	Location    string
	SalaryRange string
	JobType     string
	URL         string
	Description string

	// IdentityURL, when set, replaces URL for identity matching. Sources whose
	// links only differ in the query string use it.
	IdentityURL string
}

// Posting is the canonical form of a RawPosting. MatchURL is the url with the
// query string and fragment removed; it is only used for identity matching.
type Posting struct {
	Source      string
	ExternalID  string
	Title       string
	Company     string
	Location    string
	SalaryRange string
	JobType     string
	URL         string // as seen, volatile parameters included
	Description string
	MatchURL    string
}

// Job is the persisted, deduplicated representation of a posting across
// cycles and sources.
type Job struct {
	ID          int64
	ExternalID  string
	URL         string
	Title       string
	Company     string
	Location    string
	SalaryRange string
	JobType     string
	Description string
	Category    string // empty when no classifier was supplied
	Skills      []string
	Source      string
	FirstSeen   time.Time
	LastSeen    time.Time
	IsActive    bool
	IsNewToday  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Resolution is the outcome of an identity lookup: either an existing job id
// or New.
type Resolution struct {
	JobID int64
	New   bool
}

// Effect describes what an upsert did to the store.
type Effect string

const (
	EffectCreated   Effect = "created"
	EffectTouched   Effect = "touched"
	EffectUnchanged Effect = "unchanged"
)

// Outcome is returned by an upsert.
type Outcome struct {
	JobID    int64
	Effect   Effect
	Category string
}

// Scraper produces raw postings for one source. An error means the whole
// source failed for this cycle.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context) ([]RawPosting, error)
}

// Classifier assigns a category label to a new job. Implementations wrapped
// by classify.Guard are total.
type Classifier interface {
	Classify(ctx context.Context, title, description string) string
}

// Notifier announces the jobs created during a cycle.
type Notifier interface {
	Notify(ctx context.Context, jobs []Job) error
}
