package model

import "time"

// SourceState is the per-source sub-state within a cycle.
type SourceState string

const (
	SourceRunning SourceState = "running"
	SourceSuccess SourceState = "success"
	SourceFailed  SourceState = "failed"
)

// SourceStatus summarises one source's contribution to a cycle.
type SourceStatus struct {
	Name        string
	State       SourceState
	Found       int
	New         int
	Touched     int
	Unchanged   int
	Invalid     int // rejected by the normalizer
	Failed      int // rejected by the store
	Deactivated int64
	Err         error
	Duration    time.Duration
}

// CycleReport is the result of one full ingestion cycle.
type CycleReport struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	New         int
	Touched     int
	Unchanged   int
	Invalid     int
	Failed      int
	Deactivated int64
	Swept       bool
	Sources     []SourceStatus
	NewJobs     []Job
}

// FailedPostings counts every posting that did not reach the store: invalid
// ones plus those the store rejected.
func (r CycleReport) FailedPostings() int {
	return r.Invalid + r.Failed
}

// FailedSources returns the names of sources that failed in this cycle.
func (r CycleReport) FailedSources() []string {
	var names []string
	for _, s := range r.Sources {
		if s.State == SourceFailed {
			names = append(names, s.Name)
		}
	}
	return names
}

// CycleLog is one persisted row of scrape history.
type CycleLog struct {
	ID        int64
	CycleID   string
	Source    string
	StartedAt time.Time
	Found     int
	New       int
	Updated   int
	Removed   int64
	Status    SourceState
	Error     string
	Duration  time.Duration
}

// Stats is a point-in-time snapshot of the active job market.
type Stats struct {
	TotalActive  int
	NewToday     int
	ByCategory   []Count
	BySource     []Count
	TopCompanies []Count
	CreatedLast7 int
}

// Count is a labelled tally.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
