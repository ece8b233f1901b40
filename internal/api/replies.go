package api

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/amishk599/jobtrack/internal/model"
)

// listDescriptionLimit truncates descriptions in job listings.
const listDescriptionLimit = 500

type JobReply struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"external_id,omitempty"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	SalaryRange string    `json:"salary_range"`
	JobType     string    `json:"job_type"`
	Category    string    `json:"category"`
	Skills      []string  `json:"skills"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	FirstSeen   time.Time `json:"first_seen_date"`
	LastSeen    time.Time `json:"last_seen_date"`
	IsActive    bool      `json:"is_active"`
	IsNewToday  bool      `json:"is_new_today"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newJobReply(j model.Job) JobReply {
	skills := j.Skills
	if skills == nil {
		skills = []string{}
	}
	return JobReply{
		ID:          j.ID,
		ExternalID:  j.ExternalID,
		Title:       j.Title,
		Company:     j.Company,
		Location:    j.Location,
		SalaryRange: j.SalaryRange,
		JobType:     j.JobType,
		Category:    j.Category,
		Skills:      skills,
		URL:         j.URL,
		Source:      j.Source,
		Description: j.Description,
		FirstSeen:   j.FirstSeen,
		LastSeen:    j.LastSeen,
		IsActive:    j.IsActive,
		IsNewToday:  j.IsNewToday,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

type JobListReply struct {
	Jobs       []JobReply `json:"jobs"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	TotalPages int        `json:"total_pages"`
}

type CategoriesReply struct {
	Categories []string `json:"categories"`
}

type LocationsReply struct {
	Locations []string `json:"locations"`
}

type StatsReply struct {
	TotalJobs     int           `json:"total_jobs"`
	NewToday      int           `json:"new_today"`
	CategoryStats []model.Count `json:"category_stats"`
	SourceStats   []model.Count `json:"source_stats"`
	TopCompanies  []model.Count `json:"top_companies"`
	RecentJobs    int           `json:"recent_jobs"`
}

type CycleReply struct {
	ID              int64     `json:"id"`
	CycleID         string    `json:"cycle_id"`
	Source          string    `json:"source"`
	Timestamp       time.Time `json:"timestamp"`
	Status          string    `json:"status"`
	JobsFound       int       `json:"jobs_found"`
	JobsNew         int       `json:"jobs_new"`
	JobsUpdated     int       `json:"jobs_updated"`
	JobsRemoved     int64     `json:"jobs_removed"`
	DurationSeconds float64   `json:"duration_seconds"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}

type HistoryReply struct {
	History []CycleReply `json:"history"`
}

type HealthReply struct {
	Status string `json:"status"`
}

type ErrorReply struct {
	HTTPStatusCode int    `json:"-"`
	Error          string `json:"error"`
}

func (e *ErrorReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func (j JobReply) Render(w http.ResponseWriter, r *http.Request) error        { return nil }
func (l JobListReply) Render(w http.ResponseWriter, r *http.Request) error    { return nil }
func (c CategoriesReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }
func (l LocationsReply) Render(w http.ResponseWriter, r *http.Request) error  { return nil }
func (s StatsReply) Render(w http.ResponseWriter, r *http.Request) error      { return nil }
func (h HistoryReply) Render(w http.ResponseWriter, r *http.Request) error    { return nil }

func (h HealthReply) Render(w http.ResponseWriter, r *http.Request) error {
	if h.Status != "ok" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	return nil
}
