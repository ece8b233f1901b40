package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/amishk599/jobtrack/internal/model"
)

func TestObserveCycle(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	report := model.CycleReport{
		StartedAt:  start,
		FinishedAt: start.Add(42 * time.Second),
		Swept:      true,
		Sources: []model.SourceStatus{
			{Name: "metrics-seek", State: model.SourceSuccess, New: 3, Touched: 2, Unchanged: 1, Invalid: 1, Deactivated: 4},
			{Name: "metrics-indeed", State: model.SourceFailed},
		},
	}

	ObserveCycle(report)

	if got := testutil.ToFloat64(postingsTotal.WithLabelValues("metrics-seek", "created")); got != 3 {
		t.Errorf("created = %v, want 3", got)
	}
	if got := testutil.ToFloat64(postingsTotal.WithLabelValues("metrics-seek", "invalid")); got != 1 {
		t.Errorf("invalid = %v, want 1", got)
	}
	if got := testutil.ToFloat64(deactivatedTotal.WithLabelValues("metrics-seek")); got != 4 {
		t.Errorf("deactivated = %v, want 4", got)
	}
	if got := testutil.ToFloat64(sourceRunsTotal.WithLabelValues("metrics-indeed", "failed")); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(lastCycleTimestamp); got != float64(report.FinishedAt.Unix()) {
		t.Errorf("last cycle timestamp = %v", got)
	}
}

func TestObserveAbortedCycle(t *testing.T) {
	before := testutil.ToFloat64(cyclesTotal.WithLabelValues("aborted"))
	ObserveCycle(model.CycleReport{})
	if got := testutil.ToFloat64(cyclesTotal.WithLabelValues("aborted")); got != before+1 {
		t.Errorf("aborted cycles = %v, want %v", got, before+1)
	}
}

func TestUpdateActiveJobs(t *testing.T) {
	UpdateActiveJobs([]model.Count{{Label: "seek", Count: 10}, {Label: "trademe", Count: 2}})
	UpdateActiveJobs([]model.Count{{Label: "seek", Count: 7}})

	if got := testutil.ToFloat64(activeJobs.WithLabelValues("seek")); got != 7 {
		t.Errorf("seek = %v, want 7", got)
	}
	// Reset drops sources that no longer have active jobs.
	if got := testutil.CollectAndCount(activeJobs); got != 1 {
		t.Errorf("series = %d, want 1", got)
	}
}

func TestMiddleware(t *testing.T) {
	m := NewMiddleware()
	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for range 2 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/jobs/9", nil))
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("404", "GET", "/api/jobs/{id}")); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
	if got := len(m.Collectors()); got != 2 {
		t.Errorf("collectors = %d", got)
	}
}
