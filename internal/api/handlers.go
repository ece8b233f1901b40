package api

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/amishk599/jobtrack/internal/filter"
	"github.com/amishk599/jobtrack/internal/store"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// maxPage keeps (page-1)*perPage from overflowing.
const maxPage = math.MaxInt / maxPerPage

type handlers struct {
	store  Store
	logger *slog.Logger
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if err != nil {
		h.logger.Error(msg, "path", r.URL.Path, "error", err)
	}
	_ = render.Render(w, r, &ErrorReply{HTTPStatusCode: status, Error: msg})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", "error", err)
		_ = render.Render(w, r, HealthReply{Status: "store unavailable"})
		return
	}
	_ = render.Render(w, r, HealthReply{Status: "ok"})
}

func (h *handlers) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"), 1)
	if err != nil || page < 1 || page > maxPage {
		h.fail(w, r, http.StatusBadRequest, "page must be a positive integer", nil)
		return
	}
	perPage, err := intParam(q.Get("per_page"), defaultPerPage)
	if err != nil || perPage < 1 {
		h.fail(w, r, http.StatusBadRequest, "per_page must be a positive integer", nil)
		return
	}
	perPage = min(perPage, maxPerPage)

	f := filter.ActiveJobs{
		Category: q.Get("category"),
		Location: q.Get("location"),
		Search:   q.Get("search"),
		Source:   q.Get("source"),
	}
	jobs, total, err := h.store.ListActive(r.Context(), f, perPage, (page-1)*perPage)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "listing jobs failed", err)
		return
	}

	reply := JobListReply{
		Jobs:       make([]JobReply, 0, len(jobs)),
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}
	for _, j := range jobs {
		jr := newJobReply(j)
		jr.Description = truncate(jr.Description, listDescriptionLimit)
		reply.Jobs = append(reply.Jobs, jr)
	}
	_ = render.Render(w, r, reply)
}

func (h *handlers) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "job id must be an integer", nil)
		return
	}
	job, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, r, http.StatusNotFound, "Job not found", nil)
		return
	}
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "loading job failed", err)
		return
	}
	_ = render.Render(w, r, newJobReply(job))
}

func (h *handlers) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.Categories(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "listing categories failed", err)
		return
	}
	_ = render.Render(w, r, CategoriesReply{Categories: nonNil(cats)})
}

func (h *handlers) locations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.store.Locations(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "listing locations failed", err)
		return
	}
	_ = render.Render(w, r, LocationsReply{Locations: nonNil(locs)})
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Stats(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "loading stats failed", err)
		return
	}
	_ = render.Render(w, r, StatsReply{
		TotalJobs:     s.TotalActive,
		NewToday:      s.NewToday,
		CategoryStats: s.ByCategory,
		SourceStats:   s.BySource,
		TopCompanies:  s.TopCompanies,
		RecentJobs:    s.CreatedLast7,
	})
}

func (h *handlers) cycles(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), 50)
	if err != nil || limit < 1 {
		h.fail(w, r, http.StatusBadRequest, "limit must be a positive integer", nil)
		return
	}
	logs, err := h.store.ListCycles(r.Context(), min(limit, 500))
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, "listing scrape history failed", err)
		return
	}

	reply := HistoryReply{History: make([]CycleReply, 0, len(logs))}
	for _, l := range logs {
		reply.History = append(reply.History, CycleReply{
			ID:              l.ID,
			CycleID:         l.CycleID,
			Source:          l.Source,
			Timestamp:       l.StartedAt,
			Status:          string(l.Status),
			JobsFound:       l.Found,
			JobsNew:         l.New,
			JobsUpdated:     l.Updated,
			JobsRemoved:     l.Removed,
			DurationSeconds: l.Duration.Seconds(),
			ErrorMessage:    l.Error,
		})
	}
	_ = render.Render(w, r, reply)
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
