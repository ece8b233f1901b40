// Package api serves the read-only HTTP view over the lifecycle store.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amishk599/jobtrack/internal/filter"
	"github.com/amishk599/jobtrack/internal/metrics"
	"github.com/amishk599/jobtrack/internal/model"
)

const gracefulShutdownTimeout = 5 * time.Second

// Store is the read side of the lifecycle store.
type Store interface {
	ListActive(ctx context.Context, f filter.ActiveJobs, limit, offset int) ([]model.Job, int, error)
	Get(ctx context.Context, id int64) (model.Job, error)
	Categories(ctx context.Context) ([]string, error)
	Locations(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (model.Stats, error)
	ListCycles(ctx context.Context, limit int) ([]model.CycleLog, error)
	Ping(ctx context.Context) error
}

// NewRouter builds the API routes. mw may be nil to skip request metrics.
func NewRouter(store Store, mw *metrics.Middleware, logger *slog.Logger) http.Handler {
	h := &handlers{store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if mw != nil {
		r.Use(mw.Handler)
	}

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/jobs", h.listJobs)
		r.Get("/jobs/{id}", h.getJob)
		r.Get("/categories", h.categories)
		r.Get("/locations", h.locations)
		r.Get("/stats", h.stats)
		r.Get("/cycles", h.cycles)
	})
	return r
}

// Server runs the API until its context is cancelled.
type Server struct {
	addr       string
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a server for handler on addr.
func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		addr: addr,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		s.httpServer.SetKeepAlivesEnabled(false)
		_ = s.httpServer.Shutdown(shutdownCtx)
		s.logger.Info("api server stopped")
	}()

	s.logger.Info("serving api", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
