// Package server provides the HTTP surface for the point list: the JSON
// API, health and metrics endpoints, and static asset serving.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/UnknownOlympus/pinmap/internal/config"
	"github.com/UnknownOlympus/pinmap/internal/models"
	"github.com/UnknownOlympus/pinmap/internal/repository"
	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readTimeoutSeconds  = 5
	writeTimeoutSeconds = 10
	idleTimeoutSeconds  = 60
	historyLimit        = 20
)

// PointSource serves the current normalized point list. Implemented by the
// loader; mocked in tests.
type PointSource interface {
	LoadPoints(ctx context.Context) []models.Point
}

// Pinger verifies database connectivity for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the pinmap service.
type Server struct {
	cfg    *config.Config
	points PointSource
	repo   repository.Interface // nil when the snapshot sink is disabled
	dtb    Pinger               // nil when no database is configured
	log    *slog.Logger
	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server with all routes and middleware configured.
func NewServer(
	cfg *config.Config,
	points PointSource,
	repo repository.Interface,
	dtb Pinger,
	reg *prometheus.Registry,
	log *slog.Logger,
) *Server {
	srv := &Server{
		cfg:    cfg,
		points: points,
		repo:   repo,
		dtb:    dtb,
		log:    log,
		router: chi.NewRouter(),
	}

	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.RealIP)
	srv.router.Use(middleware.Recoverer)

	// Operational endpoints stay open so probes and scrapers work without
	// credentials.
	srv.router.Get("/healthz", srv.handleHealth)
	srv.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv.router.Group(func(r chi.Router) {
		r.Use(BasicAuth(cfg.Username, cfg.Password, log))
		r.Use(RateLimit(requestsPerSecond, requestBurst))

		r.Get("/api/points", srv.handlePoints)
		r.Get("/api/history", srv.handleHistory)
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	})

	srv.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.router,
		ReadTimeout:  readTimeoutSeconds * time.Second,
		WriteTimeout: writeTimeoutSeconds * time.Second,
		IdleTimeout:  idleTimeoutSeconds * time.Second,
	}

	return srv
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.log.Info("HTTP server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil {
		return fmt.Errorf("http server stopped: %w", err)
	}
	return nil
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// ServeHTTP delegates to the router, useful for testing with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handlePoints serves the current point list as JSON. The loader never
// fails; an unavailable source degrades to a stale or empty list.
func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	points := s.points.LoadPoints(r.Context())
	s.writeJSON(r.Context(), w, http.StatusOK, points)
}

// handleHistory serves recent load snapshots when a database is configured.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		http.Error(w, "load history is not enabled", http.StatusNotFound)
		return
	}

	snapshots, err := s.repo.FetchRecentSnapshots(r.Context(), historyLimit)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Failed to fetch load history", "error", err)
		http.Error(w, "failed to fetch load history", http.StatusInternalServerError)
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, snapshots)
}

// handleHealth reports readiness: the source file must be stat-able and,
// when configured, the database reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.log.DebugContext(ctx, "Performing health checks...")

	status, body := http.StatusOK, "OK"
	if _, err := os.Stat(s.cfg.CSVPath); err != nil {
		status, body = http.StatusServiceUnavailable, "source file unavailable"
	}
	if s.dtb != nil {
		if err := s.dtb.Ping(ctx); err != nil {
			status, body = http.StatusServiceUnavailable, "DB ping failed"
		}
	}

	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		s.log.ErrorContext(ctx, "failed to write reply", "error", err)
	}

	s.log.DebugContext(ctx, "Health checks completed", "status", strconv.Itoa(status))
}

// writeJSON marshals v with sonic and writes it with the given status.
func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to encode response", "error", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(data); err != nil {
		s.log.ErrorContext(ctx, "failed to write reply", "error", err)
	}
}
