// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/protrade/protrade/internal/api/handler"
	"github.com/protrade/protrade/internal/api/job"
	"github.com/protrade/protrade/internal/api/middleware"
	"github.com/protrade/protrade/internal/app"
	"github.com/protrade/protrade/internal/metrics"
	"go.uber.org/zap"
)

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string // empty disables the prometheus endpoint
	MaxJobs     int
	JobTTL      time.Duration
}

// Dependencies are the shared components the server exposes.
type Dependencies struct {
	App     *app.App
	Metrics *metrics.Registry
}

// Server is the HTTP front end.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.App == nil {
		return nil, fmt.Errorf("api: app dependency is required")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRegistry()
	}
	if cfg.MaxJobs < 1 {
		cfg.MaxJobs = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}

	mux := http.NewServeMux()

	chain := metrics.LoggingMiddleware(logger)(
		metrics.HTTPMiddleware(deps.Metrics)(mux))

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      chain,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.setupRoutes(cfg, deps)

	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	jobs := job.NewStore(cfg.MaxJobs, cfg.JobTTL)
	datasets := handler.NewDatasetHandler(deps.App, s.logger)
	backtests := handler.NewBacktestHandler(deps.App, jobs, deps.Metrics, s.logger)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/datasets", datasets.Upload)
	api.HandleFunc("GET /api/v1/datasets", datasets.List)
	api.HandleFunc("GET /api/v1/datasets/{id}", datasets.Get)
	api.HandleFunc("DELETE /api/v1/datasets/{id}", datasets.Delete)
	api.HandleFunc("POST /api/v1/backtests", backtests.Create)
	api.HandleFunc("GET /api/v1/backtests/{id}", backtests.Get)

	auth := middleware.APIKeyAuth(cfg.APIKey)
	s.mux.Handle("/api/v1/", auth(api))

	// Liveness stays reachable without a key; the exact pattern outranks
	// the authenticated /api/v1/ prefix.
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	if cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath,
			promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
