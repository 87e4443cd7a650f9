// Package server exposes the daemon's HTTP API: synchronous transcription
// of uploads, job enqueueing, health, and prometheus metrics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/openscribe/scribe/internal/config"
	"github.com/openscribe/scribe/internal/metrics"
	"github.com/openscribe/scribe/internal/pipeline"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

// Deps carries everything the route handlers need.
type Deps struct {
	Runner *pipeline.Runner
	Pool   *pipeline.WorkerPool
	Health *HealthHandler
	Log    zerolog.Logger
}

// NewServer builds the chi router and HTTP server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(deps.Log))
	r.Use(metrics.InstrumentHandler)

	// Unauthenticated operational endpoints
	r.Get("/api/v1/health", deps.Health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated API
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthToken))

		r.Method(http.MethodPost, "/api/v1/transcribe", NewTranscribeHandler(deps.Runner))
		r.Post("/api/v1/jobs", NewJobsHandler(deps.Pool).Create)
		r.Get("/api/v1/queue", NewJobsHandler(deps.Pool).Stats)
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: deps.Log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}

// ShutdownTimeout is how long in-flight requests get to finish.
const ShutdownTimeout = 10 * time.Second
