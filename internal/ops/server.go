// Package ops serves the operational endpoints: health, readiness,
// Prometheus metrics and pprof.
package ops

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"anchortest/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a dependency is usable
type ReadinessCheck func(ctx context.Context) error

// Server exposes:
//   - GET /healthz        liveness
//   - GET /readyz         runs every readiness check
//   - GET /metrics        Prometheus exposition
//   - /debug/pprof/...    runtime profiles
type Server struct {
	addr   string
	router *chi.Mux
	server *http.Server
	logger *zap.Logger
	checks map[string]ReadinessCheck
}

// NewServer creates an ops server. gatherer defaults to the Prometheus
// default registry when nil.
func NewServer(addr string, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		addr:   addr,
		router: chi.NewRouter(),
		logger: logger,
		checks: make(map[string]ReadinessCheck),
	}

	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	s.router.Get("/readyz", s.handleReady)
	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	s.router.Mount("/debug", middleware.Profiler())

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// AddReadinessCheck registers a named check for /readyz
func (s *Server) AddReadinessCheck(name string, check ReadinessCheck) {
	s.checks[name] = check
}

// Handle registers an extra handler, e.g. a zap.AtomicLevel at /loglevel
func (s *Server) Handle(pattern string, h http.Handler) {
	s.router.Handle(pattern, h)
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			http.Error(w, name+": "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("READY"))
}

// Start serves until Shutdown. A graceful shutdown returns nil.
func (s *Server) Start() error {
	if _, _, err := net.SplitHostPort(s.addr); err != nil {
		return errors.ConfigInvalid("invalid ops address " + s.addr + ": " + err.Error())
	}

	s.logger.Info("ops server listening", zap.String("addr", s.addr))
	err := s.server.ListenAndServe()
	if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "ops server error")
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "ops server shutdown")
	}
	s.logger.Info("ops server stopped")
	return nil
}
