package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the metrics/health HTTP server, mirroring the teacher's
// healthCheckServer/closeHealthCheckServer pair but built on chi so
// /health and /metrics share one router.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// NewServer builds a Server listening on port, exposing /health (always
// 200 while the process is up) and /metrics (the registered Prometheus
// collectors).
func NewServer(port int, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		http:   &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: r},
		logger: logger,
	}
}

// Start runs the server in the background. Call Shutdown to stop it.
func (s *Server) Start() {
	s.logger.Info("Metrics server starting.", "address", "http://localhost"+s.http.Addr)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed unexpectedly.", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server, bounded by a 5-second timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	s.logger.Info("Shutting down metrics server.")
	return s.http.Shutdown(ctx)
}
