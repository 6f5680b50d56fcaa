package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aigoflow/quality-service/internal/handlers"
	"github.com/aigoflow/quality-service/internal/services"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	httpAddr string
	analysis *services.AnalysisService
	health   *services.HealthService
	metrics  *services.Metrics
}

func NewServer(httpAddr string, analysis *services.AnalysisService, health *services.HealthService, metrics *services.Metrics) *Server {
	return &Server{
		httpAddr: httpAddr,
		analysis: analysis,
		health:   health,
		metrics:  metrics,
	}
}

// Handler builds the router with every endpoint and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, accessLog, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	handlers.NewQualityHandler(s.analysis, s.health).RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.httpAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", s.httpAddr,
			"endpoints", []string{"POST /analyze", "GET /results", "GET /health", "GET /metrics"})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
