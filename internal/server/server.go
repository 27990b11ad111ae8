package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cascadehq/cascade/internal/backend"
	"github.com/cascadehq/cascade/internal/config"
	"github.com/cascadehq/cascade/internal/dispatch"
	"github.com/cascadehq/cascade/internal/observability"
)

// Server owns the router and the HTTP listener.
type Server struct {
	Router *chi.Mux
	http   *http.Server
	logger *slog.Logger
}

// New assembles the route table over the given engine.
func New(cfg *config.Config, engine *dispatch.Engine, backends backend.List, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	h := NewHandler(engine, backends.Names(), cfg.Server.Model, logger)

	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(observability.MetricsMiddleware)
	r.Use(CORSMiddleware(DefaultCORSConfig()))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "cascade")
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(SharedSecretAuth(cfg.Auth.Secret))
		r.Post("/chat/completions", h.ChatCompletions)
		r.Post("/chat/completions/", h.ChatCompletions)
		r.Post("/responses", h.Responses)
		r.Post("/responses/", h.Responses)
		r.Get("/models", h.ListModels)
	})

	r.Post("/chat", h.SimpleChat)
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/*", http.FileServer(http.Dir(cfg.Server.PublicDir)))

	return &Server{
		Router: r,
		logger: logger,
		http: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: r,

			// Only the header read gets a deadline. Streamed completions
			// can outlive any fixed write timeout.
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests until
// ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
