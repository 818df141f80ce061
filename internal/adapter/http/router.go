package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/masspay/internal/adapter/http/handler"
	"github.com/iho/masspay/internal/adapter/http/middleware"
	"github.com/iho/masspay/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	MassPaymentHandler *handler.MassPaymentHandler
	GroupHandler       *handler.GroupHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
	RateLimiter        *middleware.RateLimiter
	HTTPMetrics        *middleware.HTTPMetrics
	// MetricsHandler serves /metrics; promhttp.Handler() when nil.
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewRecovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/mass-payments", func(r chi.Router) {
			r.Post("/", cfg.MassPaymentHandler.Create)
			r.Get("/{id}", cfg.MassPaymentHandler.Get)
			r.Post("/{id}/process", cfg.MassPaymentHandler.Process)
			r.Get("/{id}/consistency", cfg.MassPaymentHandler.Consistency)
		})

		r.Get("/accounts/{number}/mass-payments", cfg.MassPaymentHandler.ListByAccount)
		r.Post("/recipients/validate", cfg.MassPaymentHandler.ValidateRecipient)

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", cfg.GroupHandler.Create)
			r.Get("/{id}", cfg.GroupHandler.Get)
			r.Post("/{id}/recipients", cfg.GroupHandler.AddRecipient)
			r.Post("/{id}/recipients/csv", cfg.GroupHandler.ImportCSV)
			r.Post("/{id}/process", cfg.GroupHandler.Process)
			r.Post("/{id}/mass-payments", cfg.MassPaymentHandler.CreateFromGroup)
		})
	})

	return r
}
