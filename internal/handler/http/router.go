package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/plantstore/internal/domain"
	"github.com/utafrali/plantstore/internal/service"
	"github.com/utafrali/plantstore/pkg/health"
	"github.com/utafrali/plantstore/pkg/middleware"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	ServiceName string

	Auth    *service.AuthService
	Catalog *service.CatalogService
	Orders  *service.OrderService
	Reviews *service.ReviewService

	Tokens   middleware.TokenValidator
	Sessions SessionResolver

	Health      *health.Handler
	HTTPMetrics *middleware.HTTPMetrics
	// MetricsHandler serves /metrics; nil leaves the route unmounted.
	MetricsHandler http.Handler

	CORS               middleware.CORSConfig
	AuthRateLimit      middleware.RateLimitConfig
	PprofCIDRs         []string
	CatalogCacheMaxAge int

	Logger *slog.Logger
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.OptionalAuth(cfg.Tokens))
	r.Use(middleware.RequestLogger(logger))
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Handler)
	}
	r.Use(SessionContext(cfg.Sessions, logger))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	authHandler := NewAuthHandler(cfg.Auth, logger)
	catalogHandler := NewCatalogHandler(cfg.Catalog, logger)
	reviewHandler := NewReviewHandler(cfg.Reviews, logger)
	orderHandler := NewOrderHandler(cfg.Orders, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(cfg.AuthRateLimit, logger))
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/resend-activation", authHandler.ResendActivation)
			})
			r.Post("/logout", authHandler.Logout)
			r.Post("/activate", authHandler.Activate)
			r.Get("/me", authHandler.Me)
			r.Get("/email-exists", authHandler.EmailExists)
		})

		r.Route("/products", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(cfg.CatalogCacheMaxAge))
				r.Get("/", catalogHandler.List)
				r.Get("/featured", catalogHandler.Featured)
				r.Get("/{productId}", catalogHandler.Get)
			})

			r.Route("/{productId}/reviews", func(r chi.Router) {
				r.Get("/", reviewHandler.List)
				r.Get("/eligibility", reviewHandler.Eligibility)
				r.Post("/", reviewHandler.Submit)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(RequireLogin)
			r.Post("/", orderHandler.Create)
			r.Get("/", orderHandler.ListMine)
			r.With(middleware.RequireRole(domain.RoleAdmin)).Patch("/{id}/status", orderHandler.UpdateStatus)
		})
	})

	return r
}
