package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/buscacontatos/buscacontatos/internal/handler"
	"github.com/buscacontatos/buscacontatos/internal/middleware"
)

// Service is everything the routes call. *service.Facade implements it.
type Service interface {
	handler.Authenticator
	handler.ContactService
	handler.APIKeyService
	handler.WebhookService
	handler.AdminService
	middleware.SessionResolver
	middleware.KeyAuthenticator
}

// RouterConfig holds the dependencies of the HTTP routes.
type RouterConfig struct {
	Logger  *slog.Logger
	Service Service
	Version string

	Store   handler.HealthChecker
	Cache   handler.HealthChecker // nil when Redis is not configured
	Metrics *handler.MetricsHandler

	Security  middleware.SecurityConfig
	CORS      middleware.CORSConfig
	RateLimit middleware.RateLimitConfig
	// AuthMinDuration pads API key authentication; zero disables padding.
	AuthMinDuration time.Duration
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	svc := cfg.Service

	h := handler.New(cfg.Version)
	healthHandler := handler.NewHealthHandler(cfg.Store, cfg.Cache)
	sessionHandler := handler.NewSessionHandler(svc, logger)
	contactHandler := handler.NewContactHandler(svc, logger)
	apiKeyHandler := handler.NewAPIKeyHandler(svc, logger)
	webhookHandler := handler.NewWebhookHandler(svc, logger)
	adminHandler := handler.NewAdminHandler(svc, logger)

	rateLimitCfg := cfg.RateLimit
	rateLimitCfg.Logger = logger

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Security.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.Security.MaxRequestBodySize))
	}

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	r.Get("/", h.Info)

	// Dashboard routes, driven by the process-wide session.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Session(logger, svc))

		r.Route("/session", func(r chi.Router) {
			r.With(middleware.RateLimitLogin(rateLimitCfg)).Post("/login", sessionHandler.Login)
			r.With(middleware.RateLimitLogin(rateLimitCfg)).Post("/google", sessionHandler.LoginWithIdentity)
			r.Post("/logout", sessionHandler.Logout)
			r.Get("/me", sessionHandler.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", contactHandler.List)
				r.Post("/", contactHandler.Save)
				r.Get("/export.csv", contactHandler.Export)
				r.Delete("/{placeID}", contactHandler.Remove)
			})
			r.Post("/search", contactHandler.Search)

			r.Route("/api-keys", func(r chi.Router) {
				r.Get("/", apiKeyHandler.List)
				r.Post("/", apiKeyHandler.Create)
				r.Delete("/{id}", apiKeyHandler.Delete)
			})

			r.Route("/webhooks", func(r chi.Router) {
				r.Get("/", webhookHandler.List)
				r.Post("/", webhookHandler.Create)
				r.Delete("/{id}", webhookHandler.Delete)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/users", adminHandler.ListUsers)
				r.Patch("/users/{id}", adminHandler.UpdateUser)
				r.Delete("/users/{id}", adminHandler.DeleteUser)
				r.Get("/audit-logs", adminHandler.AuditLogs)
			})
		})
	})

	// Programmatic access with API keys.
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(middleware.APIKeyAuthConfig{
			Logger:        logger,
			Authenticator: svc,
			MinDuration:   cfg.AuthMinDuration,
		}))
		r.Use(middleware.RateLimitAPI(rateLimitCfg))

		r.Get("/contatos", contactHandler.ListForAPIKey)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
