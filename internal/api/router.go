// Package api provides the HTTP API for weatherdeck.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/weatherdeck/weatherdeck/internal/api/handler"
	"github.com/weatherdeck/weatherdeck/internal/api/middleware"
	"github.com/weatherdeck/weatherdeck/internal/provider/resilience"
	"github.com/weatherdeck/weatherdeck/internal/session"
	"github.com/weatherdeck/weatherdeck/internal/sessiontoken"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Store    *session.Store
	Tokens   *sessiontoken.Service
	Registry *resilience.Registry

	// RequireTLS rejects requests forwarded over plain HTTP.
	RequireTLS bool

	// SearchOnStart fetches the default city when a session is created.
	SearchOnStart bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "weatherdeck-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	// Initialize handlers
	var (
		providers handler.ProviderHealthSource
		sessions  handler.SessionCounter
	)
	if cfg.Registry != nil {
		providers = cfg.Registry
	}
	if cfg.Store != nil {
		sessions = cfg.Store
	}
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, providers, sessions)
	sessionHandler := handler.NewSessionHandler(handler.SessionHandlerConfig{
		Store:         cfg.Store,
		Tokens:        cfg.Tokens,
		Logger:        cfg.Logger,
		SearchOnStart: cfg.SearchOnStart,
	})

	authMiddleware := middleware.SessionAuth(cfg.Tokens)

	createRateLimit := middleware.RateLimitByIP(middleware.SessionCreateRateLimit)   // 10 req/min per IP
	lookupRateLimit := middleware.RateLimitBySession(middleware.LookupRateLimit)     // 30 req/min per session
	standardRateLimit := middleware.RateLimitBySession(middleware.StandardRateLimit) // 100 req/min per session

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Session creation (public) - strict rate limiting
		r.With(createRateLimit).Post("/sessions", sessionHandler.Create)

		// Session endpoints (authenticated by session token)
		r.Route("/session", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)

			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.Delete)

			// Operations that call the weather provider
			r.Group(func(r chi.Router) {
				r.Use(lookupRateLimit)
				r.Use(middleware.RequireJSON)
				r.Post("/search", sessionHandler.Search)
				r.Post("/location", sessionHandler.Location)
				r.Post("/units:toggle", sessionHandler.ToggleUnits)
				r.Post("/refresh", sessionHandler.Refresh)
			})
		})
	})

	return r
}
