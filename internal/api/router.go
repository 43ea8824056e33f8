// Package api provides the HTTP API for CareMap.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/caremap/caremap/internal/api/handler"
	"github.com/caremap/caremap/internal/api/middleware"
	"github.com/caremap/caremap/internal/location"
	"github.com/caremap/caremap/internal/practitioner"
	"github.com/caremap/caremap/internal/provider/resilience"
	"github.com/caremap/caremap/internal/routing"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version             string
	BuildTime           string
	Logger              zerolog.Logger
	ServiceName         string
	Metrics             *middleware.Metrics
	Database            handler.Pinger
	ProviderRegistry    *resilience.Registry
	PractitionerService *practitioner.Service
	LocationService     *location.Service
	RoutingService      *routing.Service
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "caremap-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Database, cfg.ProviderRegistry)
	practitionerHandler := handler.NewPractitionerHandler(cfg.PractitionerService, cfg.LocationService)
	locationHandler := handler.NewLocationHandler(cfg.LocationService)
	routeHandler := handler.NewRouteHandler(cfg.RoutingService, cfg.PractitionerService, cfg.LocationService)

	// Rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Practitioner directory - standard rate limiting
		r.With(standardRateLimit).Get("/practitioners", practitionerHandler.Search)

		// Positioning - acquisition hits the upstream provider, so it gets
		// the expensive limit; reads are cheap.
		r.With(expensiveRateLimit).Post("/location:acquire", locationHandler.Acquire)
		r.With(standardRateLimit).Get("/location", locationHandler.Current)

		// Routing - expensive compute, strict rate limiting
		r.With(expensiveRateLimit).Post("/routes:compute", routeHandler.ComputeRoute)
		r.Route("/routes/active", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", routeHandler.ActiveRoute)
			r.Delete("/", routeHandler.ClearRoute)
		})
	})

	return r
}
