package api

import (
	"net/http"

	"shopify-oauth-layer/internal/application"
	"shopify-oauth-layer/internal/infrastructure/metrics"
	securitymiddleware "shopify-oauth-layer/internal/infrastructure/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterConfig holds everything the HTTP surface depends on
type RouterConfig struct {
	Service        *application.ShopifyService
	Dispatcher     *application.WebhookDispatcher
	Verifier       WebhookVerifier
	Metrics        *metrics.Metrics
	Webhook        WebhookOptions
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewRouter builds the service's HTTP routes
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(securitymiddleware.RequestLoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// Public routes
	r.Get("/", rootHandler)
	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	// OAuth routes
	r.Get("/install", installHandler(cfg.Service, cfg.Metrics, cfg.Logger))
	r.Get("/oauth/callback", callbackHandler(cfg.Service, cfg.Metrics, cfg.Logger))

	// Webhook endpoint
	r.Post("/webhook/order_placed", webhookHandler(cfg.Service, cfg.Dispatcher, cfg.Verifier, cfg.Webhook, cfg.Metrics, cfg.Logger))

	return r
}
