package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eva-wellness/eva/internal/middleware"
	"github.com/eva-wellness/eva/internal/service"
	"github.com/eva-wellness/eva/internal/store"
	"github.com/eva-wellness/eva/pkg/logger"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Completer   Completer
	Registry    *store.Registry
	ChatService *service.ChatService
	Broker      *service.Broker
	// Journal is nil when the event journal is disabled.
	Journal ReadinessChecker
	Logger  *logger.Logger

	AllowedOrigins    []string
	JWTSecret         string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	healthHandler := NewHealthHandler(cfg.Journal)
	chatHandler := NewChatHandler(cfg.Completer, cfg.Logger)
	sessionHandler := NewSessionHandler(cfg.Registry, cfg.ChatService, cfg.Logger)
	streamHandler := NewStreamHandler(sessionHandler, cfg.Broker)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Liveness and health endpoints (no auth required)
	r.Get("/", healthHandler.Root)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Stateless proxy used by the web client, limited per client IP
		r.With(rateLimit(cfg)...).Post("/chat", chatHandler.Chat)

		r.Route("/v1", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWTSecret))
			// After auth so authenticated callers get their own bucket
			r.Use(rateLimit(cfg)...)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", sessionHandler.Create)

				r.Route("/{sid}", func(r chi.Router) {
					r.Get("/", sessionHandler.Get)
					r.Put("/active", sessionHandler.SelectChat)
					r.Get("/events", streamHandler.Events)

					r.Route("/chats", func(r chi.Router) {
						r.Get("/", sessionHandler.ListChats)
						r.Post("/", sessionHandler.CreateChat)
						r.Get("/active", sessionHandler.ActiveChat)
						r.Get("/{cid}", sessionHandler.GetChat)
						r.Post("/{cid}/messages", sessionHandler.Send)
					})
				})
			})
		})
	})

	return r
}

// rateLimit returns a fresh limiter, or nothing when limiting is disabled.
func rateLimit(cfg RouterConfig) []func(http.Handler) http.Handler {
	if cfg.RateLimitRequests <= 0 {
		return nil
	}
	return []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow),
	}
}
