package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/notifly/backend/internal/ackstore"
	"github.com/notifly/backend/internal/broker"
	"github.com/notifly/backend/internal/config"
	"github.com/notifly/backend/internal/handlers"
	"github.com/notifly/backend/internal/middleware"
	"github.com/notifly/backend/internal/services"
	"github.com/notifly/backend/internal/sessions"
)

// New wires the HTTP surface over the delivery core.
func New(cfg *config.Config, b broker.Broker, manager *sessions.Manager, acks *ackstore.Store) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestContextMiddleware)

	allowedOrigins := cfg.CORSAllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         3600,
	}))

	// Services
	publisherService := services.NewPublisherService(b)

	// Handlers
	publishHandler := handlers.NewPublishHandler(publisherService)
	streamHandler := handlers.NewStreamHandler(manager, cfg.HeartbeatInterval)
	ackHandler := handlers.NewAckHandler(manager)
	statsHandler := handlers.NewStatsHandler(b, acks)

	// Rate limiter for publishing
	publishRateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	// Routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", statsHandler.Health)

		r.With(publishRateLimiter.Middleware).Post("/publish", publishHandler.Publish)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/stream", streamHandler.Stream)
			r.Post("/ack", ackHandler.Ack)
		})

		r.Get("/dlq", statsHandler.DeadLetterLength)
		r.Get("/users/{id}/acks", statsHandler.AckCount)
	})

	return r
}
