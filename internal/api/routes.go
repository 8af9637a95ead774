package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pepedome/backend/internal/tracking"
)

// NewRouter assembles the full HTTP surface. The rate limiter guards the
// public subscribe endpoint only; trackingHandler owns /track and the
// unsubscribe page.
func NewRouter(h *Handlers, trackingHandler *tracking.Handler, limiter *RateLimiter, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	// Public API.
	r.Route("/api", func(r chi.Router) {
		r.Get("/newsletters", h.ListPublishedNewsletters)
		r.Get("/newsletters/{slug}", h.GetPublishedNewsletter)
		r.Get("/events", h.ListEvents)
		r.Get("/events/{slug}", h.GetEventBySlug)
		r.Get("/articles", h.ListArticles)
		r.Get("/articles/{slug}", h.GetArticleBySlug)

		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Middleware)
			}
			r.Post("/subscribe", h.Subscribe)
		})

		// Admin API.
		r.Route("/admin", func(r chi.Router) {
			r.Route("/newsletters", func(r chi.Router) {
				r.Post("/", h.CreateNewsletter)
				r.Get("/", h.ListNewsletters)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetNewsletter)
					r.Put("/", h.UpdateNewsletter)
					r.Delete("/", h.DeleteNewsletter)
					r.Post("/schedule", h.ScheduleNewsletter)
					r.Post("/send", h.SendNewsletter)
					r.Post("/blocks", h.AddBlock)
					r.Put("/blocks", h.ReplaceBlocks)
					r.Put("/blocks/reorder", h.ReorderBlocks)
					r.Delete("/blocks/{blockId}", h.RemoveBlock)
				})
			})
			r.Route("/events", func(r chi.Router) {
				r.Post("/", h.CreateEvent)
				r.Put("/{id}", h.UpdateEvent)
				r.Put("/{id}/status", h.UpdateEventStatus)
				r.Delete("/{id}", h.DeleteEvent)
			})
			r.Route("/articles", func(r chi.Router) {
				r.Post("/", h.CreateArticle)
				r.Put("/{id}", h.UpdateArticle)
				r.Delete("/{id}", h.DeleteArticle)
			})
			r.Get("/subscribers", h.ListSubscribers)
			r.Get("/subscribers/lookup", h.LookupSubscriber)
		})
	})

	// Opt-in confirmation and unsubscribe pages, linked from emails.
	r.Get("/subscribe/confirm/{token}", h.ConfirmSubscription)
	r.Get("/unsubscribe/{token}", h.Unsubscribe)

	// Tracking pixel, click redirects and the signed unsubscribe link.
	r.Mount("/", trackingHandler.Routes())

	return r
}
