package routes

import (
	"log/slog"
	"net/http"

	"github.com/BradenHooton/roster/internal/handlers"
	"github.com/BradenHooton/roster/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers served under /api
type Handlers struct {
	Users      *handlers.UserHandler
	Analytics  *handlers.AnalyticsHandler
	Activities *handlers.ActivityHandler
	Events     *handlers.EventsHandler
}

// Config holds the per-route middleware settings
type Config struct {
	// Session resolves the caller's session and attaches its roster.
	Session        func(http.Handler) http.Handler
	AllowedOrigins []string
	RateLimit      middleware.RateLimitConfig
	Logger         *slog.Logger
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, cfg Config) {
	router.Route("/api", func(r chi.Router) {
		r.Use(cfg.Session)
		r.Use(middleware.RecordSession)
		r.Use(middleware.OriginProtection(cfg.AllowedOrigins, cfg.Logger))
		r.Use(middleware.RateLimitMutations(cfg.RateLimit))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.Users.ListUsers)
			r.Post("/", h.Users.CreateUser)

			r.Post("/load", h.Users.Load)
			r.Post("/refresh", h.Users.Refresh)
			r.Put("/filters", h.Users.SetFilter)
			r.Put("/sort", h.Users.SetSort)
			r.Put("/page", h.Users.SetPage)
			r.Get("/events", h.Events.Stream)

			r.Get("/{id}", h.Users.GetUser)
			r.Patch("/{id}", h.Users.UpdateUser)
			r.Delete("/{id}", h.Users.DeleteUser)
			r.Get("/{id}/activities", h.Activities.ListActivities)
		})

		r.Get("/analytics", h.Analytics.GetOverview)
	})
}
