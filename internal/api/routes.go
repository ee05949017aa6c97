package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes: reads need no credential, matching the client's
		// read-only degraded mode.
		r.Get("/health", h.Health)
		r.Get("/blobs/{name}", h.GetBlob)

		// Writes require the bearer credential.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))
			r.Put("/blobs/{name}", h.PutBlob)
		})
	})

	return r
}
