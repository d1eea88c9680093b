// Package router wires the REST API routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opencorebank/pki-console/internal/api/handler"
	"github.com/opencorebank/pki-console/internal/api/middleware"
)

// New creates the API router with all routes and middleware configured.
func New(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/issuance/batch", h.BatchIssue)
	})

	return r
}
