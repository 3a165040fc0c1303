package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/user/bmvault/internal/httpserver/deps"
	"github.com/user/bmvault/internal/httpserver/handlers"
)

func init() { Add(healthRoutes) }

func healthRoutes(r chi.Router, d deps.Deps) {
	r.Get("/health", handlers.Health(d))
}
