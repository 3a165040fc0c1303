package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/user/bmvault/internal/httpserver/deps"
	"github.com/user/bmvault/internal/httpserver/handlers"
)

func init() { Add(authRoutes) }

func authRoutes(r chi.Router, d deps.Deps) {
	r.Post("/register", handlers.Register(d))
	r.Post("/login", handlers.Login(d))
	r.Post("/logout", handlers.Logout(d))
	r.Get("/me", handlers.Me(d))
}
