package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/user/bmvault/internal/httpserver/deps"
	"github.com/user/bmvault/internal/httpserver/handlers"
	"github.com/user/bmvault/internal/httpserver/mw"
)

func init() { Add(bookmarkRoutes, mw.RequireUser) }

func bookmarkRoutes(r chi.Router, d deps.Deps) {
	r.Get("/bookmarks", handlers.ListBookmarks(d))
	r.Post("/bookmarks", handlers.CreateBookmark(d))
	r.Put("/bookmarks/{id}", handlers.UpdateBookmark(d))
	r.Delete("/bookmarks/{id}", handlers.DeleteBookmark(d))
	r.Patch("/bookmarks/{id}/favorite", handlers.ToggleFavorite(d))
}
