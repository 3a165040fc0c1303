package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/user/bmvault/internal/db"
	"github.com/user/bmvault/internal/httpserver/deps"
	"github.com/user/bmvault/internal/httpserver/mw"
	"github.com/user/bmvault/internal/logger"
	"github.com/user/bmvault/internal/models"
)

type listResponse struct {
	Bookmarks []models.Bookmark `json:"bookmarks"`
}

type favoriteResponse struct {
	OK         bool `json:"ok"`
	IsFavorite bool `json:"is_favorite"`
}

// requireUserID reads the id stored by mw.RequireUser.
func requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, ok := mw.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not logged in")
	}
	return uid, ok
}

func bookmarkID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

func storeFailure(d deps.Deps, w http.ResponseWriter, op string, err error) {
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	d.Logger.Error("bookmark store failure", logger.String("op", op), logger.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to "+op+" bookmark")
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		query := strings.TrimSpace(r.URL.Query().Get("query"))
		items, err := d.Store.ListBookmarks(r.Context(), uid, query)
		if err != nil {
			storeFailure(d, w, "list", err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse{Bookmarks: items})
	}
}

func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		var in models.BookmarkInput
		decodeBody(w, r, &in)
		in = in.Normalize()
		if err := in.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		created, err := d.Store.CreateBookmark(r.Context(), uid, in)
		if err != nil {
			storeFailure(d, w, "create", err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		id, ok := bookmarkID(w, r)
		if !ok {
			return
		}
		var in models.BookmarkInput
		decodeBody(w, r, &in)
		in = in.Normalize()
		if in.Title == "" || in.URL == "" {
			writeError(w, http.StatusBadRequest, "title and url required")
			return
		}
		if err := in.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		updated, err := d.Store.UpdateBookmark(r.Context(), uid, id, in)
		if err != nil {
			storeFailure(d, w, "update", err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		id, ok := bookmarkID(w, r)
		if !ok {
			return
		}
		if err := d.Store.DeleteBookmark(r.Context(), uid, id); err != nil {
			storeFailure(d, w, "delete", err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

func ToggleFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requireUserID(w, r)
		if !ok {
			return
		}
		id, ok := bookmarkID(w, r)
		if !ok {
			return
		}
		fav, err := d.Store.ToggleFavorite(r.Context(), uid, id)
		if err != nil {
			storeFailure(d, w, "update", err)
			return
		}
		writeJSON(w, http.StatusOK, favoriteResponse{OK: true, IsFavorite: fav})
	}
}
