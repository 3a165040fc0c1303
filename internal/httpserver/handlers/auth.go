package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/user/bmvault/internal/db"
	"github.com/user/bmvault/internal/httpserver/deps"
	"github.com/user/bmvault/internal/httpserver/mw"
	"github.com/user/bmvault/internal/logger"
	"github.com/user/bmvault/internal/models"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

type loginResponse struct {
	OK   bool        `json:"ok"`
	User models.User `json:"user"`
}

type meResponse struct {
	User *models.User `json:"user"`
}

func readCredentials(w http.ResponseWriter, r *http.Request) (models.Credentials, bool) {
	var creds models.Credentials
	decodeBody(w, r, &creds)
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return creds, false
	}
	if len(creds.Password) > maxPasswordBytes {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
		return creds, false
	}
	return creds, true
}

func Register(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, ok := readCredentials(w, r)
		if !ok {
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
		if err != nil {
			d.Logger.Error("failed to hash password", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create user")
			return
		}

		user, err := d.Store.CreateUser(r.Context(), creds.Username, string(hash))
		if err != nil {
			if errors.Is(err, db.ErrAlreadyExists) {
				writeError(w, http.StatusConflict, "username already taken")
				return
			}
			d.Logger.Error("failed to create user", logger.String("username", creds.Username), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create user")
			return
		}

		if d.SeedNewUsers {
			// a seeding failure never fails the registration
			if n, err := db.SeedBookmarks(r.Context(), d.Store, user.ID); err != nil {
				d.Logger.Warn("could not seed bookmarks", logger.Int64("user_id", user.ID), logger.Error(err))
			} else {
				d.Logger.Debug("seeded bookmarks", logger.Int64("user_id", user.ID), logger.Int("count", n))
			}
		}

		writeJSON(w, http.StatusCreated, okResponse{OK: true})
	}
}

func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, ok := readCredentials(w, r)
		if !ok {
			return
		}

		user, err := d.Store.FindUserByUsername(r.Context(), creds.Username)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			d.Logger.Error("failed to fetch user", logger.String("username", creds.Username), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch user")
			return
		}
		if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		// a fresh token per login; the previous one, if any, is dropped
		endCookieSession(r.Context(), d, r)
		sess, err := d.Sessions.Start(r.Context(), user.ID)
		if err != nil {
			d.Logger.Error("failed to start session", logger.Int64("user_id", user.ID), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to start session")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     d.CookieName,
			Value:    sess.Token,
			Path:     "/",
			Expires:  sess.ExpiresAt,
			HttpOnly: true,
			Secure:   d.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, loginResponse{OK: true, User: user})
	}
}

func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		endCookieSession(r.Context(), d, r)
		http.SetCookie(w, &http.Cookie{
			Name:     d.CookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   d.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

// Me reports the session's user, or null when the request is anonymous.
func Me(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := mw.UserID(r.Context())
		if !ok {
			writeJSON(w, http.StatusOK, meResponse{})
			return
		}
		user, err := d.Store.FindUserByID(r.Context(), uid)
		if errors.Is(err, db.ErrNotFound) {
			writeJSON(w, http.StatusOK, meResponse{})
			return
		}
		if err != nil {
			d.Logger.Error("failed to fetch user", logger.Int64("user_id", uid), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to fetch user")
			return
		}
		writeJSON(w, http.StatusOK, meResponse{User: &user})
	}
}

func endCookieSession(ctx context.Context, d deps.Deps, r *http.Request) {
	ck, err := r.Cookie(d.CookieName)
	if err != nil || ck.Value == "" {
		return
	}
	if err := d.Sessions.End(ctx, ck.Value); err != nil {
		d.Logger.Warn("failed to end session", logger.Error(err))
	}
}
