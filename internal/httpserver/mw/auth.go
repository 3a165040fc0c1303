package mw

import (
	"context"
	"errors"
	"net/http"

	"github.com/user/bmvault/internal/httpserver/deps"
	"github.com/user/bmvault/internal/logger"
	"github.com/user/bmvault/internal/sessions"
)

type ctxKey int

const userIDKey ctxKey = iota

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// LoadSession resolves the session cookie, if any, and stores the user id in
// the request context. Requests without a valid session pass through untouched.
func LoadSession(d deps.Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ck, err := r.Cookie(d.CookieName)
			if err != nil || ck.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			s, err := d.Sessions.Resolve(r.Context(), ck.Value)
			if err != nil {
				if !errors.Is(err, sessions.ErrNoSession) {
					d.Logger.Warn("session lookup failed", logger.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), s.UserID)))
		})
	}
}

// RequireUser rejects requests that LoadSession did not authenticate.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserID(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"not logged in"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
