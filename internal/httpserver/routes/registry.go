package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/bmvault/internal/httpserver/deps"
)

// group is one file's worth of /api routes plus the middleware guarding them.
type group struct {
	mount func(r chi.Router, d deps.Deps)
	use   []func(http.Handler) http.Handler
}

var groups []group

// Add queues a route group. Files in this package call it from init.
func Add(mount func(r chi.Router, d deps.Deps), use ...func(http.Handler) http.Handler) {
	groups = append(groups, group{mount: mount, use: use})
}

// Mount attaches every queued group to r, the /api subrouter built by NewRouter.
func Mount(r chi.Router, d deps.Deps) {
	for _, g := range groups {
		target := r
		if len(g.use) > 0 {
			target = r.With(g.use...)
		}
		g.mount(target, d)
	}
}
