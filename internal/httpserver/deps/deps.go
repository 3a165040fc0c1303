package deps

import (
	"context"
	"time"

	"github.com/user/bmvault/internal/db"
	"github.com/user/bmvault/internal/logger"
	"github.com/user/bmvault/internal/sessions"
)

// Pinger is anything the health endpoint can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	GoVersion    string
	Store        db.Store          // users and bookmarks
	Sessions     *sessions.Manager // cookie token -> user id
	SessionStore Pinger            // redis when sessions live there, nil otherwise
	CookieName   string
	CookieSecure bool
	SeedNewUsers bool // give new accounts the sample bookmarks
	CORSOrigins  []string
	TimeNow      func() time.Time // for testing, defaults to time.Now
}
