package app

import (
	"context"
	"fmt"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/bmvault/internal/config"
	"github.com/user/bmvault/internal/db"
	"github.com/user/bmvault/internal/httpserver"
	"github.com/user/bmvault/internal/httpserver/deps"
	"github.com/user/bmvault/internal/logger"
	"github.com/user/bmvault/internal/sessions"
	"github.com/user/bmvault/internal/version"
)

// App is the bookmark backend: store, sessions and HTTP server.
type App struct {
	cfg      *config.Config
	logger   logger.Logger
	store    db.Store
	sessions *sessions.RedisBackend
	server   *httpserver.Server
}

// New opens the store (and redis when sessions live there) and builds the server.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	store, err := db.Open(ctx, cfg.Server.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	log.Info("database ready", logger.String("url", redactURL(cfg.Server.DatabaseURL)))

	var backend sessions.Backend = store
	var redisBackend *sessions.RedisBackend
	var sessionPinger deps.Pinger
	switch cfg.Server.SessionBackend {
	case "", "db":
	case "redis":
		rdb, err := sessions.ConnectRedis(ctx, cfg.Redis, log)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		redisBackend = sessions.NewRedisBackend(rdb)
		backend = redisBackend
		sessionPinger = redisBackend
	default:
		store.Close()
		return nil, fmt.Errorf("unknown session backend %q", cfg.Server.SessionBackend)
	}

	d := deps.Deps{
		Logger:       log,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		GoVersion:    version.GoVersion,
		Store:        store,
		Sessions:     sessions.NewManager(backend, cfg.Server.SessionTTL),
		SessionStore: sessionPinger,
		CookieName:   cfg.Server.CookieName,
		CookieSecure: cfg.Server.CookieSecure,
		SeedNewUsers: cfg.Server.SeedNewUsers,
		CORSOrigins:  cfg.Server.CORSOrigins,
		TimeNow:      time.Now,
	}

	return &App{
		cfg:      cfg,
		logger:   log,
		store:    store,
		sessions: redisBackend,
		server:   httpserver.New(cfg.Server, log, d),
	}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("bmvault %s listening on %s (sessions: %s)",
		version.Version, a.cfg.Server.ListenAddr, a.cfg.Server.SessionBackend)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.Close()
	if runErr == nil {
		a.logger.Info("bmvault stopped cleanly")
	}
	return runErr
}

// Close releases the store and redis connection.
func (a *App) Close() {
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close database: %v", err)
	}
}

// redactURL hides the password in database URLs before logging them.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}
