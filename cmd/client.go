package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/bmvault/internal/api"
	"github.com/user/bmvault/internal/bookmarks"
	"github.com/user/bmvault/internal/config"
	"github.com/user/bmvault/internal/logger"
	"github.com/user/bmvault/internal/session"
)

const commandTimeout = 30 * time.Second

// clientEnv is what every client-side command works with.
type clientEnv struct {
	cfg       *config.Config
	log       logger.Logger
	tokens    *api.FileSession
	client    *api.Client
	session   *session.Controller
	bookmarks *bookmarks.Controller
}

func newClientEnv(cmd *cobra.Command) (*clientEnv, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewFile(cfg.LogLevel, cfg.LogPath())
	tokens, err := api.NewFileSession(cfg.SessionPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	client := api.NewClient(api.Options{
		BaseURL:    cfg.ServerURL,
		CookieName: cfg.Server.CookieName,
		Session:    tokens,
		Logger:     log,
	})

	return &clientEnv{
		cfg:       cfg,
		log:       log,
		tokens:    tokens,
		client:    client,
		session:   session.New(client, tokens.Clear),
		bookmarks: bookmarks.NewController(client),
	}, nil
}

func (e *clientEnv) close() {
	if err := e.tokens.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save session: %v\n", err)
	}
	_ = e.log.Sync()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, commandTimeout)
}

// afterSave turns a failed refresh into a warning; the change itself was saved.
func afterSave(err error) error {
	if errors.Is(err, bookmarks.ErrListStale) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return nil
	}
	return err
}
