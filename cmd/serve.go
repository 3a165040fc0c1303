package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/user/bmvault/internal/app"
	"github.com/user/bmvault/internal/config"
	"github.com/user/bmvault/internal/logger"
)

var envFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bookmark backend",
	Long: "Serve the REST API under /api. SQLite is used unless server.database_url points at Postgres;\n" +
		"sessions live in the database or in Redis (server.session_backend).",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}

		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log := logger.New(cfg.LogLevel, cfg.Server.PrettyLog)
		defer func() { _ = log.Sync() }()

		a, err := app.New(cmd.Context(), cfg, log)
		if err != nil {
			log.Error("failed to initialize app", logger.Error(err))
			return err
		}
		return a.Run(cmd.Context())
	},
}

// loadEnvFile reads KEY=value pairs into the environment. A missing file is fine.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the config")
	rootCmd.AddCommand(serveCmd)
}
