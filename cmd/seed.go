package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/bmvault/internal/config"
	"github.com/user/bmvault/internal/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed <username>",
	Short: "Add the sample bookmarks to an account",
	Long:  "Insert the built-in sample bookmarks for a user directly in the server database. Accounts that already have bookmarks are skipped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		store, err := db.Open(ctx, cfg.Server.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		user, err := store.FindUserByUsername(ctx, args[0])
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("no user named %q", args[0])
		}
		if err != nil {
			return err
		}

		added, err := db.SeedBookmarks(ctx, store, user.ID)
		if err != nil {
			return fmt.Errorf("seeding failed after %d bookmarks: %w", added, err)
		}
		if added == 0 {
			fmt.Printf("%s already has bookmarks, nothing to do\n", user.Username)
			return nil
		}
		fmt.Printf("Added %d sample bookmarks for %s\n", added, user.Username)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the config")
	rootCmd.AddCommand(seedCmd)
}
