package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var favCmd = &cobra.Command{
	Use:   "fav <id>",
	Short: "Toggle a bookmark's favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		env, err := newClientEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		ctx, cancel := commandContext(cmd)
		defer cancel()
		fav, err := env.bookmarks.ToggleFavorite(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to toggle favorite: %w", err)
		}
		if fav {
			fmt.Printf("★ [%d] is a favorite\n", id)
		} else {
			fmt.Printf("[%d] is no longer a favorite\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(favCmd)
}
