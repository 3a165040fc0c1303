package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/bmvault/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "bmvault",
	Short: "Personal bookmark vault",
	Long: "A bookmark manager with a terminal UI and one-shot commands over a small REST backend.\n" +
		"Run `bmvault serve` to start the backend, then `bmvault` to open the UI.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()
		return tui.Run(env.session, env.bookmarks)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (default: ~/.bmvault)")
	rootCmd.PersistentFlags().String("server", "", "Backend URL (default: http://localhost:5000)")
}
