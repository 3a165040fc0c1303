package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		ctx, cancel := commandContext(cmd)
		defer cancel()
		// the local session is gone either way
		if err := env.session.Logout(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: backend logout failed: %v\n", err)
		}
		fmt.Println("Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
