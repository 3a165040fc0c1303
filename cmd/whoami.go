package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		ctx, cancel := commandContext(cmd)
		defer cancel()
		user, err := env.session.CurrentUser(ctx)
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Println("Not logged in")
			return nil
		}
		fmt.Printf("%s (%s)\n", user.Username, env.cfg.ServerURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
