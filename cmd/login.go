package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/bmvault/internal/tui"
)

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in to the backend",
	Long:  "Log in and keep the session in the data directory for later commands and the UI.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		password, err := passwordFrom(loginPassword)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := env.session.Login(ctx, args[0], password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Printf("Logged in as %s\n", env.session.User().Username)
		return nil
	},
}

// passwordFrom returns flagValue or asks for the password on the terminal.
func passwordFrom(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return tui.Prompt("Password:", true)
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")
	rootCmd.AddCommand(loginCmd)
}
