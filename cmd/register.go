package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	registerPassword string
	registerNoLogin  bool
)

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account",
	Long:  "Create an account on the backend and log in with it unless --no-login is given.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		password, err := passwordFrom(registerPassword)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := env.session.Register(ctx, args[0], password); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		fmt.Printf("Registered %s\n", args[0])

		if registerNoLogin {
			return nil
		}
		if err := env.session.Login(ctx, args[0], password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Printf("Logged in as %s\n", env.session.User().Username)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Password (prompted when omitted)")
	registerCmd.Flags().BoolVar(&registerNoLogin, "no-login", false, "Only create the account")
	rootCmd.AddCommand(registerCmd)
}
