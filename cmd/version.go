package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/bmvault/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("bmvault " + version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
