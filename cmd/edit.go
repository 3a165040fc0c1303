package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/bmvault/internal/models"
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a bookmark",
	Long:  "Change the title, URL, tags or note of a bookmark. Fields without a flag keep their value.",
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
		current, err := findBookmark(ctx, env, id)
		if err != nil {
			return err
		}

		in := models.BookmarkInput{Title: current.Title, URL: current.URL, Tags: current.Tags, Note: current.Note}
		flags := cmd.Flags()
		if flags.Changed("title") {
			in.Title, _ = flags.GetString("title")
		}
		if flags.Changed("url") {
			in.URL, _ = flags.GetString("url")
		}
		if flags.Changed("tags") {
			in.Tags, _ = flags.GetString("tags")
		}
		if flags.Changed("note") {
			in.Note, _ = flags.GetString("note")
		}

		if err := afterSave(env.bookmarks.Update(ctx, id, in)); err != nil {
			return fmt.Errorf("failed to update bookmark: %w", err)
		}
		fmt.Printf("Updated [%d] %s\n", id, in.Title)
		return nil
	},
}

func init() {
	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().String("url", "", "New URL")
	editCmd.Flags().String("tags", "", "New comma-separated tags")
	editCmd.Flags().String("note", "", "New note")
	rootCmd.AddCommand(editCmd)
}
