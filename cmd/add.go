package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/bmvault/internal/models"
	"github.com/user/bmvault/internal/tui"
)

var (
	addTitle string
	addTags  string
	addNote  string
)

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a bookmark",
	Long:  "Save a URL as a bookmark. The title is prompted for when --title is omitted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newClientEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		title := addTitle
		if title == "" {
			if title, err = tui.Prompt("Title:", false); err != nil {
				return err
			}
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		in := models.BookmarkInput{Title: title, URL: args[0], Tags: addTags, Note: addNote}
		if err := afterSave(env.bookmarks.Create(ctx, in)); err != nil {
			return fmt.Errorf("failed to add bookmark: %w", err)
		}

		fmt.Printf("Added: %s\n", args[0])
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Bookmark title")
	addCmd.Flags().StringVar(&addTags, "tags", "", "Comma-separated tags")
	addCmd.Flags().StringVar(&addNote, "note", "", "Free-form note")
	rootCmd.AddCommand(addCmd)
}
