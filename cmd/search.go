package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/bmvault/internal/models"
)

var (
	jsonOutput      bool
	plaintextOutput bool
)

var searchCmd = &cobra.Command{
	Use:     "search [query]",
	Aliases: []string{"list", "ls"},
	Short:   "Search bookmarks",
	Long:    "List bookmarks whose title, tags or URL contain the query. Without a query every bookmark is listed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))

		env, err := newClientEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		ctx, cancel := commandContext(cmd)
		defer cancel()
		results, err := env.bookmarks.Load(ctx, query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		switch {
		case jsonOutput:
			return outputJSON(os.Stdout, results)
		case plaintextOutput:
			return outputPlaintext(os.Stdout, results)
		default:
			return outputDefault(os.Stdout, results)
		}
	},
}

func outputJSON(w io.Writer, results []models.Bookmark) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func outputPlaintext(w io.Writer, results []models.Bookmark) error {
	for _, r := range results {
		fav := "-"
		if r.IsFavorite {
			fav = "*"
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, fav, r.Title, r.URL, r.Tags); err != nil {
			return err
		}
	}
	return nil
}

func outputDefault(w io.Writer, results []models.Bookmark) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No bookmarks found.")
		return err
	}
	for _, r := range results {
		star := " "
		if r.IsFavorite {
			star = "★"
		}
		fmt.Fprintf(w, "%s [%d] %s\n   %s\n", star, r.ID, r.Title, r.URL)
		if tags := r.TagList(); len(tags) > 0 {
			fmt.Fprintf(w, "   #%s\n", strings.Join(tags, " #"))
		}
		if r.Note != "" {
			fmt.Fprintf(w, "   %s\n", truncate(r.Note, 100))
		}
		if !r.CreatedAt.IsZero() {
			fmt.Fprintf(w, "   added %s\n", r.CreatedAt.Local().Format("2006-01-02"))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func init() {
	searchCmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	searchCmd.Flags().BoolVarP(&plaintextOutput, "plaintext", "p", false, "Output as tab-separated plaintext")
	rootCmd.AddCommand(searchCmd)
}
