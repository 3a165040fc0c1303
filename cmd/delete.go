package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/bmvault/internal/bookmarks"
	"github.com/user/bmvault/internal/models"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a bookmark",
	Args:    cobra.ExactArgs(1),
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
		// load so the prompt can name the bookmark
		if _, err := env.bookmarks.Load(ctx, ""); err != nil {
			return err
		}

		confirm := bookmarks.AlwaysConfirm
		if !deleteYes {
			confirm = stdinConfirmer(os.Stdin, os.Stdout)
		}
		err = env.bookmarks.Remove(ctx, id, confirm)
		if errors.Is(err, bookmarks.ErrNotConfirmed) {
			fmt.Println("Cancelled")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to delete bookmark: %w", err)
		}
		fmt.Printf("Deleted [%d]\n", id)
		return nil
	},
}

// stdinConfirmer asks on out and approves only an explicit yes read from in.
func stdinConfirmer(in io.Reader, out io.Writer) bookmarks.Confirmer {
	return bookmarks.ConfirmFunc(func(b models.Bookmark) bool {
		name := b.Title
		if name == "" {
			name = fmt.Sprintf("bookmark %d", b.ID)
		}
		fmt.Fprintf(out, "Delete %q? [y/N] ", name)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	})
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid bookmark id %q", s)
	}
	return id, nil
}

// findBookmark loads the full list and picks id out of it.
func findBookmark(ctx context.Context, env *clientEnv, id int64) (models.Bookmark, error) {
	if _, err := env.bookmarks.Load(ctx, ""); err != nil {
		return models.Bookmark{}, err
	}
	b, ok := env.bookmarks.Find(id)
	if !ok {
		return models.Bookmark{}, fmt.Errorf("bookmark %d not found", id)
	}
	return b, nil
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking")
	rootCmd.AddCommand(deleteCmd)
}
