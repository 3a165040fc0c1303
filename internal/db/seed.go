package db

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/user/bmvault/internal/models"
)

//go:embed seed.yaml
var seedYAML []byte

// SampleBookmarks returns the bookmarks new accounts start with.
func SampleBookmarks() ([]models.BookmarkInput, error) {
	var samples []models.BookmarkInput
	if err := yaml.Unmarshal(seedYAML, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse sample bookmarks: %w", err)
	}
	return samples, nil
}

// SeedBookmarks adds the sample bookmarks to userID's account and returns how
// many were inserted. Accounts that already hold bookmarks are left alone.
func SeedBookmarks(ctx context.Context, store Store, userID int64) (int, error) {
	count, err := store.CountBookmarks(ctx, userID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	samples, err := SampleBookmarks()
	if err != nil {
		return 0, err
	}
	// reversed so the first sample ends up newest and is listed first
	added := 0
	for i := len(samples) - 1; i >= 0; i-- {
		if _, err := store.CreateBookmark(ctx, userID, samples[i].Normalize()); err != nil {
			return added, fmt.Errorf("failed to seed %q: %w", samples[i].Title, err)
		}
		added++
	}
	return added, nil
}
