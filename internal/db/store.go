package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/bmvault/internal/models"
)

// ErrNotFound indicates a record does not exist (or belongs to another user).
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// Store is the backend persistence layer. Every bookmark operation is scoped
// to the owning user.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (models.User, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	FindUserByID(ctx context.Context, id int64) (models.User, error)

	ListBookmarks(ctx context.Context, userID int64, query string) ([]models.Bookmark, error)
	CreateBookmark(ctx context.Context, userID int64, in models.BookmarkInput) (models.Bookmark, error)
	UpdateBookmark(ctx context.Context, userID, id int64, in models.BookmarkInput) (models.Bookmark, error)
	DeleteBookmark(ctx context.Context, userID, id int64) error
	ToggleFavorite(ctx context.Context, userID, id int64) (bool, error)
	CountBookmarks(ctx context.Context, userID int64) (int, error)

	SaveSession(ctx context.Context, s models.Session) error
	LoadSession(ctx context.Context, token string) (models.Session, error)
	DeleteSession(ctx context.Context, token string) error

	Ping(ctx context.Context) error
	Close() error
}

// Open picks the backend from the URL scheme: sqlite:///path or postgres://...
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "sqlite:///"):
		return NewSQLiteStore(strings.TrimPrefix(url, "sqlite:///"))
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgresStore(ctx, url)
	default:
		return nil, fmt.Errorf("unsupported database url %q", url)
	}
}

// likePattern turns a search term into a substring pattern with LIKE
// wildcards escaped by backslash.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}
