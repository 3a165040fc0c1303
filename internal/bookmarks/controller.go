package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/user/bmvault/internal/api"
	"github.com/user/bmvault/internal/models"
)

var (
	// ErrNotConfirmed is returned by Remove when the user declined.
	ErrNotConfirmed = errors.New("deletion not confirmed")
	// ErrUnmounted is returned by Load when the view is gone or went away
	// mid-request.
	ErrUnmounted = errors.New("bookmark list unmounted")
	// ErrListStale wraps a failed reload after the backend already accepted a
	// create or update. The change is saved; only the working set is old.
	ErrListStale = errors.New("saved, but the list could not be refreshed")
)

type BookmarkAPI interface {
	ListBookmarks(ctx context.Context, query string) ([]models.Bookmark, error)
	CreateBookmark(ctx context.Context, in models.BookmarkInput) (*models.Bookmark, error)
	UpdateBookmark(ctx context.Context, id int64, in models.BookmarkInput) (*models.Bookmark, error)
	DeleteBookmark(ctx context.Context, id int64) error
	ToggleFavorite(ctx context.Context, id int64) (bool, error)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(b models.Bookmark) bool
}

type ConfirmFunc func(b models.Bookmark) bool

func (f ConfirmFunc) Confirm(b models.Bookmark) bool { return f(b) }

// AlwaysConfirm approves every deletion.
var AlwaysConfirm Confirmer = ConfirmFunc(func(models.Bookmark) bool { return true })

// Controller owns the working set shown by a bookmark list view.
type Controller struct {
	api BookmarkAPI

	mu         sync.Mutex
	items      []models.Bookmark
	query      string
	generation uint64
	mounted    bool
}

// NewController returns a mounted controller.
func NewController(client BookmarkAPI) *Controller {
	return &Controller{api: client, mounted: true}
}

// Load replaces the working set with the server's result for query and makes
// query the active one. Loads started while unmounted, and results arriving
// after Unmount, are dropped with ErrUnmounted.
func (c *Controller) Load(ctx context.Context, query string) ([]models.Bookmark, error) {
	c.mu.Lock()
	gen, mounted := c.generation, c.mounted
	c.mu.Unlock()
	if !mounted {
		return nil, ErrUnmounted
	}

	items, err := c.api.ListBookmarks(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return nil, ErrUnmounted
	}
	if err != nil {
		return nil, err
	}
	c.items = dedupe(items)
	c.query = query
	return c.snapshot(), nil
}

// Create validates locally, then reloads with the active query on success.
func (c *Controller) Create(ctx context.Context, in models.BookmarkInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return api.NewValidationError(err.Error())
	}
	if _, err := c.api.CreateBookmark(ctx, in); err != nil {
		return err
	}
	return c.reload(ctx)
}

// Update edits a bookmark's fields and reloads with the active query.
func (c *Controller) Update(ctx context.Context, id int64, in models.BookmarkInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return api.NewValidationError(err.Error())
	}
	if _, err := c.api.UpdateBookmark(ctx, id, in); err != nil {
		return err
	}
	return c.reload(ctx)
}

// reload refreshes the active query after a saved change.
func (c *Controller) reload(ctx context.Context) error {
	if _, err := c.Load(ctx, c.Query()); err != nil {
		return fmt.Errorf("%w: %w", ErrListStale, err)
	}
	return nil
}

// Remove deletes id after confirm approves it. The working set is only
// touched once the backend agreed.
func (c *Controller) Remove(ctx context.Context, id int64, confirm Confirmer) error {
	target, _ := c.Find(id)
	if target.ID == 0 {
		target.ID = id
	}
	if confirm == nil || !confirm.Confirm(target) {
		return ErrNotConfirmed
	}
	if err := c.api.DeleteBookmark(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0:0]
	for _, b := range c.items {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	c.items = kept
	return nil
}

// ToggleFavorite flips the flag server-side and stores the returned value.
func (c *Controller) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	fav, err := c.api.ToggleFavorite(ctx, id)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].IsFavorite = models.Flag(fav)
			break
		}
	}
	return fav, nil
}

// Mount attaches a view; results of loads started after this are applied.
func (c *Controller) Mount() {
	c.mu.Lock()
	c.generation++
	c.mounted = true
	c.mu.Unlock()
}

// Unmount detaches the view. Loads still in flight are discarded.
func (c *Controller) Unmount() {
	c.mu.Lock()
	c.generation++
	c.mounted = false
	c.mu.Unlock()
}

func (c *Controller) Items() []models.Bookmark {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) Find(id int64) (models.Bookmark, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.items {
		if b.ID == id {
			return b, true
		}
	}
	return models.Bookmark{}, false
}

func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Controller) snapshot() []models.Bookmark {
	out := make([]models.Bookmark, len(c.items))
	copy(out, c.items)
	return out
}

// dedupe keeps the first occurrence of each id, preserving server order.
func dedupe(items []models.Bookmark) []models.Bookmark {
	seen := make(map[int64]struct{}, len(items))
	out := make([]models.Bookmark, 0, len(items))
	for _, b := range items {
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	return out
}
