package bookmarks

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/bmvault/internal/api"
	"github.com/user/bmvault/internal/models"
)

// fakeAPI mimics the backend's search and ordering over an in-memory set.
type fakeAPI struct {
	mu      sync.Mutex
	items   []models.Bookmark
	nextID  int64
	entered chan struct{}
	block   chan struct{}
	listErr error
	dupes   bool
}

func (f *fakeAPI) ListBookmarks(ctx context.Context, query string) ([]models.Bookmark, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	q := strings.ToLower(query)
	var out []models.Bookmark
	for _, b := range f.items {
		hay := strings.ToLower(b.Title + " " + b.URL + " " + b.Tags + " " + b.Note)
		if q == "" || strings.Contains(hay, q) {
			out = append(out, b)
			if f.dupes {
				out = append(out, b)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsFavorite != out[j].IsFavorite {
			return bool(out[i].IsFavorite)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeAPI) CreateBookmark(ctx context.Context, in models.BookmarkInput) (*models.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	b := models.Bookmark{ID: f.nextID, Title: in.Title, URL: in.URL, Tags: in.Tags, Note: in.Note}
	f.items = append(f.items, b)
	return &b, nil
}

func (f *fakeAPI) UpdateBookmark(ctx context.Context, id int64, in models.BookmarkInput) (*models.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Title, f.items[i].URL, f.items[i].Tags, f.items[i].Note = in.Title, in.URL, in.Tags, in.Note
			b := f.items[i]
			return &b, nil
		}
	}
	return nil, &api.Error{Kind: api.KindNotFound, Status: 404, Message: "not found"}
}

func (f *fakeAPI) DeleteBookmark(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return &api.Error{Kind: api.KindNotFound, Status: 404, Message: "not found"}
}

func (f *fakeAPI) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].IsFavorite = !f.items[i].IsFavorite
			return bool(f.items[i].IsFavorite), nil
		}
	}
	return false, &api.Error{Kind: api.KindNotFound, Status: 404, Message: "not found"}
}

func seeded() *fakeAPI {
	f := &fakeAPI{}
	for _, in := range []models.BookmarkInput{
		{Title: "GitHub", URL: "https://github.com", Tags: "code, git"},
		{Title: "MDN Web Docs", URL: "https://developer.mozilla.org", Tags: "docs, web"},
		{Title: "YouTube", URL: "https://youtube.com", Tags: "video"},
	} {
		_, _ = f.CreateBookmark(context.Background(), in)
	}
	return f
}

func TestLoadReplacesAndDedupes(t *testing.T) {
	f := seeded()
	f.dupes = true
	c := NewController(f)

	items, err := c.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3 unique", len(items))
	}
	seen := map[int64]bool{}
	for _, b := range c.Items() {
		if seen[b.ID] {
			t.Fatalf("duplicate id %d in working set", b.ID)
		}
		seen[b.ID] = true
	}

	if _, err := c.Load(context.Background(), "docs"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 1 || c.Query() != "docs" {
		t.Errorf("len=%d query=%q, want 1 and docs", c.Len(), c.Query())
	}
}

func TestLoadErrorKeepsSet(t *testing.T) {
	f := seeded()
	c := NewController(f)
	if _, err := c.Load(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	f.listErr = &api.Error{Kind: api.KindAuth, Status: 401, Message: "not logged in"}
	if _, err := c.Load(context.Background(), "git"); !api.IsKind(err, api.KindAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if c.Len() != 3 || c.Query() != "" {
		t.Errorf("failed load changed state: len=%d query=%q", c.Len(), c.Query())
	}
}

func TestCreateReloadsWithActiveQuery(t *testing.T) {
	f := seeded()
	c := NewController(f)
	ctx := context.Background()

	if _, err := c.Load(ctx, "example"); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty result, got %d", c.Len())
	}

	if err := c.Create(ctx, models.BookmarkInput{Title: "Example", URL: "https://example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	items := c.Items()
	if len(items) != 1 || items[0].Title != "Example" {
		t.Fatalf("expected Example in list, got %+v", items)
	}
	if c.Query() != "example" {
		t.Errorf("active query changed to %q", c.Query())
	}
}

func TestCreateValidatesLocally(t *testing.T) {
	f := seeded()
	c := NewController(f)

	err := c.Create(context.Background(), models.BookmarkInput{Title: "  ", URL: "https://x.test"})
	if !api.IsKind(err, api.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.items) != 3 {
		t.Error("invalid input reached the backend")
	}
}

func TestUpdateReloads(t *testing.T) {
	f := seeded()
	c := NewController(f)
	ctx := context.Background()
	if _, err := c.Load(ctx, ""); err != nil {
		t.Fatal(err)
	}

	if err := c.Update(ctx, 1, models.BookmarkInput{Title: "GitHub Home", URL: "https://github.com"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	b, ok := c.Find(1)
	if !ok || b.Title != "GitHub Home" {
		t.Errorf("expected updated title, got %+v", b)
	}
}

func TestRemove(t *testing.T) {
	f := seeded()
	c := NewController(f)
	ctx := context.Background()
	if _, err := c.Load(ctx, ""); err != nil {
		t.Fatal(err)
	}

	if err := c.Remove(ctx, 2, ConfirmFunc(func(models.Bookmark) bool { return false })); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if err := c.Remove(ctx, 2, nil); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("nil confirmer: expected ErrNotConfirmed, got %v", err)
	}
	if c.Len() != 3 {
		t.Fatal("declined removal changed the set")
	}

	var asked models.Bookmark
	confirm := ConfirmFunc(func(b models.Bookmark) bool { asked = b; return true })
	if err := c.Remove(ctx, 2, confirm); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if asked.Title != "MDN Web Docs" {
		t.Errorf("confirmer saw %+v", asked)
	}
	if _, ok := c.Find(2); ok || c.Len() != 2 {
		t.Error("removed bookmark still present")
	}
}

func TestRemoveUnknownLeavesSetUnchanged(t *testing.T) {
	f := seeded()
	c := NewController(f)
	ctx := context.Background()
	if _, err := c.Load(ctx, ""); err != nil {
		t.Fatal(err)
	}
	before := c.Items()

	err := c.Remove(ctx, 999, AlwaysConfirm)
	if !api.IsKind(err, api.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	after := c.Items()
	if len(after) != len(before) {
		t.Fatalf("set changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID {
			t.Errorf("item %d changed: %d -> %d", i, before[i].ID, after[i].ID)
		}
	}
}

func TestToggleFavoriteTwiceRestores(t *testing.T) {
	f := seeded()
	c := NewController(f)
	ctx := context.Background()
	if _, err := c.Load(ctx, ""); err != nil {
		t.Fatal(err)
	}
	orig, _ := c.Find(3)

	fav, err := c.ToggleFavorite(ctx, 3)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if fav == bool(orig.IsFavorite) {
		t.Error("first toggle did not flip")
	}
	if b, _ := c.Find(3); bool(b.IsFavorite) != fav {
		t.Error("working set not updated with server value")
	}
	if other, _ := c.Find(1); other.IsFavorite {
		t.Error("toggle touched another record")
	}

	if _, err := c.ToggleFavorite(ctx, 3); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if b, _ := c.Find(3); b.IsFavorite != orig.IsFavorite {
		t.Error("double toggle did not restore the flag")
	}

	if _, err := c.ToggleFavorite(ctx, 42); !api.IsKind(err, api.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUnmountDiscardsPendingLoad(t *testing.T) {
	f := seeded()
	f.entered = make(chan struct{})
	f.block = make(chan struct{})
	c := NewController(f)

	done := make(chan error, 1)
	go func() {
		_, err := c.Load(context.Background(), "")
		done <- err
	}()

	<-f.entered
	c.Unmount()
	close(f.block)

	select {
	case err := <-done:
		if !errors.Is(err, ErrUnmounted) {
			t.Fatalf("expected ErrUnmounted, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("load did not return")
	}
	if c.Len() != 0 {
		t.Errorf("unmounted load applied %d items", c.Len())
	}

	f.entered = nil
	f.block = nil
	c.Mount()
	if _, err := c.Load(context.Background(), ""); err != nil {
		t.Fatalf("load after mount: %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("len = %d, want 3", c.Len())
	}
}

func TestCreateSavedDespiteFailedReload(t *testing.T) {
	f := seeded()
	c := NewController(f)
	ctx := context.Background()
	if _, err := c.Load(ctx, ""); err != nil {
		t.Fatal(err)
	}

	f.listErr = &api.Error{Kind: api.KindNetwork, Message: "network down"}
	err := c.Create(ctx, models.BookmarkInput{Title: "X", URL: "https://x.com"})
	if !errors.Is(err, ErrListStale) {
		t.Fatalf("expected ErrListStale, got %v", err)
	}
	if !api.IsKind(err, api.KindNetwork) {
		t.Errorf("reload cause lost: %v", err)
	}
	if len(f.items) != 4 {
		t.Errorf("backend has %d items, want 4", len(f.items))
	}
	if c.Len() != 3 {
		t.Errorf("failed reload changed the set: len=%d", c.Len())
	}

	err = c.Update(ctx, 1, models.BookmarkInput{Title: "GitHub Home", URL: "https://github.com"})
	if !errors.Is(err, ErrListStale) {
		t.Fatalf("expected ErrListStale from update, got %v", err)
	}
}

func TestLoadWhileUnmounted(t *testing.T) {
	f := seeded()
	c := NewController(f)
	ctx := context.Background()
	c.Unmount()

	if _, err := c.Load(ctx, ""); !errors.Is(err, ErrUnmounted) {
		t.Fatalf("expected ErrUnmounted, got %v", err)
	}

	// the backend accepts the create but the reload must not touch the set
	err := c.Create(ctx, models.BookmarkInput{Title: "X", URL: "https://x.com"})
	if !errors.Is(err, ErrListStale) || !errors.Is(err, ErrUnmounted) {
		t.Fatalf("expected stale+unmounted, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("unmounted reload applied %d items", c.Len())
	}

	c.Mount()
	if _, err := c.Load(ctx, ""); err != nil || c.Len() != 4 {
		t.Errorf("load after mount: len=%d err=%v", c.Len(), err)
	}
}
