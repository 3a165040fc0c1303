package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/bmvault/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL + "/"}), srv
}

func TestDoMapsStatusToKind(t *testing.T) {
	cases := []struct {
		status int
		body   string
		kind   Kind
		msg    string
	}{
		{400, `{"error":"title required"}`, KindValidation, "title required"},
		{401, `{"error":"not logged in"}`, KindAuth, "not logged in"},
		{404, `{"error":"not found"}`, KindNotFound, "not found"},
		{409, `{"error":"username already taken"}`, KindConflict, "username already taken"},
		{500, `{"error":"boom"}`, KindServer, "boom"},
		{502, `<html>bad gateway</html>`, KindServer, "Bad Gateway"},
		{200, `{"error":"soft failure"}`, KindServer, "soft failure"},
	}

	for _, tc := range cases {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		})
		err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		var apiErr *Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: expected *Error, got %T", tc.status, err)
		}
		if apiErr.Kind != tc.kind {
			t.Errorf("status %d: kind = %v, want %v", tc.status, apiErr.Kind, tc.kind)
		}
		if err.Error() != tc.msg {
			t.Errorf("status %d: message = %q, want %q", tc.status, err.Error(), tc.msg)
		}
	}
}

func TestDoNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: url})
	err := c.Do(context.Background(), http.MethodGet, "/api/me", nil, nil)
	if !IsKind(err, KindNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Error("expected wrapped transport error")
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	var seen []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie(DefaultCookieName); err == nil {
			seen = append(seen, ck.Value)
		} else {
			seen = append(seen, "")
		}
		switch r.URL.Path {
		case "/api/login":
			http.SetCookie(w, &http.Cookie{Name: DefaultCookieName, Value: "tok-1", Path: "/", HttpOnly: true})
			_, _ = w.Write([]byte(`{"ok":true,"user":{"id":1,"username":"alice"}}`))
		case "/api/logout":
			http.SetCookie(w, &http.Cookie{Name: DefaultCookieName, Value: "", Path: "/", MaxAge: -1})
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			_, _ = w.Write([]byte(`{"user":null}`))
		}
	})
	ctx := context.Background()

	user, err := c.Login(ctx, models.Credentials{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("unexpected user %+v", user)
	}
	if c.Session().Token() != "tok-1" {
		t.Fatalf("token = %q, want tok-1", c.Session().Token())
	}

	if _, err := c.Me(ctx); err != nil {
		t.Fatalf("me: %v", err)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if c.Session().Token() != "" {
		t.Errorf("token not cleared after logout: %q", c.Session().Token())
	}

	want := []string{"", "tok-1", "tok-1"}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d carried cookie %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestMeNullUser(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user":null}`))
	})
	user, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %+v", user)
	}
}

func TestListBookmarksQueryAndEmpty(t *testing.T) {
	var gotQuery string
	var hasParam bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		_, hasParam = r.URL.Query()["query"]
		_, _ = w.Write([]byte(`{"bookmarks":null}`))
	})
	ctx := context.Background()

	items, err := c.ListBookmarks(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", items)
	}
	if hasParam {
		t.Error("empty query should not send a query parameter")
	}

	if _, err := c.ListBookmarks(ctx, "go & rust"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotQuery != "go & rust" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestBookmarkEndpoints(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "POST /api/bookmarks", "PUT /api/bookmarks/5":
			var in models.BookmarkInput
			_ = json.NewDecoder(r.Body).Decode(&in)
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusCreated)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": 5, "title": in.Title, "url": in.URL, "tags": in.Tags, "note": in.Note,
				"is_favorite": 0, "created_at": "2024-01-02 03:04:05",
			})
		case "PATCH /api/bookmarks/5/favorite":
			_, _ = w.Write([]byte(`{"ok":true,"is_favorite":1}`))
		case "DELETE /api/bookmarks/5":
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}
	})
	ctx := context.Background()
	in := models.BookmarkInput{Title: "Example", URL: "https://example.com", Tags: "demo"}

	created, err := c.CreateBookmark(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 5 || created.Title != "Example" {
		t.Errorf("unexpected created bookmark %+v", created)
	}

	in.Title = "Renamed"
	updated, err := c.UpdateBookmark(ctx, 5, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("title = %q", updated.Title)
	}

	fav, err := c.ToggleFavorite(ctx, 5)
	if err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if !fav {
		t.Error("expected favorite=true from integer 1")
	}

	if err := c.DeleteBookmark(ctx, 5); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.DeleteBookmark(ctx, 6); !IsKind(err, KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestFileSessionPersists(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "bmvault-session")
	defer os.RemoveAll(tmpDir)
	path := filepath.Join(tmpDir, "nested", "session")

	s, err := NewFileSession(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Token() != "" {
		t.Fatalf("expected empty token, got %q", s.Token())
	}
	s.SetToken("abc")
	if s.Err() != nil {
		t.Fatalf("persist: %v", s.Err())
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	reopened, err := NewFileSession(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Token() != "abc" {
		t.Errorf("token = %q, want abc", reopened.Token())
	}

	reopened.Clear()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected session file removed, got %v", err)
	}
}
