package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/user/bmvault/internal/models"
)

type listResponse struct {
	Bookmarks []models.Bookmark `json:"bookmarks"`
}

type favoriteResponse struct {
	OK         bool        `json:"ok"`
	IsFavorite models.Flag `json:"is_favorite"`
}

// ListBookmarks fetches the user's bookmarks matching query ("" for all).
func (c *Client) ListBookmarks(ctx context.Context, query string) ([]models.Bookmark, error) {
	path := "/api/bookmarks"
	if query != "" {
		path += "?" + url.Values{"query": {query}}.Encode()
	}
	var resp listResponse
	if err := c.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Bookmarks == nil {
		return []models.Bookmark{}, nil
	}
	return resp.Bookmarks, nil
}

func (c *Client) CreateBookmark(ctx context.Context, in models.BookmarkInput) (*models.Bookmark, error) {
	var created models.Bookmark
	if err := c.Do(ctx, http.MethodPost, "/api/bookmarks", in, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateBookmark(ctx context.Context, id int64, in models.BookmarkInput) (*models.Bookmark, error) {
	var updated models.Bookmark
	if err := c.Do(ctx, http.MethodPut, bookmarkPath(id), in, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteBookmark(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, bookmarkPath(id), nil, &okResponse{})
}

// ToggleFavorite flips the flag server-side and returns its new value.
func (c *Client) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	var resp favoriteResponse
	if err := c.Do(ctx, http.MethodPatch, bookmarkPath(id)+"/favorite", nil, &resp); err != nil {
		return false, err
	}
	return bool(resp.IsFavorite), nil
}

func bookmarkPath(id int64) string {
	return "/api/bookmarks/" + strconv.FormatInt(id, 10)
}
