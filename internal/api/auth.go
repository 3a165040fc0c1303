package api

import (
	"context"
	"net/http"

	"github.com/user/bmvault/internal/models"
)

type okResponse struct {
	OK bool `json:"ok"`
}

type loginResponse struct {
	OK   bool         `json:"ok"`
	User *models.User `json:"user"`
}

type meResponse struct {
	User *models.User `json:"user"`
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, creds models.Credentials) error {
	return c.Do(ctx, http.MethodPost, "/api/register", creds, &okResponse{})
}

// Login establishes a session; the cookie is captured into the SessionStore.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	var resp loginResponse
	if err := c.Do(ctx, http.MethodPost, "/api/login", creds, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/api/logout", nil, &okResponse{})
}

// Me returns the user bound to the current session, or nil when there is none.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var resp meResponse
	if err := c.Do(ctx, http.MethodGet, "/api/me", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}
