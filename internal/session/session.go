package session

import (
	"context"
	"strings"
	"sync"

	"github.com/user/bmvault/internal/api"
	"github.com/user/bmvault/internal/models"
)

// AuthAPI is the slice of the API client the controller needs.
type AuthAPI interface {
	Register(ctx context.Context, creds models.Credentials) error
	Login(ctx context.Context, creds models.Credentials) (*models.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
}

type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Controller tracks who is logged in. Errors are returned to the caller and
// never kept as state.
type Controller struct {
	api   AuthAPI
	clear func()

	mu   sync.RWMutex
	user *models.User
}

// New builds a controller. clearToken, when non-nil, drops the locally
// stored session token on logout.
func New(client AuthAPI, clearToken func()) *Controller {
	return &Controller{api: client, clear: clearToken}
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user != nil {
		return Authenticated
	}
	return Anonymous
}

// User returns a copy of the authenticated user, or nil.
func (c *Controller) User() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

func (c *Controller) Register(ctx context.Context, username, password string) error {
	creds, err := credentials(username, password)
	if err != nil {
		return err
	}
	return c.api.Register(ctx, creds)
}

// Login authenticates and then confirms the session with an identity probe.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	creds, err := credentials(username, password)
	if err != nil {
		return err
	}
	loggedIn, err := c.api.Login(ctx, creds)
	if err != nil {
		c.setUser(nil)
		return err
	}

	user, err := c.api.Me(ctx)
	if err != nil {
		c.setUser(nil)
		return err
	}
	if user == nil {
		user = loggedIn
	}
	if user == nil {
		c.setUser(nil)
		return &api.Error{Kind: api.KindAuth, Message: "login did not establish a session"}
	}
	c.setUser(user)
	return nil
}

// Logout always ends the local session. The backend error, if any, is
// returned for display only.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.api.Logout(ctx)
	c.setUser(nil)
	if c.clear != nil {
		c.clear()
	}
	return err
}

// CurrentUser probes the backend for an existing session. It returns nil, nil
// when there is none.
func (c *Controller) CurrentUser(ctx context.Context) (*models.User, error) {
	user, err := c.api.Me(ctx)
	if err != nil {
		c.setUser(nil)
		return nil, err
	}
	c.setUser(user)
	return c.User(), nil
}

func (c *Controller) setUser(u *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u == nil {
		c.user = nil
		return
	}
	cp := *u
	c.user = &cp
}

func credentials(username, password string) (models.Credentials, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Credentials{}, api.NewValidationError("username and password required")
	}
	return models.Credentials{Username: username, Password: password}, nil
}
