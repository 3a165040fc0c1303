package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/user/bmvault/internal/db"
	"github.com/user/bmvault/internal/models"
)

// ErrNoSession is returned by Resolve for unknown or expired tokens.
var ErrNoSession = errors.New("no session")

// Backend persists sessions. db.Store satisfies it, and so does RedisBackend.
type Backend interface {
	SaveSession(ctx context.Context, s models.Session) error
	LoadSession(ctx context.Context, token string) (models.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type Manager struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
}

func NewManager(backend Backend, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{backend: backend, ttl: ttl, now: time.Now}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Start opens a session for userID under a fresh random token.
func (m *Manager) Start(ctx context.Context, userID int64) (models.Session, error) {
	s := models.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: m.now().Add(m.ttl),
	}
	if err := m.backend.SaveSession(ctx, s); err != nil {
		return models.Session{}, err
	}
	return s, nil
}

// Resolve returns the live session for token. Expired sessions are removed.
func (m *Manager) Resolve(ctx context.Context, token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, ErrNoSession
	}
	s, err := m.backend.LoadSession(ctx, token)
	if errors.Is(err, db.ErrNotFound) {
		return models.Session{}, ErrNoSession
	}
	if err != nil {
		return models.Session{}, err
	}
	if s.Expired(m.now()) {
		_ = m.backend.DeleteSession(ctx, token)
		return models.Session{}, ErrNoSession
	}
	return s, nil
}

func (m *Manager) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.backend.DeleteSession(ctx, token)
}
