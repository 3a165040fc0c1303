package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SessionStore holds the opaque session token the backend hands out as a
// cookie. The client reads it before each request and updates it from
// Set-Cookie responses.
type SessionStore interface {
	Token() string
	SetToken(token string)
	Clear()
}

// MemorySession keeps the token for the lifetime of the process.
type MemorySession struct {
	mu    sync.Mutex
	token string
}

func NewMemorySession() *MemorySession { return &MemorySession{} }

func (s *MemorySession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *MemorySession) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *MemorySession) Clear() { s.SetToken("") }

// FileSession persists the token so separate CLI invocations share a login.
type FileSession struct {
	mu    sync.Mutex
	path  string
	token string
	err   error
}

// NewFileSession loads any token already stored at path.
func NewFileSession(path string) (*FileSession, error) {
	s := &FileSession{path: path}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		s.token = strings.TrimSpace(string(data))
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return s, nil
}

func (s *FileSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *FileSession) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.err = s.persist()
}

func (s *FileSession) Clear() { s.SetToken("") }

// Err reports the last failure to write the session file, if any.
func (s *FileSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *FileSession) persist() error {
	if s.token == "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(s.token+"\n"), 0o600)
}
