// Package credentials holds the platform-specific ways a bearer token and the
// signed-in user profile are persisted between runs.
package credentials

import (
	"context"
	"errors"
	"sync"

	"webomat/internal/models"
)

// Keys under which the token and the serialized profile are persisted.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var ErrCorrupted = errors.New("credentials: stored data is corrupted or the passphrase is wrong")

// Store persists the bearer token and the signed-in user. Implementations must
// return an empty token and a nil user, not an error, when nothing is stored.
type Store interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	User(ctx context.Context) (*models.User, error)
	SetUser(ctx context.Context, user *models.User) error
	Clear(ctx context.Context) error
}

// Noop never stores anything. It is used by non-interactive hosts.
type Noop struct{}

func (Noop) Token(context.Context) (string, error) { return "", nil }
func (Noop) SetToken(context.Context, string) error { return nil }
func (Noop) User(context.Context) (*models.User, error) { return nil, nil }
func (Noop) SetUser(context.Context, *models.User) error { return nil }
func (Noop) Clear(context.Context) error { return nil }

// Memory keeps credentials for the lifetime of the process.
type Memory struct {
	mu    sync.RWMutex
	token string
	user  *models.User
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Token(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Memory) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) User(context.Context) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil, nil
	}
	u := *m.user
	return &u, nil
}

func (m *Memory) SetUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user == nil {
		m.user = nil
		return nil
	}
	u := *user
	m.user = &u
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()
	return nil
}
