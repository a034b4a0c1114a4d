// Package session manages the chat session identifier.
package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/malonaz/shopchat/internal/debug"
)

// Creator creates sessions on the backend.
type Creator interface {
	CreateSession(ctx context.Context, userID *int64) (string, error)
}

// Storage persists the session id.
type Storage interface {
	SessionID() (string, bool)
	SetSessionID(id string)
	RemoveSessionID()
}

// Identity resolves the authenticated user, if any.
type Identity interface {
	UserID() (int64, bool)
}

// Manager hands out the current session id, creating one on first use.
type Manager struct {
	mu       sync.Mutex
	creator  Creator
	storage  Storage
	identity Identity
}

// NewManager returns a session manager. identity may be nil for anonymous use.
func NewManager(creator Creator, storage Storage, identity Identity) *Manager {
	return &Manager{
		creator:  creator,
		storage:  storage,
		identity: identity,
	}
}

// GetOrCreate returns the cached session id, or creates and persists a new one.
// Concurrent callers share a single creation.
func (m *Manager) GetOrCreate(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.storage.SessionID(); ok {
		return id, nil
	}

	var userID *int64
	if m.identity != nil {
		if id, ok := m.identity.UserID(); ok {
			userID = &id
		}
	}
	id, err := m.creator.CreateSession(ctx, userID)
	if err != nil {
		return "", errors.Wrap(err, "creating session")
	}
	if id == "" {
		return "", errors.New("backend returned an empty session id")
	}
	m.storage.SetSessionID(id)
	debug.GetLogger().WithField("session_id", id).Info("session created")
	return id, nil
}

// Current returns the cached session id without creating one.
func (m *Manager) Current() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storage.SessionID()
}

// Adopt stores a server-assigned id when none is cached. It reports whether the id was taken.
func (m *Manager) Adopt(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		return false
	}
	if _, ok := m.storage.SessionID(); ok {
		return false
	}
	m.storage.SetSessionID(id)
	return true
}

// Clear forgets the session id.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storage.RemoveSessionID()
}
