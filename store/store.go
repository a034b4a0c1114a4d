// Package store keeps the chat log and session id on a durable medium.
package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/malonaz/shopchat/internal/debug"
	"github.com/malonaz/shopchat/internal/kv"
	"github.com/malonaz/shopchat/model"
)

// Keys used on the medium.
const (
	SessionKey = "chatbot_session_id"
	HistoryKey = "chatbot_history"
)

// Option configures a store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is the local history store.
// Storage failures never surface to callers: they are logged and the store
// keeps serving an in-memory view until the medium recovers.
type Store struct {
	mu     sync.Mutex
	medium kv.Medium
	now    func() time.Time
	log    *logrus.Logger

	// Last known state, served while the medium is failing.
	history   *model.History
	sessionID string
	degraded  bool
	// Set while the in-memory value of a key is newer than the medium's.
	historyDirty bool
	sessionDirty bool
}

// New returns a store persisting to medium.
func New(medium kv.Medium, opts ...Option) *Store {
	s := &Store{
		medium: medium,
		now:    time.Now,
		log:    debug.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Degraded reports whether the last storage operation failed or a key
// still holds a value the medium has not taken.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Load returns the persisted history, or an empty one when nothing usable is stored.
func (s *Store) Load() *model.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().Clone()
}

// Append adds a message at the end of the history and persists it.
// The returned value is the message as stored.
func (s *Store) Append(message model.Message) model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.load()
	stored := message.Clone()
	if stored.LocalID == "" {
		stored.LocalID = model.NewLocalID()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	if n := len(history.Messages); n > 0 {
		if previous := history.Messages[n-1].CreatedAt; stored.CreatedAt.Before(previous) {
			stored.CreatedAt = previous
		}
	}
	if history.SessionID == "" {
		history.SessionID = s.sessionIDLocked()
	}
	history.Messages = append(history.Messages, stored)
	history.LastUpdated = s.now()
	s.history = history
	s.historyDirty = !s.writeHistory(history)
	return stored.Clone()
}

// Clear removes the history and the session id.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = model.NewHistory("", s.now())
	s.sessionID = ""
	s.historyDirty = !s.removeItem(HistoryKey)
	s.sessionDirty = !s.removeItem(SessionKey)
	s.degraded = s.historyDirty || s.sessionDirty
}

// SessionID returns the stored session id.
func (s *Store) SessionID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.sessionIDLocked()
	return id, id != ""
}

// SetSessionID stores the session id.
func (s *Store) SetSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionID = id
	if s.history != nil && s.history.SessionID == "" {
		s.history.SessionID = id
	}
	s.sessionDirty = !s.setItem(SessionKey, id)
}

// RemoveSessionID forgets the session id.
func (s *Store) RemoveSessionID() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionID = ""
	s.sessionDirty = !s.removeItem(SessionKey)
}

func (s *Store) sessionIDLocked() string {
	if s.sessionDirty {
		return s.sessionID
	}
	value, found, err := s.medium.GetItem(SessionKey)
	if err != nil {
		s.log.WithError(err).WithField("key", SessionKey).Warn("reading item")
		s.degraded = true
		return s.sessionID
	}
	if !found {
		value = ""
	}
	s.sessionID = value
	return value
}

// load returns the current history. The caller owns the returned value.
func (s *Store) load() *model.History {
	// A history the medium failed to take stays authoritative until a write succeeds.
	if s.historyDirty && s.history != nil {
		return s.history.Clone()
	}
	history, err := s.readHistory()
	if err != nil {
		s.log.WithError(err).WithField("key", HistoryKey).Warn("loading history")
		if s.history != nil {
			return s.history.Clone()
		}
		history = nil
	}
	if history == nil {
		history = model.NewHistory(s.sessionIDLocked(), s.now())
	}
	s.history = history.Clone()
	return history
}

// readHistory returns nil when nothing is stored or the stored value is corrupt.
func (s *Store) readHistory() (*model.History, error) {
	value, found, err := s.medium.GetItem(HistoryKey)
	if err != nil {
		s.degraded = true
		return nil, errors.Wrap(err, "reading history")
	}
	if !found {
		return nil, nil
	}
	history := &model.History{}
	if err := json.Unmarshal([]byte(value), history); err != nil {
		s.log.WithError(err).Warn("discarding corrupt history")
		return nil, nil
	}
	if history.Messages == nil {
		history.Messages = []model.Message{}
	}
	return history, nil
}

// writeHistory reports whether the medium took the history.
func (s *Store) writeHistory(history *model.History) bool {
	bytes, err := json.Marshal(history)
	if err != nil {
		s.log.WithError(err).Error("marshaling history")
		return false
	}
	return s.setItem(HistoryKey, string(bytes))
}

func (s *Store) setItem(key, value string) bool {
	if err := s.medium.SetItem(key, value); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("writing item")
		s.degraded = true
		return false
	}
	s.degraded = s.dirtyBesides(key)
	return true
}

func (s *Store) removeItem(key string) bool {
	if err := s.medium.RemoveItem(key); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("removing item")
		s.degraded = true
		return false
	}
	s.degraded = s.dirtyBesides(key)
	return true
}

// dirtyBesides reports whether a key other than key still waits on the medium.
func (s *Store) dirtyBesides(key string) bool {
	return (s.historyDirty && key != HistoryKey) || (s.sessionDirty && key != SessionKey)
}
