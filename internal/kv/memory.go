package kv

import (
	"sync"
)

// MemoryOption configures a memory medium.
type MemoryOption func(*Memory)

// WithQuota limits the total number of bytes (keys and values) the medium holds.
func WithQuota(bytes int) MemoryOption {
	return func(m *Memory) {
		m.quota = bytes
	}
}

// Memory is a process-local medium. It is mostly useful in tests.
type Memory struct {
	mu       sync.Mutex
	items    map[string]string
	quota    int
	disabled bool
}

// NewMemory returns an empty memory medium.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{items: map[string]string{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Disable makes every subsequent operation fail with ErrDisabled.
func (m *Memory) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = true
}

// Enable reverts Disable.
func (m *Memory) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = false
}

// GetItem implements Medium.
func (m *Memory) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled {
		return "", false, ErrDisabled
	}
	value, ok := m.items[key]
	return value, ok, nil
}

// SetItem implements Medium.
func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled {
		return ErrDisabled
	}
	if m.quota > 0 {
		size := len(key) + len(value)
		for k, v := range m.items {
			if k != key {
				size += len(k) + len(v)
			}
		}
		if size > m.quota {
			return ErrQuotaExceeded
		}
	}
	m.items[key] = value
	return nil
}

// RemoveItem implements Medium.
func (m *Memory) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled {
		return ErrDisabled
	}
	delete(m.items, key)
	return nil
}

// Close implements Medium.
func (m *Memory) Close() error {
	return nil
}
