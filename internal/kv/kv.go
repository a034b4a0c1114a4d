// Package kv provides durable key/value media for the chat cache.
package kv

import (
	"github.com/pkg/errors"

	"github.com/malonaz/shopchat/internal/configuration"
)

var (
	// ErrQuotaExceeded is returned when a medium has no room left for a write.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrDisabled is returned by a medium that refuses all operations.
	ErrDisabled = errors.New("storage disabled")
)

// Medium is a string key/value store that survives restarts.
type Medium interface {
	// GetItem returns the value stored under key, and whether it exists.
	GetItem(key string) (string, bool, error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error
	// Close releases the medium.
	Close() error
}

// Open the medium described by the configuration.
func Open(config *configuration.StorageConfig) (Medium, error) {
	switch config.Driver {
	case "", "sqlite":
		return OpenSQLite(config.Path)
	case "postgres":
		return OpenPostgres(config.DSN, config.Namespace)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", config.Driver)
	}
}
