package storage

import (
	"context"
	"fmt"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds store initialization parameters.
type Config struct {
	Backend string      `json:"backend,omitempty" env:"BACKEND"`
	Path    string      `json:"path,omitempty" env:"PATH"` // File root directory or SQLite database file.
	Retry   RetryConfig `json:"retry,omitempty" envPrefix:"RETRY_"`
}

// DefaultConfig returns the default store configuration (in-memory, no retry).
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Retry:   DefaultRetryConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	c.Retry.Merge(&source.Retry)
}

// NewStore creates a Store from configuration, wrapped with retries when
// configured. Backends that hold resources (SQLite) implement io.Closer.
func NewStore(ctx context.Context, cfg *Config) (Store, error) {
	var store Store

	switch cfg.Backend {
	case "", BackendMemory:
		store = NewMemoryStore()
	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file store requires a path")
		}
		store = NewFileStore(cfg.Path)
	case BackendSQLite:
		db, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		store = db
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, cfg.Backend)
	}

	return WithRetry(store, cfg.Retry), nil
}
