// Package store provides durable key-value storage for client state.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskdesk/internal/config"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// Store is a small durable key-value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Put sets key to value, replacing any previous value.
	Put(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

// Open returns the store selected by cfg.Store, rooted at cfg.Dir.
func Open(cfg *config.Config) (Store, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	switch strings.ToLower(cfg.Store) {
	case "", config.StoreFile:
		return NewFileStore(cfg.Dir), nil
	case config.StoreSQLite:
		return OpenSQLite(cfg.DatabasePath())
	default:
		return nil, fmt.Errorf("invalid store: %s", cfg.Store)
	}
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("key is required")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid key: %q", key)
	}
	return nil
}
