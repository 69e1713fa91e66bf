// Package storage defines the key-value port that turn state is persisted
// through, along with the backends and decorators that implement it.
//
// Values are opaque bytes; encoding belongs to the caller. Every Item carries an
// ETag used for optimistic concurrency: an empty tag or AnyETag writes
// unconditionally, any other tag must match the stored one.
package storage

import (
	"context"
	"io"
)

// Store reads and writes items keyed by string. Implementations must be safe
// for concurrent use across turns.
type Store interface {
	// Read returns the items stored under keys. Keys with no stored item are
	// omitted from the result; absence is not an error.
	Read(ctx context.Context, keys ...string) (map[string]Item, error)
	// Write persists every change, honoring each item's ETag precondition.
	Write(ctx context.Context, changes map[string]Item) error
	// Delete removes items from storage. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// Close releases resources held by store if it, or the store it decorates,
// implements io.Closer.
func Close(store Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
