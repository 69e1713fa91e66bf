package storage

import (
	"context"
	"slices"

	cmap "github.com/orcaman/concurrent-map/v2"
)

type memoryStore struct {
	items cmap.ConcurrentMap[string, Item]
}

// NewMemoryStore creates a Store held in process memory. Values are copied on
// the way in and out so callers never share backing arrays with the store.
// Contents are lost when the process exits.
func NewMemoryStore() Store {
	return &memoryStore{items: cmap.New[Item]()}
}

func (s *memoryStore) Read(ctx context.Context, keys ...string) (map[string]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make(map[string]Item, len(keys))
	for _, key := range keys {
		if item, ok := s.items.Get(key); ok {
			items[key] = Item{Value: slices.Clone(item.Value), ETag: item.ETag}
		}
	}
	return items, nil
}

func (s *memoryStore) Write(ctx context.Context, changes map[string]Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for key, change := range changes {
		if key == "" {
			return ErrInvalidKey
		}

		var conflict *ConflictError
		s.items.Upsert(key, change, func(exists bool, current, next Item) Item {
			if exists && !next.Unconditional() && next.ETag != current.ETag {
				conflict = &ConflictError{Key: key, ExpectedETag: next.ETag, CurrentETag: current.ETag}
				return current
			}
			return Item{Value: slices.Clone(next.Value), ETag: newETag()}
		})
		if conflict != nil {
			return conflict
		}
	}
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, key := range keys {
		s.items.Remove(key)
	}
	return nil
}
