package state

import (
	"context"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/turnstate/observability"
	"github.com/tailored-agentic-units/turnstate/storage"
	"github.com/tailored-agentic-units/turnstate/turn"
)

// KeyFunc derives the storage key for a turn. It must be pure: deriving the
// key twice for the same turn yields the same string.
type KeyFunc func(tc *turn.Context) (string, error)

// Option configures a Container.
type Option[T any] func(*Container[T])

// WithSettings replaces the default Settings.
func WithSettings[T any](s Settings) Option[T] {
	return func(c *Container[T]) { c.settings = s }
}

// WithDefault sets the factory used when no state is stored for a key and
// when Write is given nil. The default factory is new(T).
func WithDefault[T any](fn func() *T) Option[T] {
	return func(c *Container[T]) {
		if fn != nil {
			c.newState = fn
		}
	}
}

// WithCodec replaces JSONCodec.
func WithCodec[T any](codec Codec) Option[T] {
	return func(c *Container[T]) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithObserver sets the observer that receives state lifecycle events.
func WithObserver[T any](o observability.Observer) Option[T] {
	return func(c *Container[T]) {
		if o != nil {
			c.observer = o
		}
	}
}

// Container reads and writes one kind of typed state through a store and
// publishes it into the turn's service registry under its name.
type Container[T any] struct {
	store    storage.Store
	name     string
	key      KeyFunc
	settings Settings
	codec    Codec
	newState func() *T
	observer observability.Observer
}

// New creates a Container. Store, name and key are required; a missing one
// fails with ErrInvalidArgument.
func New[T any](store storage.Store, name string, key KeyFunc, opts ...Option[T]) (*Container[T], error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidArgument)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: property name is required", ErrInvalidArgument)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: key function is required", ErrInvalidArgument)
	}

	c := &Container[T]{
		store:    store,
		name:     name,
		key:      key,
		settings: DefaultSettings(),
		codec:    JSONCodec{},
		newState: func() *T { return new(T) },
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the registry slot the container publishes state under.
func (c *Container[T]) Name() string {
	return c.name
}

// Settings returns the container's persistence settings.
func (c *Container[T]) Settings() Settings {
	return c.settings
}

// Key derives the storage key for tc.
func (c *Container[T]) Key(tc *turn.Context) (string, error) {
	return c.key(tc)
}

// Read returns the state stored for tc's key, or a default instance when
// nothing is stored. Store errors are returned unchanged.
func (c *Container[T]) Read(ctx context.Context, tc *turn.Context) (*T, error) {
	key, err := c.key(tc)
	if err != nil {
		return nil, err
	}

	items, err := c.store.Read(ctx, key)
	if err != nil {
		return nil, err
	}

	st := c.newState()
	item, ok := items[key]
	if !ok {
		return st, nil
	}

	if err := c.codec.Unmarshal(item.Value, st); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, key, err)
	}
	if v, ok := any(st).(storage.Versioned); ok {
		v.SetETag(item.ETag)
	}
	return st, nil
}

// Write persists st under tc's key. A nil st is replaced with a default
// instance, so absence is never persisted. Store errors are returned
// unchanged and are not retried.
func (c *Container[T]) Write(ctx context.Context, tc *turn.Context, st *T) error {
	if st == nil {
		st = c.newState()
	}

	key, err := c.key(tc)
	if err != nil {
		return err
	}

	var etag string
	if v, ok := any(st).(storage.Versioned); ok {
		if c.settings.LastWriterWins {
			v.SetETag(storage.AnyETag)
		}
		etag = v.ETag()
	}

	data, err := c.codec.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncode, key, err)
	}

	return c.store.Write(ctx, map[string]storage.Item{
		key: {Value: data, ETag: etag},
	})
}

// Delete removes the stored state for tc's key and clears the registry slot.
func (c *Container[T]) Delete(ctx context.Context, tc *turn.Context) error {
	key, err := c.key(tc)
	if err != nil {
		return err
	}
	if err := c.store.Delete(ctx, key); err != nil {
		return err
	}
	tc.Services().Remove(c.name)

	c.emit(ctx, EventDelete, observability.LevelVerbose, map[string]any{"key": key})
	return nil
}

// OnTurn loads state into the registry, runs next, then persists the
// registry slot. When next fails its error is returned unchanged and nothing
// is written.
func (c *Container[T]) OnTurn(ctx context.Context, tc *turn.Context, next turn.NextFunc) error {
	if err := c.load(ctx, tc); err != nil {
		return err
	}

	if err := next(ctx); err != nil {
		c.emit(ctx, EventSkip, observability.LevelWarning, map[string]any{"error": err.Error()})
		return err
	}

	return c.save(ctx, tc)
}

func (c *Container[T]) load(ctx context.Context, tc *turn.Context) error {
	started := time.Now()

	st, err := c.Read(ctx, tc)
	if err != nil {
		return err
	}
	tc.Services().Add(c.name, st)

	c.emit(ctx, EventLoad, observability.LevelVerbose, map[string]any{
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return nil
}

func (c *Container[T]) save(ctx context.Context, tc *turn.Context) error {
	started := time.Now()

	st, err := turn.Service[*T](tc, c.name)
	if err != nil {
		return err
	}
	if err := c.Write(ctx, tc, st); err != nil {
		return err
	}

	c.emit(ctx, EventSave, observability.LevelVerbose, map[string]any{
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return nil
}

func (c *Container[T]) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["property"] = c.name

	c.observer.OnEvent(ctx, observability.Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "state.Container",
		Data:      data,
	})
}
