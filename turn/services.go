package turn

import (
	"fmt"
	"sort"
)

// Services is the per-turn registry that pipeline stages use to hand mutable
// objects to each other by name. It lives for exactly one turn and is not
// safe for concurrent use.
type Services struct {
	items map[string]any
}

func newServices() *Services {
	return &Services{items: make(map[string]any)}
}

// Add stores value under name, replacing any previous value.
func (s *Services) Add(name string, value any) {
	s.items[name] = value
}

// Get returns the value stored under name.
func (s *Services) Get(name string) (any, bool) {
	v, ok := s.items[name]
	return v, ok
}

// Remove deletes the value stored under name. Missing names are ignored.
func (s *Services) Remove(name string) {
	delete(s.items, name)
}

// Has reports whether a value is stored under name.
func (s *Services) Has(name string) bool {
	_, ok := s.items[name]
	return ok
}

// Names returns the registered names in sorted order.
func (s *Services) Names() []string {
	names := make([]string, 0, len(s.items))
	for name := range s.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Service returns the value registered under name in tc as a T. It fails with
// ErrServiceNotFound when the slot is empty and ErrServiceType when the slot
// holds a value of another type.
func Service[T any](tc *Context, name string) (T, error) {
	var zero T

	v, ok := tc.Services().Get(name)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T, want %T", ErrServiceType, name, v, zero)
	}
	return typed, nil
}
