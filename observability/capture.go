package observability

import (
	"context"
	"slices"
	"sync"
)

// CaptureObserver records events in memory. It is safe for concurrent use
// and is mainly useful in tests and diagnostics.
type CaptureObserver struct {
	mu     sync.Mutex
	events []Event
}

func (c *CaptureObserver) OnEvent(_ context.Context, event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a copy of the recorded events.
func (c *CaptureObserver) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.events)
}

// Types returns the recorded event types in order.
func (c *CaptureObserver) Types() []EventType {
	c.mu.Lock()
	defer c.mu.Unlock()

	types := make([]EventType, len(c.events))
	for i, e := range c.events {
		types[i] = e.Type
	}
	return types
}
