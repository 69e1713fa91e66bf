package observability

import (
	"fmt"
	"sync"
)

var (
	observers = map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(nil),
	}
	mutex sync.RWMutex
)

// GetObserver returns a registered observer by name. "noop" and "slog" (the
// default slog logger at the time of package init) are always present.
func GetObserver(name string) (Observer, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	obs, ok := observers[name]
	if !ok {
		return nil, fmt.Errorf("unknown observer: %s", name)
	}
	return obs, nil
}

// RegisterObserver adds or replaces a named observer.
func RegisterObserver(name string, observer Observer) {
	mutex.Lock()
	defer mutex.Unlock()
	observers[name] = observer
}
