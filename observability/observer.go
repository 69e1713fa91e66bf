// Package observability carries lifecycle events from the turn runtime and
// state containers to logs and metrics. Level values follow OpenTelemetry
// SeverityNumber ranges so events can be forwarded to a collector untranslated.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is event severity on the OTel SeverityNumber scale.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8)
	LevelInfo    Level = 9  // OTel INFO (9-12)
	LevelWarning Level = 13 // OTel WARN (13-16)
	LevelError   Level = 17 // OTel ERROR (17-20)
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps the level onto slog's four levels.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType names an event, namespaced by the emitting package
// ("state.load", "kernel.turn.complete").
type EventType string

// Event is one lifecycle occurrence. Source identifies the emitter and Data
// holds flat attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events. Implementations must not block the turn.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// ObserverFunc allows plain functions to satisfy Observer.
type ObserverFunc func(ctx context.Context, event Event)

func (fn ObserverFunc) OnEvent(ctx context.Context, event Event) {
	fn(ctx, event)
}
