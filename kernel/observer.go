package kernel

import "github.com/tailored-agentic-units/turnstate/observability"

// Kernel event types emitted around each turn.
const (
	EventTurnStart    observability.EventType = "kernel.turn.start"
	EventTurnComplete observability.EventType = "kernel.turn.complete"
	EventTurnError    observability.EventType = "kernel.turn.error"
)
