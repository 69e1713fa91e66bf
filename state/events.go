package state

import "github.com/tailored-agentic-units/turnstate/observability"

// State lifecycle event types.
const (
	EventLoad   observability.EventType = "state.load"
	EventSave   observability.EventType = "state.save"
	EventSkip   observability.EventType = "state.skip"
	EventDelete observability.EventType = "state.delete"
)
