// Package turnstate provides shorthand accessors for state that the state
// package's scoped containers have loaded into a turn.
package turnstate

import (
	"github.com/tailored-agentic-units/turnstate/state"
	"github.com/tailored-agentic-units/turnstate/turn"
)

// GetConversationState returns the conversation state of type T loaded into tc.
func GetConversationState[T any](tc *turn.Context) (*T, error) {
	return state.Conversation[T](tc)
}

// GetUserState returns the user state of type T loaded into tc.
func GetUserState[T any](tc *turn.Context) (*T, error) {
	return state.User[T](tc)
}
