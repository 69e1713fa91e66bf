package state

import (
	"fmt"
	"reflect"

	"github.com/tailored-agentic-units/turnstate/storage"
	"github.com/tailored-agentic-units/turnstate/turn"
)

// Registry slot prefixes for the scoped specializations.
const (
	conversationPrefix = "ConversationState:"
	userPrefix         = "UserState:"
)

// ConversationState is a Container keyed by channel and conversation.
type ConversationState[T any] struct {
	*Container[T]
}

// NewConversationState creates conversation-scoped state for T.
func NewConversationState[T any](store storage.Store, opts ...Option[T]) (*ConversationState[T], error) {
	c, err := New[T](store, ConversationPropertyName[T](), ConversationKey, opts...)
	if err != nil {
		return nil, err
	}
	return &ConversationState[T]{Container: c}, nil
}

// UserState is a Container keyed by channel and sender.
type UserState[T any] struct {
	*Container[T]
}

// NewUserState creates sender-scoped state for T.
func NewUserState[T any](store storage.Store, opts ...Option[T]) (*UserState[T], error) {
	c, err := New[T](store, UserPropertyName[T](), UserKey, opts...)
	if err != nil {
		return nil, err
	}
	return &UserState[T]{Container: c}, nil
}

// ConversationKey returns "conversation/{channelId}/{conversationId}".
func ConversationKey(tc *turn.Context) (string, error) {
	a := tc.Activity()
	if a.ChannelID == "" {
		return "", fmt.Errorf("%w: channel id", ErrMissingIdentity)
	}
	if a.ConversationID == "" {
		return "", fmt.Errorf("%w: conversation id", ErrMissingIdentity)
	}
	return "conversation/" + a.ChannelID + "/" + a.ConversationID, nil
}

// UserKey returns "user/{channelId}/{fromId}".
func UserKey(tc *turn.Context) (string, error) {
	a := tc.Activity()
	if a.ChannelID == "" {
		return "", fmt.Errorf("%w: channel id", ErrMissingIdentity)
	}
	if a.FromID == "" {
		return "", fmt.Errorf("%w: sender id", ErrMissingIdentity)
	}
	return "user/" + a.ChannelID + "/" + a.FromID, nil
}

// ConversationPropertyName returns the registry slot for conversation state
// of type T.
func ConversationPropertyName[T any]() string {
	return conversationPrefix + typeIdentity[T]()
}

// UserPropertyName returns the registry slot for user state of type T.
func UserPropertyName[T any]() string {
	return userPrefix + typeIdentity[T]()
}

// Conversation returns the conversation state of type T loaded into tc by a
// ConversationState's OnTurn.
func Conversation[T any](tc *turn.Context) (*T, error) {
	return turn.Service[*T](tc, ConversationPropertyName[T]())
}

// User returns the user state of type T loaded into tc by a UserState's
// OnTurn.
func User[T any](tc *turn.Context) (*T, error) {
	return turn.Service[*T](tc, UserPropertyName[T]())
}

func typeIdentity[T any]() string {
	t := reflect.TypeFor[T]()
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
