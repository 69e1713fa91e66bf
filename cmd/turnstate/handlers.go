package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tailored-agentic-units/turnstate"
	"github.com/tailored-agentic-units/turnstate/kernel"
	"github.com/tailored-agentic-units/turnstate/storage"
	"github.com/tailored-agentic-units/turnstate/turn"
)

// conversationLog counts turns and remembers the last message of a conversation.
type conversationLog struct {
	storage.Version
	Turns       int       `json:"turns"`
	LastMessage string    `json:"last_message,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// profile holds per-sender data that follows a user across conversations.
type profile struct {
	storage.Version
	Name     string `json:"name,omitempty"`
	Messages int    `json:"messages"`
}

const namePrefix = "my name is "

func registerState(k *kernel.Kernel) error {
	if _, err := kernel.AddConversationState[conversationLog](k); err != nil {
		return err
	}
	if _, err := kernel.AddUserState[profile](k); err != nil {
		return err
	}
	return nil
}

// handleMessage updates both scopes and replies with a summary. A message of
// the form "my name is X" sets the sender's profile name.
func handleMessage(ctx context.Context, tc *turn.Context) error {
	convo, err := turnstate.GetConversationState[conversationLog](tc)
	if err != nil {
		return err
	}
	user, err := turnstate.GetUserState[profile](tc)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(tc.Activity().Text)
	if len(text) > len(namePrefix) && strings.EqualFold(text[:len(namePrefix)], namePrefix) {
		user.Name = strings.TrimSpace(text[len(namePrefix):])
	}

	convo.Turns++
	convo.LastMessage = text
	convo.UpdatedAt = time.Now().UTC()
	user.Messages++

	who := user.Name
	if who == "" {
		who = tc.Activity().FromID
	}
	tc.Send(fmt.Sprintf("Hello %s: turn %d in this conversation, %d messages from you overall.",
		who, convo.Turns, user.Messages))
	return nil
}
