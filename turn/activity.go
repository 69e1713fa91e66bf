// Package turn models one inbound message-processing cycle: the activity that
// started it, a per-turn service registry that pipeline stages share, and the
// middleware contract that runs stages around a handler.
package turn

import (
	"time"

	"github.com/google/uuid"
)

// Activity is an inbound message and the identity fields of where it came
// from.
type Activity struct {
	ID             string    `json:"id"`
	ChannelID      string    `json:"channel_id"`
	ConversationID string    `json:"conversation_id"`
	FromID         string    `json:"from_id"`
	Text           string    `json:"text,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewActivity creates an Activity with a UUIDv7 ID and the current time.
func NewActivity(channelID, conversationID, fromID, text string) Activity {
	return Activity{
		ID:             newID(),
		ChannelID:      channelID,
		ConversationID: conversationID,
		FromID:         fromID,
		Text:           text,
		Timestamp:      time.Now(),
	}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
