package turn

import "slices"

// Context carries one turn: the inbound activity, the per-turn service
// registry and the replies produced while handling it. A Context is created
// at turn start and discarded when the turn ends.
type Context struct {
	activity Activity
	services *Services
	replies  []Activity
}

// NewContext creates a turn Context for activity. An empty activity ID is
// replaced with a UUIDv7.
func NewContext(activity Activity) *Context {
	if activity.ID == "" {
		activity.ID = newID()
	}
	return &Context{
		activity: activity,
		services: newServices(),
	}
}

// Activity returns the inbound activity.
func (c *Context) Activity() Activity {
	return c.activity
}

// Services returns the per-turn service registry.
func (c *Context) Services() *Services {
	return c.services
}

// Send queues a text reply addressed back to the activity's conversation.
func (c *Context) Send(text string) {
	reply := NewActivity(c.activity.ChannelID, c.activity.ConversationID, "", text)
	c.replies = append(c.replies, reply)
}

// Replies returns a copy of the replies queued so far.
func (c *Context) Replies() []Activity {
	return slices.Clone(c.replies)
}
