// Package chat defines conversations and their messages.
package chat

import "time"

// Role identifies the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is a container for one chat thread. UpdatedAt is touched on
// every new message and drives recency ordering in listings.
type Conversation struct {
	ID        string
	UserID    int64
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single turn half within a conversation. Ordering within a
// conversation is by CreatedAt, ties broken by insertion order.
type Message struct {
	ID             int64
	ConversationID string
	Role           Role
	Content        string
	CreatedAt      time.Time
}
