package chatstore

import (
	"context"
	"errors"

	"github.com/balai/budget-middleware/pkg/chat"
)

// ErrConversationNotFound is returned when a conversation lookup finds no matching record.
var ErrConversationNotFound = errors.New("conversation not found")

// Store defines conversation and message persistence.
type Store interface {
	CreateConversation(ctx context.Context, conv *chat.Conversation) error
	GetConversation(ctx context.Context, id string) (*chat.Conversation, error)
	// ListConversationsByUserID returns the user's conversations,
	// most recently active first.
	ListConversationsByUserID(ctx context.Context, userID int64) ([]*chat.Conversation, error)
	UpdateConversationTitle(ctx context.Context, id, title string) error
	DeleteConversation(ctx context.Context, id string) error

	// CreateMessage appends a message and touches the parent conversation's
	// updated_at in the same transaction.
	CreateMessage(ctx context.Context, msg *chat.Message) error
	// ListMessages returns a conversation's messages oldest first,
	// insertion order breaking creation-time ties.
	ListMessages(ctx context.Context, conversationID string) ([]*chat.Message, error)
}
