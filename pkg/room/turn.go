package room

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/balai/budget-middleware/internal/metrics"
	apperrors "github.com/balai/budget-middleware/pkg/app/errors"
	"github.com/balai/budget-middleware/pkg/assistant"
	"github.com/balai/budget-middleware/pkg/chat"
	"github.com/balai/budget-middleware/pkg/chatstore"
)

// assistantApology is broadcast in place of a reply when the reasoning
// service fails. It is transient and never persisted.
const assistantApology = "I'm sorry, I'm having trouble processing your request right now. Please try again later."

// ConversationStore is the slice of the chat store the turn pipeline needs.
// chatstore.Store satisfies it.
type ConversationStore interface {
	GetConversation(ctx context.Context, id string) (*chat.Conversation, error)
	CreateMessage(ctx context.Context, msg *chat.Message) error
}

// SnapshotAssembler builds the financial context for a turn.
// assistant.ContextAssembler satisfies it.
type SnapshotAssembler interface {
	Assemble(ctx context.Context, userID int64) (*assistant.Snapshot, error)
}

// Service runs the conversation room: join authorization and the turn
// pipeline. Turns within one conversation are serialized; different
// conversations proceed independently.
type Service struct {
	chats     ConversationStore
	assembler SnapshotAssembler
	responder assistant.Responder
	hub       *Hub
	logger    *zap.Logger
}

// NewService creates a new room service
func NewService(
	chats ConversationStore,
	assembler SnapshotAssembler,
	responder assistant.Responder,
	hub *Hub,
	logger *zap.Logger,
) *Service {
	return &Service{
		chats:     chats,
		assembler: assembler,
		responder: responder,
		hub:       hub,
		logger:    logger,
	}
}

// authorize loads the conversation and checks the caller owns it
func (s *Service) authorize(ctx context.Context, userID int64, conversationID string) (*chat.Conversation, error) {
	conv, err := s.chats.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, chatstore.ErrConversationNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "conversation not found")
		}
		return nil, apperrors.GeneralError(err)
	}
	if conv.UserID != userID {
		return nil, apperrors.ForbiddenError(nil, "conversation belongs to another user")
	}
	return conv, nil
}

// Join subscribes the caller to a conversation's broadcasts.
// Only the conversation owner may join.
func (s *Service) Join(ctx context.Context, userID int64, conversationID string) (*Subscription, error) {
	if _, err := s.authorize(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.hub.Subscribe(conversationID), nil
}

// SubmitTurn runs one full turn: persist the user message, echo it to the
// room, build the financial context, ask the assistant, persist and
// broadcast the reply. If the assistant fails, a transient error event is
// broadcast instead and nothing beyond the user message is persisted.
func (s *Service) SubmitTurn(ctx context.Context, userID int64, conversationID, text string) error {
	start := time.Now()

	if text == "" {
		return apperrors.BadRequestError(nil, "message must not be empty")
	}

	if _, err := s.authorize(ctx, userID, conversationID); err != nil {
		return err
	}

	room := s.hub.Get(conversationID)
	room.lockTurn()
	defer room.unlockTurn()

	userMsg := &chat.Message{
		ConversationID: conversationID,
		Role:           chat.RoleUser,
		Content:        text,
	}
	if err := s.chats.CreateMessage(ctx, userMsg); err != nil {
		metrics.AssistantTurnsTotal.WithLabelValues("error").Inc()
		return apperrors.GeneralError(err)
	}
	room.Broadcast(UserText(userMsg))

	reply, err := s.respond(ctx, userID, text)
	if err != nil {
		s.logger.Error("assistant turn failed",
			zap.String("conversation_id", conversationID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		room.Broadcast(AssistantError(assistantApology))
		metrics.AssistantTurnsTotal.WithLabelValues("assistant_error").Inc()
		return nil
	}

	assistantMsg := &chat.Message{
		ConversationID: conversationID,
		Role:           chat.RoleAssistant,
		Content:        reply,
	}
	if err := s.chats.CreateMessage(ctx, assistantMsg); err != nil {
		// The reply exists but cannot be persisted; surface the failure
		// to the room rather than pretending the turn completed
		s.logger.Error("failed to persist assistant reply",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		room.Broadcast(AssistantError(assistantApology))
		metrics.AssistantTurnsTotal.WithLabelValues("error").Inc()
		return nil
	}
	room.Broadcast(AssistantText(assistantMsg))

	metrics.AssistantTurnsTotal.WithLabelValues("ok").Inc()
	metrics.AssistantTurnDuration.Observe(time.Since(start).Seconds())
	return nil
}

func (s *Service) respond(ctx context.Context, userID int64, question string) (string, error) {
	snapshot, err := s.assembler.Assemble(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.responder.Respond(ctx, &assistant.Request{
		UserID:   userID,
		Snapshot: snapshot,
		Question: question,
	})
}
