// Package service implements the conversation REST business logic.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/balai/budget-middleware/pkg/app/errors"
	"github.com/balai/budget-middleware/pkg/chat"
	"github.com/balai/budget-middleware/pkg/chatstore"
)

var validate = validator.New()

// Store is the narrow data-access interface for the conversation service.
// chatstore.Store satisfies it.
type Store interface {
	CreateConversation(ctx context.Context, conv *chat.Conversation) error
	GetConversation(ctx context.Context, id string) (*chat.Conversation, error)
	ListConversationsByUserID(ctx context.Context, userID int64) ([]*chat.Conversation, error)
	UpdateConversationTitle(ctx context.Context, id, title string) error
	DeleteConversation(ctx context.Context, id string) error
	ListMessages(ctx context.Context, conversationID string) ([]*chat.Message, error)
}

// CreateConversationRequest is the payload for opening a new conversation.
// An empty title gets a date-stamped default.
type CreateConversationRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// RenameConversationRequest is the payload for retitling a conversation
type RenameConversationRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// ConversationResponse is the wire shape of a conversation summary
type ConversationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageResponse is the wire shape of a single message
type MessageResponse struct {
	ID        int64     `json:"id"`
	Role      chat.Role `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationDetailResponse is a conversation with its full message history
type ConversationDetailResponse struct {
	ConversationResponse
	Messages []*MessageResponse `json:"messages"`
}

// Service defines the conversation management business logic
type Service interface {
	ListConversations(ctx context.Context, userID int64) ([]*ConversationResponse, error)
	CreateConversation(ctx context.Context, userID int64, req *CreateConversationRequest) (*ConversationResponse, error)
	GetConversation(ctx context.Context, userID int64, conversationID string) (*ConversationDetailResponse, error)
	RenameConversation(ctx context.Context, userID int64, conversationID string, req *RenameConversationRequest) (*ConversationResponse, error)
	DeleteConversation(ctx context.Context, userID int64, conversationID string) error
}

type chatService struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a new conversation service
func NewService(store Store, logger *zap.Logger) Service {
	return &chatService{
		store:  store,
		logger: logger,
	}
}

// authorize loads the conversation and checks the caller owns it
func (s *chatService) authorize(ctx context.Context, userID int64, conversationID string) (*chat.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
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

// ListConversations returns the user's conversations, most recently active first
func (s *chatService) ListConversations(ctx context.Context, userID int64) ([]*ConversationResponse, error) {
	convs, err := s.store.ListConversationsByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}

	resp := make([]*ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		resp = append(resp, toConversationResponse(conv))
	}
	return resp, nil
}

// CreateConversation opens a new conversation for the user
func (s *chatService) CreateConversation(
	ctx context.Context,
	userID int64,
	req *CreateConversationRequest,
) (*ConversationResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperrors.BadRequestError(err, "title must be at most 200 characters")
	}

	title := req.Title
	if title == "" {
		title = "Chat " + time.Now().Format("Jan 02, 2006")
	}

	conv := &chat.Conversation{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, apperrors.GeneralError(err)
	}
	return toConversationResponse(conv), nil
}

// GetConversation returns a conversation with its full message history,
// oldest message first
func (s *chatService) GetConversation(
	ctx context.Context,
	userID int64,
	conversationID string,
) (*ConversationDetailResponse, error) {
	conv, err := s.authorize(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}

	resp := &ConversationDetailResponse{
		ConversationResponse: *toConversationResponse(conv),
		Messages:             make([]*MessageResponse, 0, len(msgs)),
	}
	for _, msg := range msgs {
		resp.Messages = append(resp.Messages, &MessageResponse{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}
	return resp, nil
}

// RenameConversation retitles a conversation the caller owns
func (s *chatService) RenameConversation(
	ctx context.Context,
	userID int64,
	conversationID string,
	req *RenameConversationRequest,
) (*ConversationResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperrors.BadRequestError(err, "title is required and at most 200 characters")
	}

	conv, err := s.authorize(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateConversationTitle(ctx, conversationID, req.Title); err != nil {
		return nil, apperrors.GeneralError(err)
	}
	conv.Title = req.Title
	return toConversationResponse(conv), nil
}

// DeleteConversation removes a conversation and, via the schema's cascade,
// its messages
func (s *chatService) DeleteConversation(ctx context.Context, userID int64, conversationID string) error {
	if _, err := s.authorize(ctx, userID, conversationID); err != nil {
		return err
	}
	if err := s.store.DeleteConversation(ctx, conversationID); err != nil {
		return apperrors.GeneralError(err)
	}
	return nil
}

func toConversationResponse(conv *chat.Conversation) *ConversationResponse {
	return &ConversationResponse{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}
