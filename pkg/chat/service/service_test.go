package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/balai/budget-middleware/pkg/app/errors"
	"github.com/balai/budget-middleware/pkg/chat"
	"github.com/balai/budget-middleware/pkg/chatstore"
)

type mockStore struct {
	CreateConversationFunc        func(ctx context.Context, conv *chat.Conversation) error
	GetConversationFunc           func(ctx context.Context, id string) (*chat.Conversation, error)
	ListConversationsByUserIDFunc func(ctx context.Context, userID int64) ([]*chat.Conversation, error)
	UpdateConversationTitleFunc   func(ctx context.Context, id, title string) error
	DeleteConversationFunc        func(ctx context.Context, id string) error
	ListMessagesFunc              func(ctx context.Context, conversationID string) ([]*chat.Message, error)
}

func (m *mockStore) CreateConversation(ctx context.Context, conv *chat.Conversation) error {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(ctx, conv)
	}
	return nil
}

func (m *mockStore) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(ctx, id)
	}
	return &chat.Conversation{ID: id, UserID: 1}, nil
}

func (m *mockStore) ListConversationsByUserID(ctx context.Context, userID int64) ([]*chat.Conversation, error) {
	if m.ListConversationsByUserIDFunc != nil {
		return m.ListConversationsByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockStore) UpdateConversationTitle(ctx context.Context, id, title string) error {
	if m.UpdateConversationTitleFunc != nil {
		return m.UpdateConversationTitleFunc(ctx, id, title)
	}
	return nil
}

func (m *mockStore) DeleteConversation(ctx context.Context, id string) error {
	if m.DeleteConversationFunc != nil {
		return m.DeleteConversationFunc(ctx, id)
	}
	return nil
}

func (m *mockStore) ListMessages(ctx context.Context, conversationID string) ([]*chat.Message, error) {
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, conversationID)
	}
	return nil, nil
}

func TestCreateConversation(t *testing.T) {
	var created *chat.Conversation
	store := &mockStore{
		CreateConversationFunc: func(ctx context.Context, conv *chat.Conversation) error {
			created = conv
			return nil
		},
	}
	svc := NewService(store, zap.NewNop())

	resp, err := svc.CreateConversation(context.Background(), 7, &CreateConversationRequest{Title: "Groceries"})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", resp.Title)

	require.NotNil(t, created)
	assert.Equal(t, int64(7), created.UserID)
	_, err = uuid.Parse(created.ID)
	assert.NoError(t, err, "conversation id must be a uuid")
}

func TestCreateConversationDefaultTitle(t *testing.T) {
	svc := NewService(&mockStore{}, zap.NewNop())

	resp, err := svc.CreateConversation(context.Background(), 7, &CreateConversationRequest{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Title, "Chat "), "default title is date stamped, got %q", resp.Title)
}

func TestCreateConversationTitleTooLong(t *testing.T) {
	svc := NewService(&mockStore{}, zap.NewNop())

	_, err := svc.CreateConversation(context.Background(), 7, &CreateConversationRequest{
		Title: strings.Repeat("x", 201),
	})
	assert.True(t, apperrors.Is(err, apperrors.CategoryDataError))
}

func TestListConversations(t *testing.T) {
	store := &mockStore{
		ListConversationsByUserIDFunc: func(ctx context.Context, userID int64) ([]*chat.Conversation, error) {
			assert.Equal(t, int64(7), userID)
			return []*chat.Conversation{
				{ID: "conv-2", UserID: 7, Title: "newer"},
				{ID: "conv-1", UserID: 7, Title: "older"},
			}, nil
		},
	}
	svc := NewService(store, zap.NewNop())

	resp, err := svc.ListConversations(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, "conv-2", resp[0].ID)
	assert.Equal(t, "conv-1", resp[1].ID)
}

func TestGetConversationWithMessages(t *testing.T) {
	now := time.Now()
	store := &mockStore{
		GetConversationFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return &chat.Conversation{ID: id, UserID: 7, Title: "Budget talk"}, nil
		},
		ListMessagesFunc: func(ctx context.Context, conversationID string) ([]*chat.Message, error) {
			return []*chat.Message{
				{ID: 1, Role: chat.RoleUser, Content: "hi", CreatedAt: now},
				{ID: 2, Role: chat.RoleAssistant, Content: "hello", CreatedAt: now},
			}, nil
		},
	}
	svc := NewService(store, zap.NewNop())

	resp, err := svc.GetConversation(context.Background(), 7, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "Budget talk", resp.Title)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, chat.RoleUser, resp.Messages[0].Role)
	assert.Equal(t, chat.RoleAssistant, resp.Messages[1].Role)
}

func TestOwnershipChecks(t *testing.T) {
	store := &mockStore{
		GetConversationFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			if id == "conv-missing" {
				return nil, chatstore.ErrConversationNotFound
			}
			return &chat.Conversation{ID: id, UserID: 42}, nil
		},
	}
	svc := NewService(store, zap.NewNop())

	_, err := svc.GetConversation(context.Background(), 7, "conv-1")
	assert.True(t, apperrors.Is(err, apperrors.CategoryForbidden))

	_, err = svc.GetConversation(context.Background(), 7, "conv-missing")
	assert.True(t, apperrors.Is(err, apperrors.CategoryResourceNotFound))

	err = svc.DeleteConversation(context.Background(), 7, "conv-1")
	assert.True(t, apperrors.Is(err, apperrors.CategoryForbidden))

	_, err = svc.RenameConversation(context.Background(), 7, "conv-1",
		&RenameConversationRequest{Title: "mine now"})
	assert.True(t, apperrors.Is(err, apperrors.CategoryForbidden))
}

func TestRenameConversation(t *testing.T) {
	renamed := ""
	store := &mockStore{
		GetConversationFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return &chat.Conversation{ID: id, UserID: 7, Title: "old"}, nil
		},
		UpdateConversationTitleFunc: func(ctx context.Context, id, title string) error {
			renamed = title
			return nil
		},
	}
	svc := NewService(store, zap.NewNop())

	resp, err := svc.RenameConversation(context.Background(), 7, "conv-1",
		&RenameConversationRequest{Title: "March budget"})
	require.NoError(t, err)
	assert.Equal(t, "March budget", resp.Title)
	assert.Equal(t, "March budget", renamed)
}

func TestRenameConversationRequiresTitle(t *testing.T) {
	svc := NewService(&mockStore{}, zap.NewNop())

	_, err := svc.RenameConversation(context.Background(), 7, "conv-1", &RenameConversationRequest{})
	assert.True(t, apperrors.Is(err, apperrors.CategoryDataError))
}

func TestDeleteConversation(t *testing.T) {
	deleted := ""
	store := &mockStore{
		GetConversationFunc: func(ctx context.Context, id string) (*chat.Conversation, error) {
			return &chat.Conversation{ID: id, UserID: 7}, nil
		},
		DeleteConversationFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := NewService(store, zap.NewNop())

	require.NoError(t, svc.DeleteConversation(context.Background(), 7, "conv-1"))
	assert.Equal(t, "conv-1", deleted)
}
