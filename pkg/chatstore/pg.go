package chatstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/balai/budget-middleware/pkg/chat"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the chat store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) CreateConversation(ctx context.Context, conv *chat.Conversation) error {
	dao := toConversationDao(conv)

	_, err := s.db.NewInsert().
		Model(dao).
		Returning("created_at, updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	conv.CreatedAt = dao.CreatedAt
	conv.UpdatedAt = dao.UpdatedAt
	return nil
}

func (s *pgStore) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	dao := new(ConversationDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return toConversation(dao), nil
}

func (s *pgStore) ListConversationsByUserID(ctx context.Context, userID int64) ([]*chat.Conversation, error) {
	var daos []ConversationDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	convs := make([]*chat.Conversation, len(daos))
	for i := range daos {
		convs[i] = toConversation(&daos[i])
	}
	return convs, nil
}

func (s *pgStore) UpdateConversationTitle(ctx context.Context, id, title string) error {
	res, err := s.db.NewUpdate().
		Model((*ConversationDao)(nil)).
		Set("title = ?", title).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update conversation title: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (s *pgStore) DeleteConversation(ctx context.Context, id string) error {
	_, err := s.db.NewDelete().
		Model((*ConversationDao)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (s *pgStore) CreateMessage(ctx context.Context, msg *chat.Message) error {
	dao := toMessageDao(msg)

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(dao).
			Returning("id, created_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		_, err = tx.NewUpdate().
			Model((*ConversationDao)(nil)).
			Set("updated_at = NOW()").
			Where("id = ?", msg.ConversationID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to touch conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	msg.ID = dao.ID
	msg.CreatedAt = dao.CreatedAt
	return nil
}

func (s *pgStore) ListMessages(ctx context.Context, conversationID string) ([]*chat.Message, error) {
	var daos []MessageDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	msgs := make([]*chat.Message, len(daos))
	for i := range daos {
		msgs[i] = toMessage(&daos[i])
	}
	return msgs, nil
}
