package chatstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/balai/budget-middleware/pkg/chat"
)

// ConversationDao maps directly to the 'conversations' table in PostgreSQL.
type ConversationDao struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`
	ID            string    `bun:"id,pk,type:uuid"`
	UserID        int64     `bun:"user_id,notnull"`
	Title         string    `bun:"title,notnull,type:varchar(200)"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// MessageDao maps directly to the 'messages' table in PostgreSQL.
// The serial id doubles as the insertion-order tie breaker.
type MessageDao struct {
	bun.BaseModel  `bun:"table:messages,alias:m"`
	ID             int64            `bun:"id,pk,autoincrement"`
	ConversationID string           `bun:"conversation_id,notnull,type:uuid"`
	Conversation   *ConversationDao `bun:"rel:belongs-to,join:conversation_id=id,on_delete:CASCADE"`
	Role           string           `bun:"role,notnull,type:varchar(10)"`
	Content        string           `bun:"content,notnull,type:text"`
	CreatedAt      time.Time        `bun:"created_at,nullzero,default:current_timestamp"`
}

func toConversationDao(conv *chat.Conversation) *ConversationDao {
	return &ConversationDao{
		ID:     conv.ID,
		UserID: conv.UserID,
		Title:  conv.Title,
	}
}

func toConversation(dao *ConversationDao) *chat.Conversation {
	return &chat.Conversation{
		ID:        dao.ID,
		UserID:    dao.UserID,
		Title:     dao.Title,
		CreatedAt: dao.CreatedAt,
		UpdatedAt: dao.UpdatedAt,
	}
}

func toMessageDao(msg *chat.Message) *MessageDao {
	return &MessageDao{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Role:           string(msg.Role),
		Content:        msg.Content,
	}
}

func toMessage(dao *MessageDao) *chat.Message {
	return &chat.Message{
		ID:             dao.ID,
		ConversationID: dao.ConversationID,
		Role:           chat.Role(dao.Role),
		Content:        dao.Content,
		CreatedAt:      dao.CreatedAt,
	}
}
