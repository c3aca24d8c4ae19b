package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const serviceName = "ChatService"

const logTitleMaxLen = 50

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the conversation Service
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) ListConversations(ctx context.Context, userID int64) (resp []*ConversationResponse, err error) {
	start := time.Now()

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("ListConversations failed",
				zap.String("service", serviceName),
				zap.String("method", "ListConversations"),
				zap.Int64("user_id", userID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("ListConversations completed",
				zap.String("service", serviceName),
				zap.String("method", "ListConversations"),
				zap.Int64("user_id", userID),
				zap.Int("count", len(resp)),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.ListConversations(ctx, userID)
}

func (ls *logService) CreateConversation(
	ctx context.Context,
	userID int64,
	req *CreateConversationRequest,
) (resp *ConversationResponse, err error) {
	start := time.Now()

	ls.logger.Info("CreateConversation started",
		zap.String("service", serviceName),
		zap.String("method", "CreateConversation"),
		zap.Int64("user_id", userID),
		zap.String("title", truncateString(req.Title, logTitleMaxLen)),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("CreateConversation failed",
				zap.String("service", serviceName),
				zap.String("method", "CreateConversation"),
				zap.Int64("user_id", userID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("CreateConversation completed",
				zap.String("service", serviceName),
				zap.String("method", "CreateConversation"),
				zap.Int64("user_id", userID),
				zap.String("conversation_id", resp.ID),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.CreateConversation(ctx, userID, req)
}

func (ls *logService) GetConversation(
	ctx context.Context,
	userID int64,
	conversationID string,
) (resp *ConversationDetailResponse, err error) {
	start := time.Now()

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("GetConversation failed",
				zap.String("service", serviceName),
				zap.String("method", "GetConversation"),
				zap.Int64("user_id", userID),
				zap.String("conversation_id", conversationID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("GetConversation completed",
				zap.String("service", serviceName),
				zap.String("method", "GetConversation"),
				zap.Int64("user_id", userID),
				zap.String("conversation_id", conversationID),
				zap.Int("message_count", len(resp.Messages)),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.GetConversation(ctx, userID, conversationID)
}

func (ls *logService) RenameConversation(
	ctx context.Context,
	userID int64,
	conversationID string,
	req *RenameConversationRequest,
) (resp *ConversationResponse, err error) {
	start := time.Now()

	ls.logger.Info("RenameConversation started",
		zap.String("service", serviceName),
		zap.String("method", "RenameConversation"),
		zap.Int64("user_id", userID),
		zap.String("conversation_id", conversationID),
		zap.String("title", truncateString(req.Title, logTitleMaxLen)),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("RenameConversation failed",
				zap.String("service", serviceName),
				zap.String("method", "RenameConversation"),
				zap.Int64("user_id", userID),
				zap.String("conversation_id", conversationID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("RenameConversation completed",
				zap.String("service", serviceName),
				zap.String("method", "RenameConversation"),
				zap.Int64("user_id", userID),
				zap.String("conversation_id", conversationID),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.RenameConversation(ctx, userID, conversationID, req)
}

func (ls *logService) DeleteConversation(ctx context.Context, userID int64, conversationID string) (err error) {
	start := time.Now()

	ls.logger.Info("DeleteConversation started",
		zap.String("service", serviceName),
		zap.String("method", "DeleteConversation"),
		zap.Int64("user_id", userID),
		zap.String("conversation_id", conversationID),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("DeleteConversation failed",
				zap.String("service", serviceName),
				zap.String("method", "DeleteConversation"),
				zap.Int64("user_id", userID),
				zap.String("conversation_id", conversationID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("DeleteConversation completed",
				zap.String("service", serviceName),
				zap.String("method", "DeleteConversation"),
				zap.Int64("user_id", userID),
				zap.String("conversation_id", conversationID),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.DeleteConversation(ctx, userID, conversationID)
}

// truncateString shortens a string for log output
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
