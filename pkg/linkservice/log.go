package linkservice

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const serviceName = "LinkService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the link Service.
// It logs method entry/exit, duration and errors. Tokens and credentials
// never reach the log.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) CreateLinkToken(ctx context.Context, userID int64) (resp *LinkTokenResponse, err error) {
	start := time.Now()

	ls.logger.Info("CreateLinkToken started",
		zap.String("service", serviceName),
		zap.String("method", "CreateLinkToken"),
		zap.Int64("user_id", userID),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("CreateLinkToken failed",
				zap.String("service", serviceName),
				zap.String("method", "CreateLinkToken"),
				zap.Int64("user_id", userID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("CreateLinkToken completed",
				zap.String("service", serviceName),
				zap.String("method", "CreateLinkToken"),
				zap.Int64("user_id", userID),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.CreateLinkToken(ctx, userID)
}

func (ls *logService) ExchangePublicToken(
	ctx context.Context,
	userID int64,
	req *ExchangeRequest,
) (resp *ExchangeResponse, err error) {
	start := time.Now()

	ls.logger.Info("ExchangePublicToken started",
		zap.String("service", serviceName),
		zap.String("method", "ExchangePublicToken"),
		zap.Int64("user_id", userID),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("ExchangePublicToken failed",
				zap.String("service", serviceName),
				zap.String("method", "ExchangePublicToken"),
				zap.Int64("user_id", userID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("ExchangePublicToken completed",
				zap.String("service", serviceName),
				zap.String("method", "ExchangePublicToken"),
				zap.Int64("user_id", userID),
				zap.String("item_id", resp.ItemID),
				zap.Bool("synced", resp.Synced),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.ExchangePublicToken(ctx, userID, req)
}

func (ls *logService) TriggerSync(ctx context.Context, userID int64) (resp *SyncResponse, err error) {
	start := time.Now()

	ls.logger.Info("TriggerSync started",
		zap.String("service", serviceName),
		zap.String("method", "TriggerSync"),
		zap.Int64("user_id", userID),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("TriggerSync failed",
				zap.String("service", serviceName),
				zap.String("method", "TriggerSync"),
				zap.Int64("user_id", userID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("TriggerSync completed",
				zap.String("service", serviceName),
				zap.String("method", "TriggerSync"),
				zap.Int64("user_id", userID),
				zap.Int("accounts_upserted", resp.AccountsUpserted),
				zap.Int("transactions_upserted", resp.TransactionsUpserted),
				zap.Int("transactions_removed", resp.TransactionsRemoved),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.TriggerSync(ctx, userID)
}
