// Package linkservice owns the link lifecycle: producing link tokens,
// exchanging public tokens for access credentials, and manual sync triggers.
package linkservice

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/balai/budget-middleware/pkg/app/errors"
	"github.com/balai/budget-middleware/pkg/keys"
	"github.com/balai/budget-middleware/pkg/linkage"
	"github.com/balai/budget-middleware/pkg/linkagestore"
	"github.com/balai/budget-middleware/pkg/provider"
	"github.com/balai/budget-middleware/pkg/sync"
)

var validate = validator.New()

// Provider is the slice of the banking provider client the link service needs.
type Provider interface {
	CreateLinkToken(ctx context.Context, userID int64) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error)
}

// Linkages is the slice of the linkage store the link service needs.
// linkagestore.Store satisfies it.
type Linkages interface {
	Upsert(ctx context.Context, lnk *linkage.Linkage) error
}

// Syncer runs full and incremental synchronizations. sync.Orchestrator
// satisfies it.
type Syncer interface {
	FullSync(ctx context.Context, userID int64, trigger string) (sync.Result, error)
	IncrementalSync(ctx context.Context, userID int64, trigger string) (sync.Result, error)
}

// LinkTokenResponse carries the short-lived token the frontend feeds to the
// provider's link widget.
type LinkTokenResponse struct {
	LinkToken string `json:"link_token"`
}

// ExchangeRequest is the payload for completing a link.
type ExchangeRequest struct {
	PublicToken string `json:"public_token" validate:"required"`
}

// ExchangeResponse reports the completed link. Synced is false when the
// linkage was stored but the initial full sync failed; a later webhook or
// manual trigger will catch the ledger up.
type ExchangeResponse struct {
	ItemID string `json:"item_id"`
	Synced bool   `json:"synced"`
}

// SyncResponse reports what a manual sync applied.
type SyncResponse struct {
	AccountsUpserted     int `json:"accounts_upserted"`
	TransactionsUpserted int `json:"transactions_upserted"`
	TransactionsRemoved  int `json:"transactions_removed"`
	TransactionsSkipped  int `json:"transactions_skipped"`
}

// Service defines the link lifecycle business logic
type Service interface {
	CreateLinkToken(ctx context.Context, userID int64) (*LinkTokenResponse, error)
	ExchangePublicToken(ctx context.Context, userID int64, req *ExchangeRequest) (*ExchangeResponse, error)
	TriggerSync(ctx context.Context, userID int64) (*SyncResponse, error)
}

type linkService struct {
	provider Provider
	linkages Linkages
	syncer   Syncer
	cipher   *keys.CredentialCipher
	logger   *zap.Logger
}

// NewService creates a new link service
func NewService(
	prov Provider,
	linkages Linkages,
	syncer Syncer,
	cipher *keys.CredentialCipher,
	logger *zap.Logger,
) Service {
	return &linkService{
		provider: prov,
		linkages: linkages,
		syncer:   syncer,
		cipher:   cipher,
		logger:   logger,
	}
}

// CreateLinkToken asks the provider for a link token scoped to the user
func (s *linkService) CreateLinkToken(ctx context.Context, userID int64) (*LinkTokenResponse, error) {
	token, err := s.provider.CreateLinkToken(ctx, userID)
	if err != nil {
		return nil, providerError(err, "failed to create link token")
	}
	return &LinkTokenResponse{LinkToken: token}, nil
}

// ExchangePublicToken completes a link: it trades the public token for an
// access credential, stores the credential encrypted, and runs the initial
// full sync. Re-linking rotates the credential and resets the sync cursor.
func (s *linkService) ExchangePublicToken(
	ctx context.Context,
	userID int64,
	req *ExchangeRequest,
) (*ExchangeResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperrors.BadRequestError(err, "public_token is required")
	}

	accessToken, itemID, err := s.provider.ExchangePublicToken(ctx, req.PublicToken)
	if err != nil {
		return nil, providerError(err, "failed to exchange public token")
	}

	encrypted, err := s.cipher.EncryptCredential(accessToken)
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}

	if err := s.linkages.Upsert(ctx, &linkage.Linkage{
		UserID:      userID,
		AccessToken: encrypted,
		ItemID:      itemID,
	}); err != nil {
		return nil, apperrors.GeneralError(err)
	}

	// The linkage is durable at this point. The initial sync is best effort:
	// the provider will also announce history via webhooks.
	synced := true
	if _, err := s.syncer.FullSync(ctx, userID, "link"); err != nil {
		s.logger.Error("initial full sync failed after link",
			zap.Int64("user_id", userID),
			zap.String("item_id", itemID),
			zap.Error(err),
		)
		synced = false
	}

	return &ExchangeResponse{ItemID: itemID, Synced: synced}, nil
}

// TriggerSync runs an incremental sync for the user on demand
func (s *linkService) TriggerSync(ctx context.Context, userID int64) (*SyncResponse, error) {
	result, err := s.syncer.IncrementalSync(ctx, userID, "manual")
	if err != nil {
		if errors.Is(err, linkagestore.ErrNotLinked) {
			return nil, apperrors.ResourceNotFoundError(err, "no linked bank item")
		}
		return nil, providerError(err, "sync failed")
	}
	return &SyncResponse{
		AccountsUpserted:     result.AccountsUpserted,
		TransactionsUpserted: result.TransactionsUpserted,
		TransactionsRemoved:  result.TransactionsRemoved,
		TransactionsSkipped:  result.TransactionsSkipped,
	}, nil
}

// providerError classifies a provider failure: outages map to a retryable
// dependency failure, anything else is internal.
func providerError(err error, message string) error {
	if errors.Is(err, provider.ErrProviderUnavailable) {
		return apperrors.DependencyFailureError(err, message)
	}
	return apperrors.GeneralError(err)
}
