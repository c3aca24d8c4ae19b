package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/balai/budget-middleware/internal/metrics"
	"github.com/balai/budget-middleware/pkg/keys"
	"github.com/balai/budget-middleware/pkg/linkagestore"
	"github.com/balai/budget-middleware/pkg/provider"
)

// Orchestrator drives sync runs against the provider for linked users.
// It owns credential decryption and cursor advancement; the reconciler
// owns record application. No operation retries internally.
type Orchestrator struct {
	provider   provider.Client
	linkages   linkagestore.Store
	reconciler *Reconciler
	cipher     *keys.CredentialCipher
	logger     *zap.Logger
	windowDays int
}

// NewOrchestrator creates a new sync orchestrator.
// windowDays bounds the transaction window fetched by a full sync.
func NewOrchestrator(
	providerClient provider.Client,
	linkages linkagestore.Store,
	reconciler *Reconciler,
	cipher *keys.CredentialCipher,
	logger *zap.Logger,
	windowDays int,
) *Orchestrator {
	return &Orchestrator{
		provider:   providerClient,
		linkages:   linkages,
		reconciler: reconciler,
		cipher:     cipher,
		logger:     logger,
		windowDays: windowDays,
	}
}

func (o *Orchestrator) credential(ctx context.Context, userID int64) (string, error) {
	lnk, err := o.linkages.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	credential, err := o.cipher.DecryptCredential(lnk.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}
	return credential, nil
}

// FullSync mirrors all accounts and the recent transaction window.
// Used right after linking, before the incremental stream has a cursor.
func (o *Orchestrator) FullSync(ctx context.Context, userID int64, trigger string) (Result, error) {
	start := time.Now()
	var result Result

	credential, err := o.credential(ctx, userID)
	if err != nil {
		return result, err
	}

	accounts, err := o.provider.GetAccounts(ctx, credential)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues(trigger, "error").Inc()
		return result, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	accountResult, err := o.reconciler.ApplyAccounts(ctx, userID, accounts)
	result.Add(accountResult)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues(trigger, "error").Inc()
		return result, err
	}

	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -o.windowDays)
	transactions, err := o.provider.GetTransactions(ctx, credential, startDate, endDate)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues(trigger, "error").Inc()
		return result, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	txResult, err := o.reconciler.ApplyTransactions(ctx, userID, transactions, nil)
	result.Add(txResult)
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues(trigger, "error").Inc()
		return result, err
	}

	if err := o.refreshBalances(ctx, userID, credential); err != nil {
		metrics.SyncRunsTotal.WithLabelValues(trigger, "error").Inc()
		return result, err
	}

	metrics.SyncRunsTotal.WithLabelValues(trigger, "ok").Inc()
	metrics.SyncDuration.WithLabelValues(trigger).Observe(time.Since(start).Seconds())

	o.logger.Info("full sync completed",
		zap.Int64("user_id", userID),
		zap.String("trigger", trigger),
		zap.Int("accounts_upserted", result.AccountsUpserted),
		zap.Int("transactions_upserted", result.TransactionsUpserted),
		zap.Int("transactions_skipped", result.TransactionsSkipped),
	)
	return result, nil
}

// IncrementalSync consumes the provider's transaction stream from the
// stored cursor until the provider reports no more pages. The cursor is
// advanced with a compare-and-swap only after a page is fully applied; a
// CAS miss means a concurrent run advanced it first, so the loop reloads
// the stored cursor and continues from there. Re-applying a page is safe
// because the reconciler is idempotent.
func (o *Orchestrator) IncrementalSync(ctx context.Context, userID int64, trigger string) (Result, error) {
	start := time.Now()
	var result Result

	lnk, err := o.linkages.Get(ctx, userID)
	if err != nil {
		return result, err
	}
	credential, err := o.cipher.DecryptCredential(lnk.AccessToken)
	if err != nil {
		return result, fmt.Errorf("failed to decrypt credential: %w", err)
	}

	cursor := lnk.Cursor
	for {
		page, err := o.provider.SyncTransactions(ctx, credential, cursor)
		if err != nil {
			metrics.SyncRunsTotal.WithLabelValues(trigger, "error").Inc()
			return result, fmt.Errorf("failed to fetch sync page: %w", err)
		}
		metrics.SyncBatchesTotal.Inc()

		pageResult, err := o.reconciler.ApplyTransactions(ctx, userID, append(page.Added, page.Modified...), page.Removed)
		result.Add(pageResult)
		if err != nil {
			metrics.SyncRunsTotal.WithLabelValues(trigger, "error").Inc()
			return result, err
		}

		advanced, err := o.linkages.AdvanceCursor(ctx, userID, cursor, page.NextCursor)
		if err != nil {
			metrics.SyncRunsTotal.WithLabelValues(trigger, "error").Inc()
			return result, fmt.Errorf("failed to advance cursor: %w", err)
		}
		if !advanced {
			// A concurrent sync moved the cursor; resume from its position
			current, err := o.linkages.Get(ctx, userID)
			if err != nil {
				metrics.SyncRunsTotal.WithLabelValues(trigger, "error").Inc()
				return result, err
			}
			o.logger.Info("cursor advanced concurrently, resuming from stored position",
				zap.Int64("user_id", userID),
			)
			cursor = current.Cursor
			continue
		}

		cursor = page.NextCursor
		if !page.HasMore {
			break
		}
	}

	if err := o.refreshBalances(ctx, userID, credential); err != nil {
		metrics.SyncRunsTotal.WithLabelValues(trigger, "error").Inc()
		return result, err
	}

	metrics.SyncRunsTotal.WithLabelValues(trigger, "ok").Inc()
	metrics.SyncDuration.WithLabelValues(trigger).Observe(time.Since(start).Seconds())

	o.logger.Info("incremental sync completed",
		zap.Int64("user_id", userID),
		zap.String("trigger", trigger),
		zap.Int("transactions_upserted", result.TransactionsUpserted),
		zap.Int("transactions_removed", result.TransactionsRemoved),
		zap.Int("transactions_skipped", result.TransactionsSkipped),
	)
	return result, nil
}

// IncrementalSyncByItemID resolves the linkage owning a provider item and
// runs an incremental sync for that user. Webhook deliveries use this path.
func (o *Orchestrator) IncrementalSyncByItemID(ctx context.Context, itemID, trigger string) (Result, error) {
	lnk, err := o.linkages.GetByItemID(ctx, itemID)
	if err != nil {
		return Result{}, err
	}
	return o.IncrementalSync(ctx, lnk.UserID, trigger)
}

func (o *Orchestrator) refreshBalances(ctx context.Context, userID int64, credential string) error {
	balances, err := o.provider.GetBalances(ctx, credential)
	if err != nil {
		return fmt.Errorf("failed to fetch balances: %w", err)
	}
	return o.reconciler.RefreshBalances(ctx, userID, balances)
}
