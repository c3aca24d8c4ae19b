// Package sync implements the engine that mirrors provider accounts and
// transactions into the local ledger: a reconciler that applies provider
// records idempotently, and an orchestrator that drives full and
// incremental sync runs against the provider's transaction stream.
package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/balai/budget-middleware/internal/metrics"
	"github.com/balai/budget-middleware/pkg/ledger"
	"github.com/balai/budget-middleware/pkg/ledgerstore"
	"github.com/balai/budget-middleware/pkg/provider"
)

// Result reports what a reconciliation pass changed
type Result struct {
	AccountsUpserted     int
	TransactionsUpserted int
	TransactionsRemoved  int
	TransactionsSkipped  int
}

// Add accumulates another result into this one
func (r *Result) Add(other Result) {
	r.AccountsUpserted += other.AccountsUpserted
	r.TransactionsUpserted += other.TransactionsUpserted
	r.TransactionsRemoved += other.TransactionsRemoved
	r.TransactionsSkipped += other.TransactionsSkipped
}

// Reconciler applies provider records to the ledger mirror.
// Every apply is idempotent: replaying the same records leaves the
// mirror unchanged and produces no duplicates.
type Reconciler struct {
	store  ledgerstore.Store
	logger *zap.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(store ledgerstore.Store, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logger,
	}
}

// ApplyAccounts upserts provider accounts by external id. The provider is
// authoritative for name, type, balances and currency.
func (r *Reconciler) ApplyAccounts(ctx context.Context, userID int64, records []provider.AccountRecord) (Result, error) {
	var result Result
	for _, record := range records {
		account := &ledger.Account{
			UserID:           userID,
			Name:             record.Name,
			AccountType:      ledger.MapProviderAccountType(record.Type),
			Balance:          record.CurrentBalance,
			AvailableBalance: record.AvailableBalance,
			CurrencyCode:     record.CurrencyCode,
			ExternalID:       record.ExternalID,
		}
		if err := r.store.UpsertAccountByExternalID(ctx, account); err != nil {
			return result, fmt.Errorf("failed to upsert account %s: %w", record.ExternalID, err)
		}
		result.AccountsUpserted++
		metrics.SyncRecordsTotal.WithLabelValues("account", "upserted").Inc()
	}
	return result, nil
}

// ApplyTransactions applies one batch of provider transaction changes.
// Added and modified records are upserted by external id with the amount
// sign inverted to the local convention and categories comma-joined.
// Records whose account is not mirrored yet are skipped and counted, not
// failed. Removals of unknown external ids are no-ops.
func (r *Reconciler) ApplyTransactions(
	ctx context.Context,
	userID int64,
	upserts []provider.TransactionRecord,
	removed []provider.RemovedTransaction,
) (Result, error) {
	var result Result

	for _, record := range upserts {
		account, err := r.store.GetAccountByExternalID(ctx, record.AccountExternalID)
		if err != nil {
			if errors.Is(err, ledgerstore.ErrAccountNotFound) {
				r.logger.Warn("skipping transaction for unknown account",
					zap.String("transaction_external_id", record.ExternalID),
					zap.String("account_external_id", record.AccountExternalID),
				)
				result.TransactionsSkipped++
				metrics.SyncRecordsTotal.WithLabelValues("transaction", "skipped").Inc()
				continue
			}
			return result, fmt.Errorf("failed to resolve account %s: %w", record.AccountExternalID, err)
		}
		if account.UserID != userID {
			result.TransactionsSkipped++
			metrics.SyncRecordsTotal.WithLabelValues("transaction", "skipped").Inc()
			continue
		}

		tx := &ledger.Transaction{
			AccountID: account.ID,
			// The provider reports debits as positive; locally outflows are negative
			Amount:       record.Amount.Neg(),
			Description:  record.Description,
			Date:         record.Date,
			Category:     strings.Join(record.Categories, ", "),
			MerchantName: record.MerchantName,
			ExternalID:   record.ExternalID,
		}
		if err := r.store.UpsertTransactionByExternalID(ctx, tx); err != nil {
			return result, fmt.Errorf("failed to upsert transaction %s: %w", record.ExternalID, err)
		}
		result.TransactionsUpserted++
		metrics.SyncRecordsTotal.WithLabelValues("transaction", "upserted").Inc()
	}

	for _, removal := range removed {
		if err := r.store.DeleteTransactionByExternalID(ctx, removal.ExternalID); err != nil {
			return result, fmt.Errorf("failed to remove transaction %s: %w", removal.ExternalID, err)
		}
		result.TransactionsRemoved++
		metrics.SyncRecordsTotal.WithLabelValues("transaction", "removed").Inc()
	}

	return result, nil
}

// RefreshBalances overwrites mirrored balances with real-time provider data.
// Accounts the mirror does not know yet are skipped.
func (r *Reconciler) RefreshBalances(ctx context.Context, userID int64, records []provider.AccountRecord) error {
	for _, record := range records {
		err := r.store.UpdateAccountBalances(ctx, record.ExternalID, record.CurrentBalance, record.AvailableBalance)
		if err != nil {
			if errors.Is(err, ledgerstore.ErrAccountNotFound) {
				r.logger.Warn("skipping balance update for unknown account",
					zap.String("account_external_id", record.ExternalID),
				)
				continue
			}
			return fmt.Errorf("failed to update balances for account %s: %w", record.ExternalID, err)
		}
	}
	return nil
}
