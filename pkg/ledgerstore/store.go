package ledgerstore

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/balai/budget-middleware/pkg/ledger"
)

// ErrAccountNotFound is returned when an account lookup finds no matching record.
var ErrAccountNotFound = errors.New("account not found")

// ErrTransactionNotFound is returned when a transaction lookup finds no matching record.
var ErrTransactionNotFound = errors.New("transaction not found")

// AccountStore defines account persistence operations.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *ledger.Account) error
	// UpsertAccountByExternalID inserts or updates a provider-linked account.
	// The provider is the source of truth for name, type, balances and currency.
	UpsertAccountByExternalID(ctx context.Context, account *ledger.Account) error
	GetAccountByExternalID(ctx context.Context, externalID string) (*ledger.Account, error)
	ListAccountsByUserID(ctx context.Context, userID int64) ([]*ledger.Account, error)
	UpdateAccountBalances(ctx context.Context, externalID string, balance decimal.Decimal, available *decimal.Decimal) error
}

// TransactionStore defines transaction persistence operations.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *ledger.Transaction) error
	// UpsertTransactionByExternalID inserts or updates a provider-linked transaction.
	UpsertTransactionByExternalID(ctx context.Context, tx *ledger.Transaction) error
	// DeleteTransactionByExternalID deletes a provider-linked transaction.
	// Deleting an unknown external id is a no-op so removal batches can be replayed.
	DeleteTransactionByExternalID(ctx context.Context, externalID string) error
	GetTransactionByExternalID(ctx context.Context, externalID string) (*ledger.Transaction, error)
	// ListRecentTransactionsByUserID returns the user's newest transactions
	// across all accounts, newest first.
	ListRecentTransactionsByUserID(ctx context.Context, userID int64, limit int) ([]*ledger.Transaction, error)
	CountTransactionsByUserID(ctx context.Context, userID int64) (int, error)
}

// Store defines the interface for ledger mirror persistence
type Store interface {
	AccountStore
	TransactionStore
}
