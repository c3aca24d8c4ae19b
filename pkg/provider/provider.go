// Package provider defines the client interface to the banking data
// aggregator. The concrete Plaid implementation lives in the plaid
// subpackage; the sync engine and link service depend only on this
// interface so tests can substitute fakes.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrProviderUnavailable indicates a transient provider outage.
// Operations that hit it may be retried without side effects.
var ErrProviderUnavailable = errors.New("banking provider unavailable")

// AccountRecord is an account as reported by the provider.
// Type uses the provider's own vocabulary (depository, credit, loan, ...).
type AccountRecord struct {
	ExternalID       string
	Name             string
	Type             string
	CurrentBalance   decimal.Decimal
	AvailableBalance *decimal.Decimal
	CurrencyCode     string
}

// TransactionRecord is a transaction as reported by the provider.
// Amount keeps the provider's sign convention: positive for money
// leaving the account. The reconciler inverts it on ingestion.
type TransactionRecord struct {
	ExternalID        string
	AccountExternalID string
	Amount            decimal.Decimal
	Date              time.Time
	Description       string
	MerchantName      string
	Categories        []string
}

// RemovedTransaction identifies a transaction the provider retracted.
type RemovedTransaction struct {
	ExternalID string
}

// SyncPage is one page of the provider's incremental transaction stream.
// NextCursor must be persisted only after the whole page is applied.
type SyncPage struct {
	Added      []TransactionRecord
	Modified   []TransactionRecord
	Removed    []RemovedTransaction
	NextCursor string
	HasMore    bool
}

// Client is the outbound interface to the banking data aggregator
type Client interface {
	// CreateLinkToken creates a short-lived token the frontend uses to
	// start the provider's account linking flow.
	CreateLinkToken(ctx context.Context, userID int64) (string, error)
	// ExchangePublicToken swaps the public token produced by a completed
	// linking flow for a long-lived access credential and its item id.
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error)
	// GetAccounts fetches the accounts reachable through the credential.
	GetAccounts(ctx context.Context, accessToken string) ([]AccountRecord, error)
	// GetBalances fetches accounts with real-time balance data.
	GetBalances(ctx context.Context, accessToken string) ([]AccountRecord, error)
	// GetTransactions fetches transactions within the date window.
	GetTransactions(ctx context.Context, accessToken string, startDate, endDate time.Time) ([]TransactionRecord, error)
	// SyncTransactions fetches one page of the incremental stream.
	// An empty cursor starts from the beginning of the stream.
	SyncTransactions(ctx context.Context, accessToken, cursor string) (*SyncPage, error)
}
