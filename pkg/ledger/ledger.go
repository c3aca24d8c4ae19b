// Package ledger defines the local mirror of a user's financial state:
// accounts and their transactions, whether provider-sourced or manually entered.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType categorizes an account for display and reporting
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeOther      AccountType = "other"
)

// Account represents a bank account, manual or provider-linked.
// ExternalID is set only for provider-linked accounts and is unique when present;
// re-syncing the same external id updates the existing row.
type Account struct {
	ID               int64
	UserID           int64
	Name             string
	AccountType      AccountType
	Balance          decimal.Decimal
	AvailableBalance *decimal.Decimal
	CurrencyCode     string
	ExternalID       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsLinked reports whether the account is provider-sourced
func (a *Account) IsLinked() bool {
	return a.ExternalID != ""
}

// Transaction represents a single financial transaction.
// Amounts are signed: negative for outflows, positive for inflows.
type Transaction struct {
	ID           int64
	AccountID    int64
	Amount       decimal.Decimal
	Description  string
	Date         time.Time
	Category     string
	MerchantName string
	ExternalID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsLinked reports whether the transaction is provider-sourced
func (t *Transaction) IsLinked() bool {
	return t.ExternalID != ""
}

// MapProviderAccountType converts the provider's account type vocabulary
// to the local enumeration. Unknown types map to AccountTypeOther.
func MapProviderAccountType(providerType string) AccountType {
	switch providerType {
	case "depository":
		return AccountTypeChecking
	case "credit":
		return AccountTypeCredit
	case "loan":
		return AccountTypeLoan
	case "investment":
		return AccountTypeInvestment
	default:
		return AccountTypeOther
	}
}
