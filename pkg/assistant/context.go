package assistant

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/balai/budget-middleware/pkg/ledger"
)

// LedgerReader is the slice of the ledger store the assembler needs.
// ledgerstore.Store satisfies it.
type LedgerReader interface {
	ListAccountsByUserID(ctx context.Context, userID int64) ([]*ledger.Account, error)
	ListRecentTransactionsByUserID(ctx context.Context, userID int64, limit int) ([]*ledger.Transaction, error)
}

// BalanceEntry is one account balance in the context snapshot
type BalanceEntry struct {
	Name        string          `json:"name"`
	Balance     decimal.Decimal `json:"balance"`
	AccountType string          `json:"account_type"`
}

// TransactionEntry is one recent transaction in the context snapshot
type TransactionEntry struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
}

// Snapshot is the bounded financial context sent with each question:
// all account balances, the newest transactions up to the configured
// limit, and the total balance across accounts.
type Snapshot struct {
	Balances           []BalanceEntry     `json:"balances"`
	RecentTransactions []TransactionEntry `json:"recent_transactions"`
	TotalBalance       decimal.Decimal    `json:"total_balance"`
}

// ContextAssembler builds snapshots from the ledger mirror
type ContextAssembler struct {
	store            LedgerReader
	transactionLimit int
}

// NewContextAssembler creates a new context assembler.
// transactionLimit bounds how many recent transactions enter the snapshot.
func NewContextAssembler(store LedgerReader, transactionLimit int) *ContextAssembler {
	return &ContextAssembler{
		store:            store,
		transactionLimit: transactionLimit,
	}
}

// Assemble builds the financial context snapshot for a user.
// A user with no accounts gets an empty snapshot, not an error.
func (a *ContextAssembler) Assemble(ctx context.Context, userID int64) (*Snapshot, error) {
	accounts, err := a.store.ListAccountsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	transactions, err := a.store.ListRecentTransactionsByUserID(ctx, userID, a.transactionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent transactions: %w", err)
	}

	snapshot := &Snapshot{
		Balances:           make([]BalanceEntry, 0, len(accounts)),
		RecentTransactions: make([]TransactionEntry, 0, len(transactions)),
		TotalBalance:       decimal.Zero,
	}

	for _, account := range accounts {
		snapshot.Balances = append(snapshot.Balances, BalanceEntry{
			Name:        account.Name,
			Balance:     account.Balance,
			AccountType: string(account.AccountType),
		})
		snapshot.TotalBalance = snapshot.TotalBalance.Add(account.Balance)
	}

	for _, tx := range transactions {
		snapshot.RecentTransactions = append(snapshot.RecentTransactions, toTransactionEntry(tx))
	}

	return snapshot, nil
}

func toTransactionEntry(tx *ledger.Transaction) TransactionEntry {
	return TransactionEntry{
		Date:        tx.Date.Format("2006-01-02"),
		Description: tx.Description,
		Amount:      tx.Amount,
		Category:    tx.Category,
	}
}
