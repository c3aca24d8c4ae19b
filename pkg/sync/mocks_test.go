package sync

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/balai/budget-middleware/pkg/ledger"
	"github.com/balai/budget-middleware/pkg/linkage"
	"github.com/balai/budget-middleware/pkg/provider"
)

// MockLedgerStore is a mock implementation of ledgerstore.Store
type MockLedgerStore struct {
	CreateAccountFunc                  func(ctx context.Context, account *ledger.Account) error
	UpsertAccountByExternalIDFunc      func(ctx context.Context, account *ledger.Account) error
	GetAccountByExternalIDFunc         func(ctx context.Context, externalID string) (*ledger.Account, error)
	ListAccountsByUserIDFunc           func(ctx context.Context, userID int64) ([]*ledger.Account, error)
	UpdateAccountBalancesFunc          func(ctx context.Context, externalID string, balance decimal.Decimal, available *decimal.Decimal) error
	CreateTransactionFunc              func(ctx context.Context, tx *ledger.Transaction) error
	UpsertTransactionByExternalIDFunc  func(ctx context.Context, tx *ledger.Transaction) error
	DeleteTransactionByExternalIDFunc  func(ctx context.Context, externalID string) error
	GetTransactionByExternalIDFunc     func(ctx context.Context, externalID string) (*ledger.Transaction, error)
	ListRecentTransactionsByUserIDFunc func(ctx context.Context, userID int64, limit int) ([]*ledger.Transaction, error)
	CountTransactionsByUserIDFunc      func(ctx context.Context, userID int64) (int, error)
}

func (m *MockLedgerStore) CreateAccount(ctx context.Context, account *ledger.Account) error {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, account)
	}
	return nil
}

func (m *MockLedgerStore) UpsertAccountByExternalID(ctx context.Context, account *ledger.Account) error {
	if m.UpsertAccountByExternalIDFunc != nil {
		return m.UpsertAccountByExternalIDFunc(ctx, account)
	}
	return nil
}

func (m *MockLedgerStore) GetAccountByExternalID(ctx context.Context, externalID string) (*ledger.Account, error) {
	if m.GetAccountByExternalIDFunc != nil {
		return m.GetAccountByExternalIDFunc(ctx, externalID)
	}
	return nil, nil
}

func (m *MockLedgerStore) ListAccountsByUserID(ctx context.Context, userID int64) ([]*ledger.Account, error) {
	if m.ListAccountsByUserIDFunc != nil {
		return m.ListAccountsByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockLedgerStore) UpdateAccountBalances(
	ctx context.Context,
	externalID string,
	balance decimal.Decimal,
	available *decimal.Decimal,
) error {
	if m.UpdateAccountBalancesFunc != nil {
		return m.UpdateAccountBalancesFunc(ctx, externalID, balance, available)
	}
	return nil
}

func (m *MockLedgerStore) CreateTransaction(ctx context.Context, tx *ledger.Transaction) error {
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, tx)
	}
	return nil
}

func (m *MockLedgerStore) UpsertTransactionByExternalID(ctx context.Context, tx *ledger.Transaction) error {
	if m.UpsertTransactionByExternalIDFunc != nil {
		return m.UpsertTransactionByExternalIDFunc(ctx, tx)
	}
	return nil
}

func (m *MockLedgerStore) DeleteTransactionByExternalID(ctx context.Context, externalID string) error {
	if m.DeleteTransactionByExternalIDFunc != nil {
		return m.DeleteTransactionByExternalIDFunc(ctx, externalID)
	}
	return nil
}

func (m *MockLedgerStore) GetTransactionByExternalID(ctx context.Context, externalID string) (*ledger.Transaction, error) {
	if m.GetTransactionByExternalIDFunc != nil {
		return m.GetTransactionByExternalIDFunc(ctx, externalID)
	}
	return nil, nil
}

func (m *MockLedgerStore) ListRecentTransactionsByUserID(ctx context.Context, userID int64, limit int) ([]*ledger.Transaction, error) {
	if m.ListRecentTransactionsByUserIDFunc != nil {
		return m.ListRecentTransactionsByUserIDFunc(ctx, userID, limit)
	}
	return nil, nil
}

func (m *MockLedgerStore) CountTransactionsByUserID(ctx context.Context, userID int64) (int, error) {
	if m.CountTransactionsByUserIDFunc != nil {
		return m.CountTransactionsByUserIDFunc(ctx, userID)
	}
	return 0, nil
}

// MockProviderClient is a mock implementation of provider.Client
type MockProviderClient struct {
	CreateLinkTokenFunc     func(ctx context.Context, userID int64) (string, error)
	ExchangePublicTokenFunc func(ctx context.Context, publicToken string) (string, string, error)
	GetAccountsFunc         func(ctx context.Context, accessToken string) ([]provider.AccountRecord, error)
	GetBalancesFunc         func(ctx context.Context, accessToken string) ([]provider.AccountRecord, error)
	GetTransactionsFunc     func(ctx context.Context, accessToken string, startDate, endDate time.Time) ([]provider.TransactionRecord, error)
	SyncTransactionsFunc    func(ctx context.Context, accessToken, cursor string) (*provider.SyncPage, error)
}

func (m *MockProviderClient) CreateLinkToken(ctx context.Context, userID int64) (string, error) {
	if m.CreateLinkTokenFunc != nil {
		return m.CreateLinkTokenFunc(ctx, userID)
	}
	return "", nil
}

func (m *MockProviderClient) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	if m.ExchangePublicTokenFunc != nil {
		return m.ExchangePublicTokenFunc(ctx, publicToken)
	}
	return "", "", nil
}

func (m *MockProviderClient) GetAccounts(ctx context.Context, accessToken string) ([]provider.AccountRecord, error) {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, accessToken)
	}
	return nil, nil
}

func (m *MockProviderClient) GetBalances(ctx context.Context, accessToken string) ([]provider.AccountRecord, error) {
	if m.GetBalancesFunc != nil {
		return m.GetBalancesFunc(ctx, accessToken)
	}
	return nil, nil
}

func (m *MockProviderClient) GetTransactions(
	ctx context.Context,
	accessToken string,
	startDate, endDate time.Time,
) ([]provider.TransactionRecord, error) {
	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, accessToken, startDate, endDate)
	}
	return nil, nil
}

func (m *MockProviderClient) SyncTransactions(ctx context.Context, accessToken, cursor string) (*provider.SyncPage, error) {
	if m.SyncTransactionsFunc != nil {
		return m.SyncTransactionsFunc(ctx, accessToken, cursor)
	}
	return &provider.SyncPage{}, nil
}

// MockLinkageStore is a mock implementation of linkagestore.Store
type MockLinkageStore struct {
	GetFunc           func(ctx context.Context, userID int64) (*linkage.Linkage, error)
	GetByItemIDFunc   func(ctx context.Context, itemID string) (*linkage.Linkage, error)
	UpsertFunc        func(ctx context.Context, lnk *linkage.Linkage) error
	AdvanceCursorFunc func(ctx context.Context, userID int64, from, to string) (bool, error)
	DeleteFunc        func(ctx context.Context, userID int64) error
}

func (m *MockLinkageStore) Get(ctx context.Context, userID int64) (*linkage.Linkage, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockLinkageStore) GetByItemID(ctx context.Context, itemID string) (*linkage.Linkage, error) {
	if m.GetByItemIDFunc != nil {
		return m.GetByItemIDFunc(ctx, itemID)
	}
	return nil, nil
}

func (m *MockLinkageStore) Upsert(ctx context.Context, lnk *linkage.Linkage) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, lnk)
	}
	return nil
}

func (m *MockLinkageStore) AdvanceCursor(ctx context.Context, userID int64, from, to string) (bool, error) {
	if m.AdvanceCursorFunc != nil {
		return m.AdvanceCursorFunc(ctx, userID, from, to)
	}
	return true, nil
}

func (m *MockLinkageStore) Delete(ctx context.Context, userID int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID)
	}
	return nil
}
