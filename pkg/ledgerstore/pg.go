package ledgerstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/balai/budget-middleware/pkg/ledger"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the ledger store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) CreateAccount(ctx context.Context, account *ledger.Account) error {
	dao := toAccountDao(account)

	_, err := s.db.NewInsert().
		Model(dao).
		Returning("id, created_at, updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	account.ID = dao.ID
	return nil
}

func (s *pgStore) UpsertAccountByExternalID(ctx context.Context, account *ledger.Account) error {
	if account.ExternalID == "" {
		return fmt.Errorf("account upsert requires an external id")
	}

	dao := toAccountDao(account)

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (external_id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("account_type = EXCLUDED.account_type").
		Set("balance = EXCLUDED.balance").
		Set("available_balance = EXCLUDED.available_balance").
		Set("currency_code = EXCLUDED.currency_code").
		Set("updated_at = NOW()").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert account %s: %w", account.ExternalID, err)
	}

	account.ID = dao.ID
	return nil
}

func (s *pgStore) GetAccountByExternalID(ctx context.Context, externalID string) (*ledger.Account, error) {
	dao := new(AccountDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("external_id = ?", externalID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return toAccount(dao)
}

func (s *pgStore) ListAccountsByUserID(ctx context.Context, userID int64) ([]*ledger.Account, error) {
	var daos []AccountDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("user_id = ?", userID).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]*ledger.Account, len(daos))
	for i := range daos {
		acc, err := toAccount(&daos[i])
		if err != nil {
			return nil, err
		}
		accounts[i] = acc
	}
	return accounts, nil
}

func (s *pgStore) UpdateAccountBalances(
	ctx context.Context,
	externalID string,
	balance decimal.Decimal,
	available *decimal.Decimal,
) error {
	q := s.db.NewUpdate().
		Model((*AccountDao)(nil)).
		Set("balance = ?", balance.StringFixed(2)).
		Set("updated_at = NOW()").
		Where("external_id = ?", externalID)

	if available != nil {
		q = q.Set("available_balance = ?", available.StringFixed(2))
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update balances for %s: %w", externalID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *pgStore) CreateTransaction(ctx context.Context, tx *ledger.Transaction) error {
	dao := toTransactionDao(tx)

	_, err := s.db.NewInsert().
		Model(dao).
		Returning("id, created_at, updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	tx.ID = dao.ID
	return nil
}

func (s *pgStore) UpsertTransactionByExternalID(ctx context.Context, tx *ledger.Transaction) error {
	if tx.ExternalID == "" {
		return fmt.Errorf("transaction upsert requires an external id")
	}

	dao := toTransactionDao(tx)

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (external_id) DO UPDATE").
		Set("account_id = EXCLUDED.account_id").
		Set("amount = EXCLUDED.amount").
		Set("description = EXCLUDED.description").
		Set("date = EXCLUDED.date").
		Set("category = EXCLUDED.category").
		Set("merchant_name = EXCLUDED.merchant_name").
		Set("updated_at = NOW()").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert transaction %s: %w", tx.ExternalID, err)
	}

	tx.ID = dao.ID
	return nil
}

func (s *pgStore) DeleteTransactionByExternalID(ctx context.Context, externalID string) error {
	_, err := s.db.NewDelete().
		Model((*TransactionDao)(nil)).
		Where("external_id = ?", externalID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", externalID, err)
	}
	return nil
}

func (s *pgStore) GetTransactionByExternalID(ctx context.Context, externalID string) (*ledger.Transaction, error) {
	dao := new(TransactionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("t.external_id = ?", externalID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return toTransaction(dao)
}

func (s *pgStore) ListRecentTransactionsByUserID(ctx context.Context, userID int64, limit int) ([]*ledger.Transaction, error) {
	var daos []TransactionDao
	err := s.db.NewSelect().
		Model(&daos).
		Join("JOIN accounts AS a ON a.id = t.account_id").
		Where("a.user_id = ?", userID).
		Order("t.date DESC", "t.created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent transactions: %w", err)
	}

	txs := make([]*ledger.Transaction, len(daos))
	for i := range daos {
		tx, err := toTransaction(&daos[i])
		if err != nil {
			return nil, err
		}
		txs[i] = tx
	}
	return txs, nil
}

func (s *pgStore) CountTransactionsByUserID(ctx context.Context, userID int64) (int, error) {
	count, err := s.db.NewSelect().
		Model((*TransactionDao)(nil)).
		Join("JOIN accounts AS a ON a.id = t.account_id").
		Where("a.user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
