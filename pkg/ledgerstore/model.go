package ledgerstore

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/balai/budget-middleware/pkg/ledger"
)

// AccountDao maps directly to the 'accounts' table in PostgreSQL.
// external_id is nullable; when present it is unique, which is what makes
// account reconciliation idempotent.
type AccountDao struct {
	bun.BaseModel    `bun:"table:accounts,alias:a"`
	ID               int64     `bun:"id,pk,autoincrement"`
	UserID           int64     `bun:"user_id,notnull"`
	Name             string    `bun:"name,notnull,type:varchar(255)"`
	AccountType      string    `bun:"account_type,notnull,type:varchar(20),default:'other'"`
	Balance          string    `bun:"balance,notnull,type:numeric(12,2),default:'0'"`
	AvailableBalance *string   `bun:"available_balance,type:numeric(12,2)"`
	CurrencyCode     string    `bun:"currency_code,notnull,type:varchar(3),default:'USD'"`
	ExternalID       *string   `bun:"external_id,unique,type:varchar(255)"`
	CreatedAt        time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// TransactionDao maps directly to the 'transactions' table in PostgreSQL.
// Rows are owned by an account; deleting the account cascades to its transactions.
type TransactionDao struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`
	ID            int64       `bun:"id,pk,autoincrement"`
	AccountID     int64       `bun:"account_id,notnull"`
	Account       *AccountDao `bun:"rel:belongs-to,join:account_id=id,on_delete:CASCADE"`
	Amount        string      `bun:"amount,notnull,type:numeric(12,2)"`
	Description   string      `bun:"description,notnull,type:varchar(500)"`
	Date          time.Time   `bun:"date,notnull,type:date"`
	Category      *string     `bun:"category,type:varchar(255)"`
	MerchantName  *string     `bun:"merchant_name,type:varchar(255)"`
	ExternalID    *string     `bun:"external_id,unique,type:varchar(255)"`
	CreatedAt     time.Time   `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt     time.Time   `bun:"updated_at,nullzero,default:current_timestamp"`
}

func toAccountDao(acc *ledger.Account) *AccountDao {
	dao := &AccountDao{
		ID:           acc.ID,
		UserID:       acc.UserID,
		Name:         acc.Name,
		AccountType:  string(acc.AccountType),
		Balance:      acc.Balance.StringFixed(2),
		CurrencyCode: acc.CurrencyCode,
	}
	if acc.AvailableBalance != nil {
		s := acc.AvailableBalance.StringFixed(2)
		dao.AvailableBalance = &s
	}
	if acc.ExternalID != "" {
		dao.ExternalID = &acc.ExternalID
	}
	return dao
}

func toAccount(dao *AccountDao) (*ledger.Account, error) {
	balance, err := decimal.NewFromString(dao.Balance)
	if err != nil {
		return nil, err
	}

	acc := &ledger.Account{
		ID:           dao.ID,
		UserID:       dao.UserID,
		Name:         dao.Name,
		AccountType:  ledger.AccountType(dao.AccountType),
		Balance:      balance,
		CurrencyCode: dao.CurrencyCode,
		CreatedAt:    dao.CreatedAt,
		UpdatedAt:    dao.UpdatedAt,
	}
	if dao.AvailableBalance != nil {
		available, err := decimal.NewFromString(*dao.AvailableBalance)
		if err != nil {
			return nil, err
		}
		acc.AvailableBalance = &available
	}
	if dao.ExternalID != nil {
		acc.ExternalID = *dao.ExternalID
	}
	return acc, nil
}

func toTransactionDao(tx *ledger.Transaction) *TransactionDao {
	dao := &TransactionDao{
		ID:          tx.ID,
		AccountID:   tx.AccountID,
		Amount:      tx.Amount.StringFixed(2),
		Description: tx.Description,
		Date:        tx.Date,
	}
	if tx.Category != "" {
		dao.Category = &tx.Category
	}
	if tx.MerchantName != "" {
		dao.MerchantName = &tx.MerchantName
	}
	if tx.ExternalID != "" {
		dao.ExternalID = &tx.ExternalID
	}
	return dao
}

func toTransaction(dao *TransactionDao) (*ledger.Transaction, error) {
	amount, err := decimal.NewFromString(dao.Amount)
	if err != nil {
		return nil, err
	}

	tx := &ledger.Transaction{
		ID:          dao.ID,
		AccountID:   dao.AccountID,
		Amount:      amount,
		Description: dao.Description,
		Date:        dao.Date,
		CreatedAt:   dao.CreatedAt,
		UpdatedAt:   dao.UpdatedAt,
	}
	if dao.Category != nil {
		tx.Category = *dao.Category
	}
	if dao.MerchantName != nil {
		tx.MerchantName = *dao.MerchantName
	}
	if dao.ExternalID != nil {
		tx.ExternalID = *dao.ExternalID
	}
	return tx, nil
}
