package plaid

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/balai/budget-middleware/pkg/provider"
)

const dateLayout = "2006-01-02"

// apiDate unmarshals Plaid's bare YYYY-MM-DD date strings
type apiDate time.Time

func (d *apiDate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = apiDate(time.Time{})
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = apiDate(t)
	return nil
}

func (d apiDate) Time() time.Time {
	return time.Time(d)
}

type accountBalances struct {
	Current         *decimal.Decimal `json:"current"`
	Available       *decimal.Decimal `json:"available"`
	ISOCurrencyCode string           `json:"iso_currency_code"`
}

type accountData struct {
	AccountID string          `json:"account_id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balances  accountBalances `json:"balances"`
}

type transactionData struct {
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          apiDate         `json:"date"`
	Name          string          `json:"name"`
	MerchantName  string          `json:"merchant_name"`
	Category      []string        `json:"category"`
}

func toAccountRecords(accounts []accountData) []provider.AccountRecord {
	records := make([]provider.AccountRecord, len(accounts))
	for i, a := range accounts {
		current := decimal.Zero
		if a.Balances.Current != nil {
			current = *a.Balances.Current
		}
		currency := a.Balances.ISOCurrencyCode
		if currency == "" {
			currency = "USD"
		}
		records[i] = provider.AccountRecord{
			ExternalID:       a.AccountID,
			Name:             a.Name,
			Type:             a.Type,
			CurrentBalance:   current,
			AvailableBalance: a.Balances.Available,
			CurrencyCode:     currency,
		}
	}
	return records
}

func toTransactionRecords(transactions []transactionData) []provider.TransactionRecord {
	records := make([]provider.TransactionRecord, len(transactions))
	for i, t := range transactions {
		records[i] = provider.TransactionRecord{
			ExternalID:        t.TransactionID,
			AccountExternalID: t.AccountID,
			Amount:            t.Amount,
			Date:              t.Date.Time(),
			Description:       t.Name,
			MerchantName:      t.MerchantName,
			Categories:        t.Category,
		}
	}
	return records
}
