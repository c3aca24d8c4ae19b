package plaid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balai/budget-middleware/pkg/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		ClientID: "test-client-id",
		Secret:   "test-secret",
		BaseURL:  srv.URL,
	})
	require.NoError(t, err)
	return client
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(Config{
		ClientID: "id",
		Secret:   "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "sandbox", client.config.Environment)
	assert.Equal(t, "https://sandbox.plaid.com", client.config.BaseURL)
	assert.Equal(t, "Balai Budget App", client.config.ClientName)
	assert.Equal(t, []string{"US"}, client.config.CountryCodes)
	assert.Equal(t, "en", client.config.Language)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Secret: "secret"})
	assert.Error(t, err)

	_, err = NewClient(Config{ClientID: "id"})
	assert.Error(t, err)

	_, err = NewClient(Config{ClientID: "id", Secret: "secret", Environment: "staging"})
	assert.Error(t, err)
}

func TestCreateLinkToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/link/token/create", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-client-id", body["client_id"])
		assert.Equal(t, "test-secret", body["secret"])
		assert.Equal(t, "42", body["user"].(map[string]any)["client_user_id"])
		assert.Equal(t, []any{"transactions"}, body["products"])

		_ = json.NewEncoder(w).Encode(map[string]string{"link_token": "link-sandbox-abc"})
	})

	token, err := client.CreateLinkToken(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "link-sandbox-abc", token)
}

func TestExchangePublicToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/item/public_token/exchange", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "public-sandbox-xyz", body["public_token"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "access-sandbox-123",
			"item_id":      "item-abc",
		})
	})

	accessToken, itemID, err := client.ExchangePublicToken(context.Background(), "public-sandbox-xyz")
	require.NoError(t, err)
	assert.Equal(t, "access-sandbox-123", accessToken)
	assert.Equal(t, "item-abc", itemID)
}

func TestGetAccounts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/get", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"accounts": [
				{
					"account_id": "acc-1",
					"name": "Checking",
					"type": "depository",
					"balances": {"current": 1500.25, "available": 1400.00, "iso_currency_code": "USD"}
				},
				{
					"account_id": "acc-2",
					"name": "Visa",
					"type": "credit",
					"balances": {"current": null, "available": null, "iso_currency_code": ""}
				}
			]
		}`))
	})

	accounts, err := client.GetAccounts(context.Background(), "access-token")
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	assert.Equal(t, "acc-1", accounts[0].ExternalID)
	assert.Equal(t, "depository", accounts[0].Type)
	assert.Equal(t, "1500.25", accounts[0].CurrentBalance.String())
	require.NotNil(t, accounts[0].AvailableBalance)
	assert.Equal(t, "1400", accounts[0].AvailableBalance.String())
	assert.Equal(t, "USD", accounts[0].CurrencyCode)

	// Null balances fall back to zero and USD
	assert.True(t, accounts[1].CurrentBalance.IsZero())
	assert.Nil(t, accounts[1].AvailableBalance)
	assert.Equal(t, "USD", accounts[1].CurrencyCode)
}

func TestSyncTransactions(t *testing.T) {
	var gotCursor string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/sync", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotCursor, _ = body["cursor"].(string)

		_, _ = w.Write([]byte(`{
			"added": [
				{
					"transaction_id": "txn-1",
					"account_id": "acc-1",
					"amount": 12.50,
					"date": "2024-03-15",
					"name": "Coffee Shop",
					"merchant_name": "Blue Bottle",
					"category": ["Food and Drink", "Coffee"]
				}
			],
			"modified": [],
			"removed": [{"transaction_id": "txn-0"}],
			"next_cursor": "cursor-2",
			"has_more": true
		}`))
	})

	page, err := client.SyncTransactions(context.Background(), "access-token", "cursor-1")
	require.NoError(t, err)

	assert.Equal(t, "cursor-1", gotCursor)
	require.Len(t, page.Added, 1)
	assert.Equal(t, "txn-1", page.Added[0].ExternalID)
	assert.Equal(t, "12.5", page.Added[0].Amount.String())
	assert.Equal(t, "2024-03-15", page.Added[0].Date.Format(dateLayout))
	assert.Equal(t, []string{"Food and Drink", "Coffee"}, page.Added[0].Categories)
	require.Len(t, page.Removed, 1)
	assert.Equal(t, "txn-0", page.Removed[0].ExternalID)
	assert.Equal(t, "cursor-2", page.NextCursor)
	assert.True(t, page.HasMore)
}

func TestSyncTransactionsOmitsEmptyCursor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasCursor := body["cursor"]
		assert.False(t, hasCursor, "empty cursor must be omitted from the request")

		_, _ = w.Write([]byte(`{"added": [], "modified": [], "removed": [], "next_cursor": "cursor-1", "has_more": false}`))
	})

	_, err := client.SyncTransactions(context.Background(), "access-token", "")
	require.NoError(t, err)
}

func TestServerErrorMapsToUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetAccounts(context.Background(), "access-token")
	assert.ErrorIs(t, err, provider.ErrProviderUnavailable)
}

func TestAPIErrorDecoded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{
			"error_type": "INVALID_INPUT",
			"error_code": "INVALID_ACCESS_TOKEN",
			"error_message": "could not find matching access token",
			"request_id": "req-1"
		}`))
	})

	_, err := client.GetAccounts(context.Background(), "bad-token")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "INVALID_ACCESS_TOKEN", apiErr.ErrorCode)
	assert.NotErrorIs(t, err, provider.ErrProviderUnavailable)
}
