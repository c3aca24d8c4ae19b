// Package plaid implements the provider.Client interface against the
// Plaid REST API. Every endpoint is a POST with the client credentials
// embedded in the JSON body.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/creasty/defaults"

	"github.com/balai/budget-middleware/internal/metrics"
	"github.com/balai/budget-middleware/pkg/provider"
)

// Config holds the Plaid client settings
type Config struct {
	Environment    string        `default:"sandbox"`
	ClientID       string
	Secret         string
	ClientName     string        `default:"Balai Budget App"`
	CountryCodes   []string      `default:"[\"US\"]"`
	Language       string        `default:"en"`
	WebhookURL     string
	BaseURL        string
	RequestTimeout time.Duration `default:"30s"`
}

// Client is a Plaid API client
type Client struct {
	config Config
	client *http.Client
}

var environmentHosts = map[string]string{
	"sandbox":     "https://sandbox.plaid.com",
	"development": "https://development.plaid.com",
	"production":  "https://production.plaid.com",
}

// NewClient creates a new Plaid client
func NewClient(config Config) (*Client, error) {
	if err := defaults.Set(&config); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if config.ClientID == "" {
		return nil, errors.New("client id is required")
	}
	if config.Secret == "" {
		return nil, errors.New("secret is required")
	}

	if config.BaseURL == "" {
		host, ok := environmentHosts[config.Environment]
		if !ok {
			return nil, fmt.Errorf("unknown environment: %s", config.Environment)
		}
		config.BaseURL = host
	}

	return &Client{
		config: config,
		client: &http.Client{Timeout: config.RequestTimeout},
	}, nil
}

// APIError represents an error response from the Plaid API
type APIError struct {
	Status       int    `json:"-"`
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid API error (status %d): %s %s: %s", e.Status, e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

type linkTokenCreateRequest struct {
	ClientID     string        `json:"client_id"`
	Secret       string        `json:"secret"`
	ClientName   string        `json:"client_name"`
	Language     string        `json:"language"`
	CountryCodes []string      `json:"country_codes"`
	User         linkTokenUser `json:"user"`
	Products     []string      `json:"products"`
	Webhook      string        `json:"webhook,omitempty"`
}

type linkTokenUser struct {
	ClientUserID string `json:"client_user_id"`
}

type linkTokenCreateResponse struct {
	LinkToken string `json:"link_token"`
}

// CreateLinkToken creates a short-lived token for the frontend linking flow
func (c *Client) CreateLinkToken(ctx context.Context, userID int64) (string, error) {
	req := linkTokenCreateRequest{
		ClientID:     c.config.ClientID,
		Secret:       c.config.Secret,
		ClientName:   c.config.ClientName,
		Language:     c.config.Language,
		CountryCodes: c.config.CountryCodes,
		User:         linkTokenUser{ClientUserID: fmt.Sprintf("%d", userID)},
		Products:     []string{"transactions"},
		Webhook:      c.config.WebhookURL,
	}

	var resp linkTokenCreateResponse
	if err := c.post(ctx, "link_token_create", "/link/token/create", req, &resp); err != nil {
		return "", err
	}
	return resp.LinkToken, nil
}

type publicTokenExchangeRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	PublicToken string `json:"public_token"`
}

type publicTokenExchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

// ExchangePublicToken swaps a public token for a long-lived access credential
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	req := publicTokenExchangeRequest{
		ClientID:    c.config.ClientID,
		Secret:      c.config.Secret,
		PublicToken: publicToken,
	}

	var resp publicTokenExchangeResponse
	if err := c.post(ctx, "public_token_exchange", "/item/public_token/exchange", req, &resp); err != nil {
		return "", "", err
	}
	return resp.AccessToken, resp.ItemID, nil
}

type accessTokenRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
}

type accountsResponse struct {
	Accounts []accountData `json:"accounts"`
}

// GetAccounts fetches the accounts reachable through the credential
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]provider.AccountRecord, error) {
	req := accessTokenRequest{
		ClientID:    c.config.ClientID,
		Secret:      c.config.Secret,
		AccessToken: accessToken,
	}

	var resp accountsResponse
	if err := c.post(ctx, "accounts_get", "/accounts/get", req, &resp); err != nil {
		return nil, err
	}
	return toAccountRecords(resp.Accounts), nil
}

// GetBalances fetches accounts with real-time balance data
func (c *Client) GetBalances(ctx context.Context, accessToken string) ([]provider.AccountRecord, error) {
	req := accessTokenRequest{
		ClientID:    c.config.ClientID,
		Secret:      c.config.Secret,
		AccessToken: accessToken,
	}

	var resp accountsResponse
	if err := c.post(ctx, "balances_get", "/accounts/balance/get", req, &resp); err != nil {
		return nil, err
	}
	return toAccountRecords(resp.Accounts), nil
}

type transactionsGetRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type transactionsGetResponse struct {
	Transactions []transactionData `json:"transactions"`
}

// GetTransactions fetches transactions within the date window
func (c *Client) GetTransactions(ctx context.Context, accessToken string, startDate, endDate time.Time) ([]provider.TransactionRecord, error) {
	req := transactionsGetRequest{
		ClientID:    c.config.ClientID,
		Secret:      c.config.Secret,
		AccessToken: accessToken,
		StartDate:   startDate.Format(dateLayout),
		EndDate:     endDate.Format(dateLayout),
	}

	var resp transactionsGetResponse
	if err := c.post(ctx, "transactions_get", "/transactions/get", req, &resp); err != nil {
		return nil, err
	}
	return toTransactionRecords(resp.Transactions), nil
}

type transactionsSyncRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
	Cursor      string `json:"cursor,omitempty"`
}

type transactionsSyncResponse struct {
	Added      []transactionData    `json:"added"`
	Modified   []transactionData    `json:"modified"`
	Removed    []removedTransaction `json:"removed"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
}

type removedTransaction struct {
	TransactionID string `json:"transaction_id"`
}

// SyncTransactions fetches one page of the incremental transaction stream.
// An empty cursor starts from the beginning of the stream.
func (c *Client) SyncTransactions(ctx context.Context, accessToken, cursor string) (*provider.SyncPage, error) {
	req := transactionsSyncRequest{
		ClientID:    c.config.ClientID,
		Secret:      c.config.Secret,
		AccessToken: accessToken,
		Cursor:      cursor,
	}

	var resp transactionsSyncResponse
	if err := c.post(ctx, "transactions_sync", "/transactions/sync", req, &resp); err != nil {
		return nil, err
	}

	page := &provider.SyncPage{
		Added:      toTransactionRecords(resp.Added),
		Modified:   toTransactionRecords(resp.Modified),
		NextCursor: resp.NextCursor,
		HasMore:    resp.HasMore,
	}
	for _, removed := range resp.Removed {
		page.Removed = append(page.Removed, provider.RemovedTransaction{ExternalID: removed.TransactionID})
	}
	return page, nil
}

// post sends a JSON request and decodes the JSON response.
// 5xx responses and transport failures map to provider.ErrProviderUnavailable.
func (c *Client) post(ctx context.Context, operation, path string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(operation, "error").Inc()
		return fmt.Errorf("%w: %v", provider.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderRequestsTotal.WithLabelValues(operation, "error").Inc()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: status %d: %s", provider.ErrProviderUnavailable, resp.StatusCode, string(body))
		}

		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil {
			return fmt.Errorf("plaid API error (status %d): %s", resp.StatusCode, string(body))
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(operation, "error").Inc()
		return fmt.Errorf("failed to decode response: %w", err)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(operation, "ok").Inc()
	return nil
}
