package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/balai/budget-middleware/pkg/assistant"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		APIKey:  "test-api-key",
		BaseURL: srv.URL,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func testRequest() *assistant.Request {
	return &assistant.Request{
		UserID: 42,
		Snapshot: &assistant.Snapshot{
			Balances: []assistant.BalanceEntry{
				{Name: "Checking", Balance: decimal.RequireFromString("1500.25"), AccountType: "checking"},
			},
			TotalBalance: decimal.RequireFromString("1500.25"),
		},
		Question: "How much did I spend on coffee?",
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(Config{APIKey: "key"}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "https://api.anthropic.com/v1", client.config.BaseURL)
	assert.Equal(t, "claude-3-5-haiku-20241022", client.config.Model)
	assert.Equal(t, 600, client.config.MaxTokens)
	assert.Equal(t, 0.7, client.config.Temperature)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestRespond(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-3-5-haiku-20241022", body["model"])
		assert.Equal(t, float64(600), body["max_tokens"])
		assert.NotEmpty(t, body["system"])
		assert.Equal(t, "42", body["metadata"].(map[string]any)["user_id"])

		messages := body["messages"].([]any)
		require.Len(t, messages, 1)
		content := messages[0].(map[string]any)["content"].(string)
		assert.True(t, strings.HasPrefix(content, "USER_CONTEXT:\n"))
		assert.Contains(t, content, `"total_balance":"1500.25"`)
		assert.Contains(t, content, "QUESTION: How much did I spend on coffee?")

		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "You spent $45 on coffee this month."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 320, "output_tokens": 18}
		}`))
	})

	reply, err := client.Respond(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "You spent $45 on coffee this month.", reply)
}

func TestRespondServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Respond(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrAssistantUnavailable)
}

func TestRespondEmptyContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": [], "stop_reason": "end_turn"}`))
	})

	_, err := client.Respond(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrAssistantUnavailable)
}
