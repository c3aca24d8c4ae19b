// Package anthropic implements the assistant.Responder interface against
// the Anthropic Messages API.
package anthropic

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
	"go.uber.org/zap"

	"github.com/balai/budget-middleware/pkg/assistant"
)

const systemPrompt = "You are bal.ai, a personal finance assistant. Use the provided JSON context to answer questions precisely. Be helpful, concise, and practical."

// ErrAssistantUnavailable indicates the reasoning service could not
// produce a reply. Callers broadcast an error event instead of retrying.
var ErrAssistantUnavailable = errors.New("assistant unavailable")

// Config holds the Anthropic client settings
type Config struct {
	APIKey         string
	BaseURL        string        `default:"https://api.anthropic.com/v1"`
	Model          string        `default:"claude-3-5-haiku-20241022"`
	MaxTokens      int           `default:"600"`
	Temperature    float64       `default:"0.7"`
	RequestTimeout time.Duration `default:"60s"`
}

// Client is an Anthropic Messages API client
type Client struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a new Anthropic client
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if err := defaults.Set(&config); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if config.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	return &Client{
		config: config,
		client: &http.Client{Timeout: config.RequestTimeout},
		logger: logger,
	}, nil
}

type messagesRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	Temperature float64          `json:"temperature,omitempty"`
	System      string           `json:"system,omitempty"`
	Messages    []messageParam   `json:"messages"`
	Metadata    *requestMetadata `json:"metadata,omitempty"`
}

type messageParam struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type requestMetadata struct {
	UserID string `json:"user_id"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Respond answers a question against the financial context snapshot.
// The snapshot is serialized as JSON and prepended to the question in a
// single user message.
func (c *Client) Respond(ctx context.Context, req *assistant.Request) (string, error) {
	contextJSON, err := json.Marshal(req.Snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to marshal context: %w", err)
	}

	apiReq := messagesRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		System:      systemPrompt,
		Messages: []messageParam{
			{
				Role:    "user",
				Content: fmt.Sprintf("USER_CONTEXT:\n%s\n\nQUESTION: %s", contextJSON, req.Question),
			},
		},
		Metadata: &requestMetadata{UserID: fmt.Sprintf("%d", req.UserID)},
	}

	reqBody, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/messages", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.config.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrAssistantUnavailable, resp.StatusCode, string(body))
	}

	var apiResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrAssistantUnavailable, err)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("%w: no content in response", ErrAssistantUnavailable)
	}

	c.logger.Info("assistant reply",
		zap.Int64("user_id", req.UserID),
		zap.Int("input_tokens", apiResp.Usage.InputTokens),
		zap.Int("output_tokens", apiResp.Usage.OutputTokens),
	)

	return apiResp.Content[0].Text, nil
}
