package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 2048

	anthropicVersion = "2023-06-01"
)

var (
	// ErrAuth is returned when the API rejects the key.
	ErrAuth = errors.New("assist: authentication failed")
	// ErrNetwork is returned when the API could not be reached.
	ErrNetwork = errors.New("assist: network error")
	// ErrEmptyResponse is returned when the API answers without text.
	ErrEmptyResponse = errors.New("assist: empty response")
)

var _ Suggester = (*Client)(nil)

// Config holds configuration for the Anthropic client.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string
	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string
	// Model is the model to use.
	Model string
	// MaxTokens caps the length of a suggestion.
	MaxTokens int
	// Timeout is the request timeout.
	Timeout time.Duration
	// RequestsPerMinute limits the request rate; 0 disables limiting.
	RequestsPerMinute float64
	// HTTPClient overrides the transport. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client calls the Anthropic messages API.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

type messagesRequest struct {
	Model     string            `json:"model"`
	Messages  []messagesMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrAuth)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		http:      httpClient,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = newLimiter(cfg.RequestsPerMinute)
	}
	return c, nil
}

// newLimiter allows perMinute requests per minute with no burst.
func newLimiter(perMinute float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(perMinute/60), 1)
}

// Model returns the model name in use.
func (c *Client) Model() string {
	return c.model
}

// Suggest asks the model to perform task on text.
func (c *Client) Suggest(ctx context.Context, task Task, text string) (string, error) {
	prompt, err := promptFor(task, text)
	if err != nil {
		return "", err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		Messages:  []messagesMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w (status %d)", ErrAuth, resp.StatusCode)
	}

	var msg messagesResponse
	if err := json.Unmarshal(raw, &msg); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("assist: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return "", fmt.Errorf("decode response: %w", err)
	}
	if msg.Error != nil {
		return "", fmt.Errorf("assist: %s: %s", msg.Error.Type, msg.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("assist: status %d", resp.StatusCode)
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	text = strings.TrimSpace(out.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
