package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 1024
	apiVersion       = "2023-06-01"
)

// Config configures the Anthropic messages client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
}

// Client runs completions against the Anthropic messages API. It implements
// tiles.AssistantClient. An empty API key reports tiles.ErrNotConnected so
// the assistant tile renders a setup prompt instead of failing.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// New builds an Anthropic client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: baseURL, apiKey: cfg.APIKey, model: model, maxTokens: maxTokens, client: httpClient}
}

type messageRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

const suggestSystem = `You assist with a personal dashboard. Reply with a JSON array only, no prose. Each element is {"text": "...", "tile_type": "..."} where tile_type names the tile the suggestion refers to, or is omitted.`

// Suggest implements tiles.AssistantClient. The model is instructed to reply
// with a bare JSON array of suggestions.
func (c *Client) Suggest(ctx context.Context, prompt string) ([]tiles.Suggestion, error) {
	raw, err := c.complete(ctx, suggestSystem, prompt)
	if err != nil {
		return nil, err
	}
	var suggestions []tiles.Suggestion
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &suggestions); err != nil {
		// A non-JSON reply still carries usable text.
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil, &tiles.UpstreamError{TileType: tiles.TypeClaude, Message: "empty completion"}
		}
		return []tiles.Suggestion{{Text: trimmed}}, nil
	}
	return suggestions, nil
}

// Answer implements tiles.AssistantClient.
func (c *Client) Answer(ctx context.Context, prompt string) (string, error) {
	raw, err := c.complete(ctx, "You assist with a personal dashboard. Answer briefly.", prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", tiles.ErrNotConnected
	}
	payload := messageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("anthropic: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("anthropic: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &tiles.NetworkError{TileType: tiles.TypeClaude, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", tiles.ErrNotConnected
	}

	var decoded messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &tiles.UpstreamError{TileType: tiles.TypeClaude, Message: fmt.Sprintf("decode response: %v", err)}
	}
	if resp.StatusCode >= 300 {
		message := http.StatusText(resp.StatusCode)
		if decoded.Error != nil {
			message = decoded.Error.Message
		}
		return "", &tiles.UpstreamError{TileType: tiles.TypeClaude, Status: resp.StatusCode, Message: message}
	}

	var text strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}

// extractJSONArray pulls the first top-level JSON array out of a completion
// that may be wrapped in code fences or prose.
func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return raw
	}
	return raw[start : end+1]
}
