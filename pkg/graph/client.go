package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

// TokenProvider hands out a per-user OAuth token source. Returning
// tiles.ErrNotConnected means the user never linked the account; the tile
// renders a connect prompt instead of an error card.
type TokenProvider interface {
	TokenForUser(ctx context.Context, userID string) (oauth2.TokenSource, error)
}

// StaticTokens serves fixed tokens from memory, mostly for tests and demos.
type StaticTokens map[string]*oauth2.Token

// TokenForUser implements TokenProvider.
func (s StaticTokens) TokenForUser(_ context.Context, userID string) (oauth2.TokenSource, error) {
	token, ok := s[userID]
	if !ok || token == nil {
		return nil, tiles.ErrNotConnected
	}
	return oauth2.StaticTokenSource(token), nil
}

// Config configures the Microsoft Graph client.
type Config struct {
	BaseURL    string
	Tokens     TokenProvider
	HTTPClient *http.Client
}

// Client reads mail, calendar, and tasks from Microsoft Graph. It implements
// tiles.MailSource, tiles.CalendarSource, and tiles.TaskSource.
type Client struct {
	baseURL string
	tokens  TokenProvider
	client  *http.Client
}

// New builds a Graph client.
func New(cfg Config) (*Client, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("graph: token provider is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, tokens: cfg.Tokens, client: httpClient}, nil
}

func (c *Client) do(ctx context.Context, userID, tileType, method, path string, payload any, target any) error {
	source, err := c.tokens.TokenForUser(ctx, userID)
	if err != nil {
		return err
	}
	token, err := source.Token()
	if err != nil {
		return tiles.ErrNotConnected
	}

	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("graph: encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("graph: build request: %w", err)
	}
	token.SetAuthHeader(req)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &tiles.NetworkError{TileType: tileType, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return tiles.ErrNotConnected
	case resp.StatusCode >= 300:
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &tiles.UpstreamError{TileType: tileType, Status: resp.StatusCode, Message: buf.String()}
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &tiles.UpstreamError{TileType: tileType, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}
