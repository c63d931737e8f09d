package onepagecrm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

const defaultBaseURL = "https://app.onepagecrm.com/api/v3"

// Config configures the OnePageCRM client.
type Config struct {
	BaseURL string
	// UserID and APIKey authenticate via HTTP basic auth.
	UserID     string
	APIKey     string
	HTTPClient *http.Client
}

// Client reads the pending next actions from OnePageCRM. It implements
// tiles.CRMSource.
type Client struct {
	baseURL string
	userID  string
	apiKey  string
	client  *http.Client
}

// New builds a OnePageCRM client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, userID: cfg.UserID, apiKey: cfg.APIKey, client: httpClient}
}

type actionStreamResponse struct {
	Data struct {
		ActionStream []struct {
			Contact struct {
				ID        string `json:"id"`
				FirstName string `json:"first_name"`
				LastName  string `json:"last_name"`
				Company   string `json:"company_name"`
				NextAction struct {
					ID   string `json:"id"`
					Text string `json:"text"`
					Date string `json:"date"`
				} `json:"next_action"`
			} `json:"contact"`
		} `json:"action_stream"`
	} `json:"data"`
}

// NextActions implements tiles.CRMSource via the action stream endpoint.
func (c *Client) NextActions(ctx context.Context, _ string) ([]tiles.CRMAction, error) {
	if c.userID == "" || c.apiKey == "" {
		return nil, tiles.ErrNotConnected
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/action_stream.json", nil)
	if err != nil {
		return nil, fmt.Errorf("onepagecrm: build request: %w", err)
	}
	req.SetBasicAuth(c.userID, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &tiles.NetworkError{TileType: tiles.TypeCRM, Err: err}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, tiles.ErrNotConnected
	case resp.StatusCode >= 300:
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return nil, &tiles.UpstreamError{TileType: tiles.TypeCRM, Status: resp.StatusCode, Message: buf.String()}
	}

	var decoded actionStreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &tiles.UpstreamError{TileType: tiles.TypeCRM, Message: fmt.Sprintf("decode response: %v", err)}
	}

	actions := make([]tiles.CRMAction, 0, len(decoded.Data.ActionStream))
	for _, entry := range decoded.Data.ActionStream {
		contact := entry.Contact
		name := contactLabel(contact.FirstName, contact.LastName, contact.Company)
		action := tiles.CRMAction{
			ID:         contact.NextAction.ID,
			Contact:    name,
			Text:       contact.NextAction.Text,
			ContactURL: fmt.Sprintf("https://app.onepagecrm.com/contacts/%s", contact.ID),
		}
		if contact.NextAction.Date != "" {
			if date, err := time.Parse("2006-01-02", contact.NextAction.Date); err == nil {
				action.Date = date
				action.HasDate = true
			}
		}
		actions = append(actions, action)
	}
	sortActionsByDate(actions)
	return actions, nil
}

// CompleteAction implements tiles.CRMActionCompleter by marking the action
// done via the actions endpoint.
func (c *Client) CompleteAction(ctx context.Context, _ string, actionID string) error {
	if c.userID == "" || c.apiKey == "" {
		return tiles.ErrNotConnected
	}
	if actionID == "" {
		return &tiles.ValidationError{Field: "task_id", Reason: "cannot be empty"}
	}

	payload, err := json.Marshal(map[string]string{"status": "done"})
	if err != nil {
		return fmt.Errorf("onepagecrm: encode request: %w", err)
	}
	url := fmt.Sprintf("%s/actions/%s.json", c.baseURL, actionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("onepagecrm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.userID, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return &tiles.NetworkError{TileType: tiles.TypeCRM, Err: err}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return tiles.ErrNotConnected
	case resp.StatusCode >= 300:
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &tiles.UpstreamError{TileType: tiles.TypeCRM, Status: resp.StatusCode, Message: buf.String()}
	}
	return nil
}

func contactLabel(first, last, company string) string {
	switch {
	case first != "" && last != "":
		return first + " " + last
	case last != "":
		return last
	case first != "":
		return first
	default:
		return company
	}
}

// sortActionsByDate puts dated actions first, earliest date leading.
func sortActionsByDate(actions []tiles.CRMAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		switch {
		case a.HasDate && b.HasDate:
			return a.Date.Before(b.Date)
		case a.HasDate:
			return true
		default:
			return false
		}
	})
}
