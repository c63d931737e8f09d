package tiles

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Suggestion is one assistant hint derived from the loaded tile data.
type Suggestion struct {
	Text     string `json:"text"`
	TileType string `json:"tile_type,omitempty"`
}

// AssistantClient is the model backend. The prompt already carries the tile
// digest; implementations only run the completion.
type AssistantClient interface {
	Suggest(ctx context.Context, prompt string) ([]Suggestion, error)
	Answer(ctx context.Context, prompt string) (string, error)
}

const defaultMaxSuggestions = 3

// Assistant turns the loaded-tile snapshot into suggestion and Q&A prompts.
// It runs only after the dashboard's trackable tiles have all loaded, so the
// digest reflects a complete picture rather than a half-rendered page.
type Assistant struct {
	client         AssistantClient
	maxSuggestions int
}

// NewAssistant wraps a model client.
func NewAssistant(client AssistantClient) *Assistant {
	return &Assistant{client: client, maxSuggestions: defaultMaxSuggestions}
}

// Suggestions asks the model for next-action hints over the tile snapshot.
func (a *Assistant) Suggestions(ctx context.Context, viewer ViewerContext, snapshot map[string]TilePayload) ([]Suggestion, error) {
	if a == nil || a.client == nil {
		return nil, ErrNotConnected
	}
	prompt := fmt.Sprintf(
		"Here is the current dashboard data as JSON:\n%s\nSuggest up to %d short next actions for the user. Mention the relevant tile for each.",
		snapshotDigest(snapshot), a.maxSuggestions,
	)
	suggestions, err := a.client.Suggest(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if len(suggestions) > a.maxSuggestions {
		suggestions = suggestions[:a.maxSuggestions]
	}
	return suggestions, nil
}

// Ask answers a free-form question grounded in the tile snapshot.
func (a *Assistant) Ask(ctx context.Context, viewer ViewerContext, question string, snapshot map[string]TilePayload) (string, error) {
	if a == nil || a.client == nil {
		return "", ErrNotConnected
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", &ValidationError{Field: "question", Reason: "cannot be empty"}
	}
	prompt := fmt.Sprintf(
		"Here is the current dashboard data as JSON:\n%s\nAnswer the user's question using only this data. Question: %s",
		snapshotDigest(snapshot), question,
	)
	return a.client.Answer(ctx, prompt)
}

// snapshotDigest serializes the snapshot with stable key order so identical
// dashboards produce identical prompts.
func snapshotDigest(snapshot map[string]TilePayload) string {
	if len(snapshot) == 0 {
		return "{}"
	}
	codes := make([]string, 0, len(snapshot))
	for code := range snapshot {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var sb strings.Builder
	sb.WriteString("{")
	for i, code := range codes {
		if i > 0 {
			sb.WriteString(",")
		}
		body, err := json.Marshal(snapshot[code])
		if err != nil {
			body = []byte("{}")
		}
		fmt.Fprintf(&sb, "%q:%s", code, body)
	}
	sb.WriteString("}")
	return sb.String()
}
