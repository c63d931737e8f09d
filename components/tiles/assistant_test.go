package tiles

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubAssistantClient struct {
	suggestions []Suggestion
	answer      string
	err         error
	lastPrompt  string
}

func (s *stubAssistantClient) Suggest(_ context.Context, prompt string) ([]Suggestion, error) {
	s.lastPrompt = prompt
	return s.suggestions, s.err
}

func (s *stubAssistantClient) Answer(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	return s.answer, s.err
}

func TestAssistantSuggestionsCapped(t *testing.T) {
	client := &stubAssistantClient{suggestions: []Suggestion{
		{Text: "one"}, {Text: "two"}, {Text: "three"}, {Text: "four"},
	}}
	assistant := NewAssistant(client)

	got, err := assistant.Suggestions(context.Background(), ViewerContext{UserID: "u1"}, nil)
	if err != nil {
		t.Fatalf("Suggestions returned error: %v", err)
	}
	if len(got) != defaultMaxSuggestions {
		t.Fatalf("expected %d suggestions, got %d", defaultMaxSuggestions, len(got))
	}
}

func TestAssistantPromptCarriesSnapshot(t *testing.T) {
	client := &stubAssistantClient{}
	assistant := NewAssistant(client)
	snapshot := map[string]TilePayload{
		TypeEmail:   {"unreadCount": 4},
		TypeWeather: {"summary": "Rain"},
	}

	if _, err := assistant.Suggestions(context.Background(), ViewerContext{UserID: "u1"}, snapshot); err != nil {
		t.Fatalf("Suggestions returned error: %v", err)
	}
	if !strings.Contains(client.lastPrompt, `"unreadCount":4`) {
		t.Fatalf("expected email digest in prompt:\n%s", client.lastPrompt)
	}
	// email sorts before weather, keeping prompts stable across runs
	emailIdx := strings.Index(client.lastPrompt, `"email"`)
	weatherIdx := strings.Index(client.lastPrompt, `"weather"`)
	if emailIdx < 0 || weatherIdx < 0 || emailIdx > weatherIdx {
		t.Fatalf("expected sorted digest keys:\n%s", client.lastPrompt)
	}
}

func TestAssistantAskRejectsEmptyQuestion(t *testing.T) {
	assistant := NewAssistant(&stubAssistantClient{})
	_, err := assistant.Ask(context.Background(), ViewerContext{UserID: "u1"}, "   ", nil)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAssistantAskAnswers(t *testing.T) {
	client := &stubAssistantClient{answer: "Leave by 17:40."}
	assistant := NewAssistant(client)

	answer, err := assistant.Ask(context.Background(), ViewerContext{UserID: "u1"}, "When should I leave?", map[string]TilePayload{
		TypeTrains: {"origin": "PAD"},
	})
	if err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}
	if answer != "Leave by 17:40." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if !strings.Contains(client.lastPrompt, "When should I leave?") {
		t.Fatalf("expected question in prompt:\n%s", client.lastPrompt)
	}
}

func TestAssistantWithoutClient(t *testing.T) {
	var assistant *Assistant
	if _, err := assistant.Suggestions(context.Background(), ViewerContext{}, nil); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected for nil assistant, got %v", err)
	}
	assistant = NewAssistant(nil)
	if _, err := assistant.Ask(context.Background(), ViewerContext{}, "q", nil); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected without client, got %v", err)
	}
}

func TestSnapshotDigestEmpty(t *testing.T) {
	if got := snapshotDigest(nil); got != "{}" {
		t.Fatalf("expected empty digest, got %q", got)
	}
}
