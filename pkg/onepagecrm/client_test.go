package onepagecrm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

func TestNextActionsParsesStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/action_stream.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		user, key, ok := r.BasicAuth()
		if !ok || user != "uid" || key != "apikey" {
			t.Fatalf("expected basic auth, got %s/%s", user, key)
		}
		_, _ = w.Write([]byte(`{"data": {"action_stream": [
			{"contact": {"id": "c2", "first_name": "Grace", "last_name": "Hopper",
				"next_action": {"text": "Send proposal", "date": "2026-03-10"}}},
			{"contact": {"id": "c1", "company_name": "Acme Ltd",
				"next_action": {"id": "a1", "text": "Follow up", "date": "2026-03-02"}}},
			{"contact": {"id": "c3", "first_name": "Alan",
				"next_action": {"text": "Someday call"}}}
		]}}`))
	}))
	t.Cleanup(server.Close)

	client := New(Config{BaseURL: server.URL, UserID: "uid", APIKey: "apikey"})
	actions, err := client.NextActions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("next actions: %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("expected three actions, got %d", len(actions))
	}
	if actions[0].Contact != "Acme Ltd" || actions[0].Text != "Follow up" || actions[0].ID != "a1" {
		t.Fatalf("expected earliest dated action first, got %#v", actions[0])
	}
	if actions[1].Contact != "Grace Hopper" {
		t.Fatalf("unexpected second action: %#v", actions[1])
	}
	if actions[2].HasDate {
		t.Fatalf("undated action should trail: %#v", actions[2])
	}
}

func TestNextActionsUnconfigured(t *testing.T) {
	client := New(Config{BaseURL: "http://unused"})
	_, err := client.NextActions(context.Background(), "u1")
	if !errors.Is(err, tiles.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestNextActionsRevokedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := New(Config{BaseURL: server.URL, UserID: "uid", APIKey: "stale"})
	_, err := client.NextActions(context.Background(), "u1")
	if !errors.Is(err, tiles.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected on 401, got %v", err)
	}
}

func TestCompleteActionMarksDone(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		_, _ = w.Write([]byte(`{"status": 0}`))
	}))
	t.Cleanup(server.Close)

	client := New(Config{BaseURL: server.URL, UserID: "uid", APIKey: "apikey"})
	if err := client.CompleteAction(context.Background(), "u1", "a42"); err != nil {
		t.Fatalf("complete action: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/actions/a42.json" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
	if gotBody != `{"status":"done"}` {
		t.Fatalf("unexpected body %q", gotBody)
	}
}

func TestCompleteActionRequiresID(t *testing.T) {
	client := New(Config{BaseURL: "http://unused", UserID: "uid", APIKey: "apikey"})
	err := client.CompleteAction(context.Background(), "u1", "")
	var validation *tiles.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCompleteActionUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "locked", http.StatusConflict)
	}))
	t.Cleanup(server.Close)

	client := New(Config{BaseURL: server.URL, UserID: "uid", APIKey: "apikey"})
	err := client.CompleteAction(context.Background(), "u1", "a42")
	var upstream *tiles.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != http.StatusConflict {
		t.Fatalf("expected conflict upstream error, got %v", err)
	}
}
