package tiles

import (
	"context"
	"strings"
	"testing"
	"time"
)

func renderType(t *testing.T, code string, state RenderState) string {
	t.Helper()
	renderer, ok := defaultRenderers[code]
	if !ok {
		t.Fatalf("no renderer for %s", code)
	}
	if state.Now.IsZero() {
		state.Now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	}
	if state.Tile.Type == "" {
		state.Tile.Type = code
	}
	html, err := renderer.Render(context.Background(), state)
	if err != nil {
		t.Fatalf("render %s: %v", code, err)
	}
	return html
}

func TestRenderEmailContent(t *testing.T) {
	html := renderType(t, TypeEmail, RenderState{
		Tile: Tile{Type: TypeEmail, Title: "Inbox"},
		Payload: TilePayload{
			"connected":   true,
			"unreadCount": float64(4),
			"emails": []any{
				map[string]any{
					"from":     "Grace Hopper",
					"subject":  "Compiler notes",
					"received": "2026-03-14T10:00:00Z",
					"unread":   true,
				},
			},
		},
	})
	for _, want := range []string{"4 unread", "Compiler notes", "Grace Hopper", "2h 0m ago", "is-unread"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in fragment:\n%s", want, html)
		}
	}
}

func TestRenderEmptyState(t *testing.T) {
	html := renderType(t, TypeEmail, RenderState{
		Tile:    Tile{Type: TypeEmail, Title: "Inbox"},
		Payload: TilePayload{"connected": true, "emails": []any{}},
	})
	if !strings.Contains(html, "Nothing to show.") {
		t.Fatalf("expected empty state, got:\n%s", html)
	}
}

func TestRenderDisconnectedState(t *testing.T) {
	html := renderType(t, TypeEmail, RenderState{
		Tile:    Tile{Type: TypeEmail, Title: "Inbox"},
		Payload: TilePayload{"connected": false},
	})
	if !strings.Contains(html, "Not connected.") {
		t.Fatalf("expected connect prompt, got:\n%s", html)
	}
	if !strings.Contains(html, "/connect/email") {
		t.Fatalf("expected connect link, got:\n%s", html)
	}
}

func TestRenderErrorStateWithRetry(t *testing.T) {
	html := renderType(t, TypeEmail, RenderState{
		Tile: Tile{Type: TypeEmail, Title: "Inbox"},
		Err:  &UpstreamError{TileType: TypeEmail, Status: 502, Message: "mailbox unavailable"},
	})
	if !strings.Contains(html, "mailbox unavailable") {
		t.Fatalf("expected upstream message, got:\n%s", html)
	}
	if !strings.Contains(html, "Retry") {
		t.Fatalf("expected retry button, got:\n%s", html)
	}
}

func TestRenderErrorPayloadField(t *testing.T) {
	html := renderType(t, TypeCalendar, RenderState{
		Tile:    Tile{Type: TypeCalendar, Title: "Calendar"},
		Payload: TilePayload{"connected": true, "error": "calendar backend down"},
	})
	if !strings.Contains(html, "calendar backend down") {
		t.Fatalf("expected payload error surfaced, got:\n%s", html)
	}
}

func TestRenderGenericErrorMessage(t *testing.T) {
	html := renderType(t, TypeEmail, RenderState{
		Tile: Tile{Type: TypeEmail, Title: "Inbox"},
		Err:  context.DeadlineExceeded,
	})
	if !strings.Contains(html, "Could not load this tile.") {
		t.Fatalf("expected generic error copy, got:\n%s", html)
	}
}

func TestRenderCalendarHighlightsImminentEvents(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	html := renderType(t, TypeCalendar, RenderState{
		Tile: Tile{Type: TypeCalendar, Title: "Calendar"},
		Now:  now,
		Payload: TilePayload{
			"connected": true,
			"events": []any{
				map[string]any{"subject": "Standup", "start": "2026-03-14T12:10:00Z"},
				map[string]any{"subject": "Review", "start": "2026-03-14T15:00:00Z"},
			},
		},
	})
	if !strings.Contains(html, "Standup") || !strings.Contains(html, "in 10m") {
		t.Fatalf("expected imminent event, got:\n%s", html)
	}
	if !strings.Contains(html, "in 3h 0m") {
		t.Fatalf("expected later event timing, got:\n%s", html)
	}
}

func TestRenderTasksOverdueTint(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	html := renderType(t, TypeTasks, RenderState{
		Tile: Tile{Type: TypeTasks, Title: "Tasks"},
		Now:  now,
		Payload: TilePayload{
			"connected":          true,
			"tasks_source_label": "Microsoft To Do",
			"tasks": []any{
				map[string]any{"id": "t1", "title": "File expenses", "due": "2026-03-04T12:00:00Z"},
				map[string]any{"id": "t2", "title": "Water plants"},
			},
		},
	})
	if !strings.Contains(html, "10d overdue") {
		t.Fatalf("expected overdue label, got:\n%s", html)
	}
	if !strings.Contains(html, "Microsoft To Do") {
		t.Fatalf("expected source label, got:\n%s", html)
	}
	if !strings.Contains(html, "Water plants") {
		t.Fatalf("expected undated task listed, got:\n%s", html)
	}
}

func TestRenderTrainsBoard(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	html := renderType(t, TypeTrains, RenderState{
		Tile: Tile{Type: TypeTrains, Title: "Departures"},
		Now:  now,
		Payload: TilePayload{
			"connected": true,
			"origin":    "London Paddington",
			"departures": []any{
				map[string]any{"scheduled": "09:12", "expected": "09:20", "destination": "Oxford", "platform": "4"},
			},
		},
	})
	for _, want := range []string{"London Paddington", "Oxford", "09:12", "09:20"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in fragment:\n%s", want, html)
		}
	}
}

func TestRenderNextEventCountdown(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	html := renderType(t, TypeNextEvent, RenderState{
		Tile:    Tile{Type: TypeNextEvent, Title: "Countdown"},
		Now:     now,
		Payload: TilePayload{"target": "2026-03-21T09:00:00Z", "label": "Launch day"},
	})
	if !strings.Contains(html, "Launch day") || !strings.Contains(html, "7") {
		t.Fatalf("expected 7 day countdown, got:\n%s", html)
	}
}

func TestRenderLinkBoardColumns(t *testing.T) {
	html := renderType(t, TypeLinkBoard, RenderState{
		Tile: Tile{Type: TypeLinkBoard, Title: "Link Board"},
		Payload: TilePayload{
			"connected": true,
			"categories": []any{
				map[string]any{
					"id":    float64(1),
					"title": "Work",
					"links": []any{
						map[string]any{"id": float64(10), "title": "CI", "url": "https://ci.example.com"},
					},
				},
			},
		},
	})
	for _, want := range []string{"Work", "CI", "https://ci.example.com"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in fragment:\n%s", want, html)
		}
	}
}

func TestRenderAssistantSuggestions(t *testing.T) {
	html := renderType(t, TypeClaude, RenderState{
		Tile: Tile{Type: TypeClaude, Title: "Assistant"},
		Payload: TilePayload{
			"connected":   true,
			"suggestions": []any{"Reply to Grace's email", "Leave by 17:40 for the 18:05 train"},
		},
	})
	if !strings.Contains(html, "Reply to Grace") {
		t.Fatalf("expected suggestion rendered, got:\n%s", html)
	}
}

func TestFormatRelative(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{26 * time.Hour, "1d 2h"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{12 * time.Minute, "12m"},
		{45 * time.Second, "45s"},
		{-time.Minute, "0s"},
	}
	for _, tc := range cases {
		if got := formatRelative(tc.d); got != tc.want {
			t.Fatalf("formatRelative(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
