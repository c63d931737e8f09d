package tiles

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestPageControllerRequiresService(t *testing.T) {
	if _, err := NewPageController(PageControllerOptions{}); err == nil {
		t.Fatal("expected error without service")
	}
}

func TestRenderPageShowsTilesForScreen(t *testing.T) {
	store := NewMemoryTileStore()
	store.Seed("u1", []Tile{
		{Type: TypeEmail, Title: "Inbox", Position: 0, Screen: ScreenMain},
		{Type: TypeTrains, Title: "Departures", Position: 0, Screen: ScreenSecond},
	})
	service := NewService(Options{TileStore: store})
	controller, err := NewPageController(PageControllerOptions{Service: service, Title: "Home Dashboard"})
	if err != nil {
		t.Fatalf("NewPageController returned error: %v", err)
	}

	var buf bytes.Buffer
	err = controller.RenderPage(context.Background(), ViewerContext{UserID: "u1"}, ScreenMain, "csrf-token", &buf)
	if err != nil {
		t.Fatalf("RenderPage returned error: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "Home Dashboard") {
		t.Fatalf("expected page title, got:\n%s", html)
	}
	if !strings.Contains(html, TypeEmail) {
		t.Fatalf("expected main screen tile shell, got:\n%s", html)
	}
	if strings.Contains(html, TypeTrains) {
		t.Fatal("second screen tile must not render on main")
	}
	if !strings.Contains(html, "csrf-token") {
		t.Fatal("expected csrf token embedded in page")
	}
}

func TestLayoutPayloadCoversBothScreens(t *testing.T) {
	store := NewMemoryTileStore()
	store.Seed("u1", []Tile{
		{Type: TypeEmail, Position: 0, Screen: ScreenMain, ColumnSpan: 2, RowSpan: 1},
		{Type: TypeTrains, Position: 0, Screen: ScreenSecond},
	})
	service := NewService(Options{TileStore: store})
	controller, err := NewPageController(PageControllerOptions{Service: service})
	if err != nil {
		t.Fatalf("NewPageController returned error: %v", err)
	}

	payload, err := controller.LayoutPayload(context.Background(), ViewerContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("LayoutPayload returned error: %v", err)
	}
	screens, ok := payload["screens"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload shape %+v", payload)
	}
	main, ok := screens["main"].([]map[string]any)
	if !ok || len(main) != 1 {
		t.Fatalf("unexpected main screen %+v", screens["main"])
	}
	if main[0]["type"] != TypeEmail || main[0]["column_span"] != 2 {
		t.Fatalf("unexpected tile view model %+v", main[0])
	}
	if _, ok := screens["screen2"]; !ok {
		t.Fatal("expected screen2 in layout payload")
	}
}
