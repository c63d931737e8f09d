package tiles

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
	last   map[string]any
}

func (r *recordingTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.last = payload
}

func (r *recordingTelemetry) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

type recordingHook struct {
	mu     sync.Mutex
	events []TileEvent
	err    error
}

func (h *recordingHook) TileUpdated(_ context.Context, event TileEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func TestLayoutFallsBackToDefaults(t *testing.T) {
	telemetry := &recordingTelemetry{}
	service := NewService(Options{
		TileStore: NewMemoryTileStore(),
		Telemetry: telemetry,
	})

	layout, err := service.Layout(context.Background(), ViewerContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("Layout returned error: %v", err)
	}
	main := layout.Screens[ScreenMain]
	if len(main) != len(DefaultTileSet()) {
		t.Fatalf("expected default tile set on main, got %d tiles", len(main))
	}
	for _, tile := range main {
		if tile.Persisted() {
			t.Fatalf("default tile %s must be ephemeral, got id %d", tile.Type, tile.ID)
		}
	}
	if !telemetry.has("tiles.layout.resolve") {
		t.Fatalf("expected layout telemetry, got %v", telemetry.events)
	}
}

func TestLayoutGroupsAndSortsByScreen(t *testing.T) {
	store := NewMemoryTileStore()
	store.Seed("u1", []Tile{
		{Type: TypeEmail, Position: 2, Screen: ScreenMain},
		{Type: TypeWeather, Position: 0, Screen: ScreenMain},
		{Type: TypeTrains, Position: 1, Screen: ScreenSecond},
		{Type: TypeNotes, Position: 0}, // empty screen defaults to main
	})
	service := NewService(Options{TileStore: store})

	layout, err := service.Layout(context.Background(), ViewerContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("Layout returned error: %v", err)
	}
	main := layout.Screens[ScreenMain]
	if len(main) != 3 {
		t.Fatalf("expected 3 main tiles, got %d", len(main))
	}
	if main[0].Type != TypeWeather || main[1].Type != TypeNotes || main[2].Type != TypeEmail {
		t.Fatalf("unexpected main order: %s %s %s", main[0].Type, main[1].Type, main[2].Type)
	}
	second := layout.Screens[ScreenSecond]
	if len(second) != 1 || second[0].Type != TypeTrains {
		t.Fatalf("unexpected second screen: %+v", second)
	}
}

func TestFetchTileUnknownType(t *testing.T) {
	service := NewService(Options{TileStore: NewMemoryTileStore()})
	_, err := service.FetchTile(context.Background(), ViewerContext{UserID: "u1"}, Tile{Type: "mystery"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown tile type")
	}
}

func TestFetchTileValidatesPayload(t *testing.T) {
	registry := NewRegistry()
	err := registry.RegisterProvider(TypeEmail, ProviderFunc(func(context.Context, TileContext) (TilePayload, error) {
		return TilePayload{"unreadCount": -3}, nil
	}))
	if err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}
	service := NewService(Options{TileStore: NewMemoryTileStore(), Registry: registry})

	_, err = service.FetchTile(context.Background(), ViewerContext{UserID: "u1"}, Tile{Type: TypeEmail}, nil)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.TileType != TypeEmail {
		t.Fatalf("unexpected tile type %q", schemaErr.TileType)
	}
}

func TestFetchTilePassesErrorPayloadThrough(t *testing.T) {
	registry := NewRegistry()
	_ = registry.RegisterProvider(TypeCalendar, ProviderFunc(func(context.Context, TileContext) (TilePayload, error) {
		return TilePayload{"connected": true, "error": "calendar backend down"}, nil
	}))
	telemetry := &recordingTelemetry{}
	service := NewService(Options{TileStore: NewMemoryTileStore(), Registry: registry, Telemetry: telemetry})

	payload, err := service.FetchTile(context.Background(), ViewerContext{UserID: "u1"}, Tile{Type: TypeCalendar}, nil)
	if err != nil {
		t.Fatalf("FetchTile returned error: %v", err)
	}
	if payload["error"] != "calendar backend down" {
		t.Fatalf("expected error payload to pass through, got %+v", payload)
	}
	if !telemetry.has("tiles.fetch.ok") {
		t.Fatalf("expected fetch telemetry, got %v", telemetry.events)
	}
}

func TestFetchTileRecordsProviderError(t *testing.T) {
	registry := NewRegistry()
	boom := &UpstreamError{TileType: TypeTrains, Status: 502, Message: "board unavailable"}
	_ = registry.RegisterProvider(TypeTrains, ProviderFunc(func(context.Context, TileContext) (TilePayload, error) {
		return nil, boom
	}))
	telemetry := &recordingTelemetry{}
	service := NewService(Options{TileStore: NewMemoryTileStore(), Registry: registry, Telemetry: telemetry})

	_, err := service.FetchTile(context.Background(), ViewerContext{UserID: "u1"}, Tile{Type: TypeTrains, Title: "Departures"}, map[string]any{"station": "PAD"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if !telemetry.has("tiles.fetch.error") {
		t.Fatalf("expected fetch error telemetry, got %v", telemetry.events)
	}
}

func TestReorderRejectsEphemeralEntries(t *testing.T) {
	store := NewMemoryTileStore()
	service := NewService(Options{TileStore: store})
	err := service.Reorder(context.Background(), ViewerContext{UserID: "u1"}, []TilePosition{
		{ID: 1, Position: 0},
		{ID: 0, Position: 1},
	})
	if err == nil {
		t.Fatal("expected error for ephemeral tile id")
	}
}

func TestReorderPersistsAndNotifies(t *testing.T) {
	store := NewMemoryTileStore()
	seeded := store.Seed("u1", []Tile{
		{Type: TypeEmail, Position: 0, Screen: ScreenMain},
		{Type: TypeWeather, Position: 1, Screen: ScreenMain},
	})
	hook := &recordingHook{}
	telemetry := &recordingTelemetry{}
	service := NewService(Options{TileStore: store, RefreshHook: hook, Telemetry: telemetry})

	err := service.Reorder(context.Background(), ViewerContext{UserID: "u1"}, []TilePosition{
		{ID: seeded[0].ID, Position: 1},
		{ID: seeded[1].ID, Position: 0},
	})
	if err != nil {
		t.Fatalf("Reorder returned error: %v", err)
	}
	tiles, _ := store.TilesForUser(context.Background(), "u1")
	if tiles[0].Type != TypeWeather {
		t.Fatalf("expected weather first after reorder, got %s", tiles[0].Type)
	}
	if len(hook.events) != 1 || hook.events[0].Reason != "reorder" {
		t.Fatalf("expected reorder hook event, got %+v", hook.events)
	}
	if !telemetry.has("tiles.reorder") {
		t.Fatalf("expected reorder telemetry, got %v", telemetry.events)
	}
}

func TestResizeClampsSpans(t *testing.T) {
	store := NewMemoryTileStore()
	seeded := store.Seed("u1", []Tile{{Type: TypeEmail, ColumnSpan: 1, RowSpan: 1, Screen: ScreenMain}})
	service := NewService(Options{TileStore: store})

	err := service.Resize(context.Background(), ViewerContext{UserID: "u1"}, []TileSpan{
		{ID: seeded[0].ID, ColumnSpan: 9, RowSpan: 0},
	})
	if err != nil {
		t.Fatalf("Resize returned error: %v", err)
	}
	tiles, _ := store.TilesForUser(context.Background(), "u1")
	if tiles[0].ColumnSpan != MaxSpan || tiles[0].RowSpan != MinSpan {
		t.Fatalf("expected clamped span %dx%d, got %dx%d", MaxSpan, MinSpan, tiles[0].ColumnSpan, tiles[0].RowSpan)
	}
}

func TestResizeWrapsStoreFailure(t *testing.T) {
	store := NewMemoryTileStore()
	store.Seed("u1", []Tile{{Type: TypeEmail, Screen: ScreenMain}})
	service := NewService(Options{TileStore: store})

	err := service.Resize(context.Background(), ViewerContext{UserID: "u1"}, []TileSpan{
		{ID: 999, ColumnSpan: 2, RowSpan: 2},
	})
	var persistErr *PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if persistErr.Op != "resize" {
		t.Fatalf("unexpected op %q", persistErr.Op)
	}
}

func TestMoveScreenValidatesTarget(t *testing.T) {
	store := NewMemoryTileStore()
	seeded := store.Seed("u1", []Tile{{Type: TypeEmail, Screen: ScreenMain}})
	service := NewService(Options{TileStore: store})

	err := service.MoveScreen(context.Background(), ViewerContext{UserID: "u1"}, seeded[0].ID, Screen("screen3"))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	if err := service.MoveScreen(context.Background(), ViewerContext{UserID: "u1"}, seeded[0].ID, ScreenSecond); err != nil {
		t.Fatalf("MoveScreen returned error: %v", err)
	}
	tiles, _ := store.TilesForUser(context.Background(), "u1")
	if tiles[0].Screen != ScreenSecond {
		t.Fatalf("expected tile on %s, got %s", ScreenSecond, tiles[0].Screen)
	}
}

func TestFetchTimeoutBoundsProvider(t *testing.T) {
	registry := NewRegistry()
	_ = registry.RegisterProvider(TypeEmail, ProviderFunc(func(ctx context.Context, _ TileContext) (TilePayload, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return TilePayload{"connected": true}, nil
		}
	}))
	service := NewService(Options{
		TileStore:    NewMemoryTileStore(),
		Registry:     registry,
		FetchTimeout: 10 * time.Millisecond,
	})

	_, err := service.FetchTile(context.Background(), ViewerContext{UserID: "u1"}, Tile{Type: TypeEmail}, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
