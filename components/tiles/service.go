package tiles

import (
	"context"
	"sort"
	"time"
)

// Options configures the tile Service. Every collaborator is provided via
// interface so applications can swap implementations without importing
// internal tileboard packages.
type Options struct {
	TileStore        TileStore
	Registry         *Registry
	PayloadValidator PayloadValidator
	ConfigValidator  ConfigValidator
	RefreshHook      RefreshHook
	Telemetry        Telemetry
	// FetchTimeout bounds a single provider fetch. Zero means no bound
	// beyond the caller's context.
	FetchTimeout time.Duration
}

// Service orchestrates tile fetching, layout resolution, and layout writes.
type Service struct {
	opts Options
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.PayloadValidator == nil {
		opts.PayloadValidator = NewJSONSchemaValidator()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = noopValidator{}
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{opts: opts}
}

// Layout resolves the viewer's tiles grouped by screen in display order,
// falling back to the hard-coded default set when nothing is saved.
func (s *Service) Layout(ctx context.Context, viewer ViewerContext) (Layout, error) {
	store, err := s.tileStore()
	if err != nil {
		return Layout{}, err
	}
	saved, err := store.TilesForUser(ctx, viewer.UserID)
	if err != nil {
		return Layout{}, err
	}
	if len(saved) == 0 {
		saved = DefaultTileSet()
	}
	layout := Layout{Screens: map[Screen][]Tile{}}
	for _, tile := range saved {
		screen := tile.Screen
		if screen == "" {
			screen = ScreenMain
		}
		layout.Screens[screen] = append(layout.Screens[screen], tile)
	}
	for screen := range layout.Screens {
		list := layout.Screens[screen]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Position < list[j].Position })
		layout.Screens[screen] = list
	}
	s.recordTelemetry(ctx, "tiles.layout.resolve", map[string]any{"viewer": viewer.UserID})
	return layout, nil
}

// FetchTile runs the tile's provider and validates the payload at the fetch
// boundary. Upstream {error} payloads pass through untouched so renderers
// can paint the retry card.
func (s *Service) FetchTile(ctx context.Context, viewer ViewerContext, tile Tile, config map[string]any) (TilePayload, error) {
	def, ok := s.opts.Registry.Definition(tile.Type)
	if !ok {
		return nil, errUnknownTileType
	}
	provider, ok := s.opts.Registry.Provider(tile.Type)
	if !ok {
		return nil, errUnknownTileType
	}
	if err := s.opts.ConfigValidator.ValidateConfig(def, config); err != nil {
		return nil, err
	}
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}
	payload, err := provider.Fetch(ctx, TileContext{Tile: tile, Viewer: viewer, Config: config})
	if err != nil {
		s.recordTelemetry(ctx, "tiles.fetch.error", map[string]any{
			"type":  tile.Type,
			"error": err.Error(),
		})
		return nil, err
	}
	if err := s.opts.PayloadValidator.ValidatePayload(def, payload); err != nil {
		return nil, err
	}
	s.recordTelemetry(ctx, "tiles.fetch.ok", map[string]any{"type": tile.Type})
	return payload, nil
}

// RenderTile paints one tile state through its registered renderer.
func (s *Service) RenderTile(ctx context.Context, state RenderState) (string, error) {
	renderer, ok := s.opts.Registry.Renderer(state.Tile.Type)
	if !ok {
		return "", errUnknownTileType
	}
	if state.Now.IsZero() {
		state.Now = time.Now()
	}
	return renderer.Render(ctx, state)
}

// Reorder persists a batched position write. Entries with id<=0 are
// ephemeral defaults and rejected up front so a client bug cannot create
// phantom rows.
func (s *Service) Reorder(ctx context.Context, viewer ViewerContext, order []TilePosition) error {
	store, err := s.tileStore()
	if err != nil {
		return err
	}
	for _, entry := range order {
		if entry.ID <= 0 {
			return errEphemeralTile
		}
	}
	if err := store.SavePositions(ctx, viewer.UserID, order); err != nil {
		return &PersistenceError{Op: "reorder", Err: err}
	}
	if err := s.opts.RefreshHook.TileUpdated(ctx, TileEvent{Reason: "reorder"}); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "tiles.reorder", map[string]any{
		"viewer": viewer.UserID,
		"count":  len(order),
	})
	return nil
}

// Resize persists new spans for one or more tiles, clamping to the span
// bounds before the write.
func (s *Service) Resize(ctx context.Context, viewer ViewerContext, spans []TileSpan) error {
	store, err := s.tileStore()
	if err != nil {
		return err
	}
	for _, span := range spans {
		if span.ID <= 0 {
			return errEphemeralTile
		}
		span.ColumnSpan = clampSpan(span.ColumnSpan)
		span.RowSpan = clampSpan(span.RowSpan)
		if err := store.SaveSpan(ctx, viewer.UserID, span); err != nil {
			return &PersistenceError{Op: "resize", Err: err}
		}
	}
	if err := s.opts.RefreshHook.TileUpdated(ctx, TileEvent{Reason: "resize"}); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "tiles.resize", map[string]any{
		"viewer": viewer.UserID,
		"count":  len(spans),
	})
	return nil
}

// MoveScreen reassigns a persisted tile to the named screen.
func (s *Service) MoveScreen(ctx context.Context, viewer ViewerContext, tileID int64, screen Screen) error {
	store, err := s.tileStore()
	if err != nil {
		return err
	}
	if tileID <= 0 {
		return errEphemeralTile
	}
	if screen != ScreenMain && screen != ScreenSecond {
		return &ValidationError{Field: "screen", Reason: "must be main or screen2"}
	}
	if err := store.MoveScreen(ctx, viewer.UserID, tileID, screen); err != nil {
		return &PersistenceError{Op: "move-screen", Err: err}
	}
	if err := s.opts.RefreshHook.TileUpdated(ctx, TileEvent{Tile: Tile{ID: tileID, Screen: screen}, Reason: "move-screen"}); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "tiles.move_screen", map[string]any{
		"viewer": viewer.UserID,
		"tile":   tileID,
		"screen": string(screen),
	})
	return nil
}

// NotifyTileUpdated exposes refresh hook invocation for commands/transports.
func (s *Service) NotifyTileUpdated(ctx context.Context, event TileEvent) error {
	if err := s.opts.RefreshHook.TileUpdated(ctx, event); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "tiles.event", map[string]any{
		"tile":   event.Tile.ID,
		"reason": event.Reason,
	})
	return nil
}

// Registry exposes the configured registry for transports and controllers.
func (s *Service) Registry() *Registry { return s.opts.Registry }

func (s *Service) tileStore() (TileStore, error) {
	if s.opts.TileStore == nil {
		return nil, errMissingTileStore
	}
	return s.opts.TileStore, nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func clampSpan(v int) int {
	if v < MinSpan {
		return MinSpan
	}
	if v > MaxSpan {
		return MaxSpan
	}
	return v
}

type noopRefreshHook struct{}

func (noopRefreshHook) TileUpdated(context.Context, TileEvent) error { return nil }
