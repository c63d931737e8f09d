package tiles

import (
	"context"
	"time"
)

// Screen identifies which dashboard screen a tile is assigned to.
type Screen string

const (
	ScreenMain   Screen = "main"
	ScreenSecond Screen = "screen2"
)

// Span limits shared by the resize session and the store layer.
const (
	MinSpan = 1
	MaxSpan = 5
)

// Tile is a single dashboard tile as persisted for a user. A zero ID marks an
// ephemeral default tile that was materialized at render time and must never
// be written back by reorder/resize/move operations.
type Tile struct {
	ID              int64
	Type            string
	Title           string
	Position        int
	ColumnSpan      int
	RowSpan         int
	Screen          Screen
	RefreshInterval time.Duration
}

// Persisted reports whether reorder/resize/move calls may reference the tile.
func (t Tile) Persisted() bool { return t.ID > 0 }

// TilePosition is one entry of a batched reorder write.
type TilePosition struct {
	ID       int64 `json:"id"`
	Position int   `json:"position"`
}

// TileSpan is one entry of a resize write.
type TileSpan struct {
	ID         int64 `json:"id"`
	ColumnSpan int   `json:"column_span"`
	RowSpan    int   `json:"row_span"`
}

// TileStore encapsulates tile persistence. Implementations ensure thread
// safety and idempotency: saving the same position batch twice yields the
// same final order.
type TileStore interface {
	TilesForUser(ctx context.Context, userID string) ([]Tile, error)
	SavePositions(ctx context.Context, userID string, order []TilePosition) error
	SaveSpan(ctx context.Context, userID string, span TileSpan) error
	MoveScreen(ctx context.Context, userID string, tileID int64, screen Screen) error
}

// ViewerContext captures the active user making dashboard requests. Path
// carries the current path+query so a session-expired response can name the
// login redirect target.
type ViewerContext struct {
	UserID string
	Path   string
}

// TileDefinition describes a tile kind registered with the Registry.
type TileDefinition struct {
	Code            string
	Name            string
	Description     string
	Category        string
	ConfigSchema    map[string]any
	PayloadSchema   map[string]any
	RefreshInterval time.Duration
	// ManualOnly tiles are excluded from timer-driven refresh and from the
	// all-tiles-loaded gate.
	ManualOnly bool
}

// TilePayload is the per-fetch response body for a tile. Shape depends on
// the tile type; the registry's payload schema validates it at the fetch
// boundary.
type TilePayload map[string]any

// Connected reports the payload's connected/configured flags, defaulting to
// true when a tile type does not carry them.
func (p TilePayload) Connected() bool {
	for _, key := range []string{"connected", "configured"} {
		if v, ok := p[key]; ok {
			if b, ok := v.(bool); ok && !b {
				return false
			}
		}
	}
	return true
}

// TileContext is handed to providers on every fetch.
type TileContext struct {
	Tile   Tile
	Viewer ViewerContext
	Config map[string]any
}

// Provider fetches the data payload for one tile.
type Provider interface {
	Fetch(ctx context.Context, meta TileContext) (TilePayload, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, meta TileContext) (TilePayload, error)

// Fetch implements Provider.
func (f ProviderFunc) Fetch(ctx context.Context, meta TileContext) (TilePayload, error) {
	return f(ctx, meta)
}

// RenderState carries everything a tile renderer needs for one paint.
type RenderState struct {
	Tile    Tile
	Payload TilePayload
	// Err is set when the fetch failed; renderers must produce the retry
	// affordance instead of list content.
	Err error
	Now time.Time
}

// TileRenderer converts a fetched payload into an HTML fragment. Renderers
// are pure: the same state always yields the same markup, and every call
// fully replaces the previous fragment so no listener state survives a
// reload.
type TileRenderer interface {
	Render(ctx context.Context, state RenderState) (string, error)
}

// RendererFunc adapts a function to the TileRenderer interface.
type RendererFunc func(ctx context.Context, state RenderState) (string, error)

// Render implements TileRenderer.
func (f RendererFunc) Render(ctx context.Context, state RenderState) (string, error) {
	return f(ctx, state)
}

// TileEvent describes a tile change that transports might care about.
type TileEvent struct {
	Tile   Tile   `json:"tile"`
	Reason string `json:"reason"`
}

// RefreshHook notifies transports (SSE/WebSocket) about tile changes.
type RefreshHook interface {
	TileUpdated(ctx context.Context, event TileEvent) error
}

// Layout groups a user's tiles by screen in display order.
type Layout struct {
	Screens map[Screen][]Tile
}
