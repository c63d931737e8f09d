package queries

import (
	"context"
	"errors"
	"time"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

// TileFetchInput identifies one tile fetch for a viewer.
type TileFetchInput struct {
	Viewer tiles.ViewerContext
	Tile   tiles.Tile
	Config map[string]any
}

// TileFetchResult carries the validated payload and its rendered fragment.
type TileFetchResult struct {
	Payload tiles.TilePayload
	HTML    string
}

type tileService interface {
	FetchTile(ctx context.Context, viewer tiles.ViewerContext, tile tiles.Tile, config map[string]any) (tiles.TilePayload, error)
	RenderTile(ctx context.Context, state tiles.RenderState) (string, error)
}

// TileQuery fetches one tile's data and renders its HTML fragment. A fetch
// failure is not an error at this level: the renderer paints the retry card
// and the caller still gets markup to swap in.
type TileQuery struct {
	service tileService
	clock   func() time.Time
}

// NewTileQuery builds the query.
func NewTileQuery(service tileService) *TileQuery {
	return &TileQuery{service: service, clock: time.Now}
}

var _ gocommand.Querier[TileFetchInput, TileFetchResult] = (*TileQuery)(nil)

// Query fetches and renders a tile. ErrUnauthorized aborts without markup
// so the transport can answer with the login redirect instead.
func (q *TileQuery) Query(ctx context.Context, input TileFetchInput) (TileFetchResult, error) {
	payload, fetchErr := q.service.FetchTile(ctx, input.Viewer, input.Tile, input.Config)
	if fetchErr != nil {
		if isUnauthorized(fetchErr) {
			return TileFetchResult{}, fetchErr
		}
	}
	html, err := q.service.RenderTile(ctx, tiles.RenderState{
		Tile:    input.Tile,
		Payload: payload,
		Err:     fetchErr,
		Now:     q.clock(),
	})
	if err != nil {
		return TileFetchResult{}, err
	}
	return TileFetchResult{Payload: payload, HTML: html}, nil
}

func isUnauthorized(err error) bool {
	return errors.Is(err, tiles.ErrUnauthorized)
}
