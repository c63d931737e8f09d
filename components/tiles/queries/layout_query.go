package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

type layoutService interface {
	Layout(ctx context.Context, viewer tiles.ViewerContext) (tiles.Layout, error)
}

// LayoutQuery executes read-only layout resolution.
type LayoutQuery struct {
	service layoutService
}

// NewLayoutQuery builds the query.
func NewLayoutQuery(service layoutService) *LayoutQuery {
	return &LayoutQuery{service: service}
}

var _ gocommand.Querier[tiles.ViewerContext, tiles.Layout] = (*LayoutQuery)(nil)

// Query resolves the layout for the viewer.
func (q *LayoutQuery) Query(ctx context.Context, viewer tiles.ViewerContext) (tiles.Layout, error) {
	return q.service.Layout(ctx, viewer)
}
