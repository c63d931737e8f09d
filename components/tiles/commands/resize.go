package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

// ResizeTilesInput carries span writes from a finished resize gesture.
type ResizeTilesInput struct {
	Viewer tiles.ViewerContext
	Spans  []tiles.TileSpan
}

type resizeService interface {
	Resize(ctx context.Context, viewer tiles.ViewerContext, spans []tiles.TileSpan) error
}

// ResizeTilesCommand wraps Service.Resize.
type ResizeTilesCommand struct {
	service   resizeService
	telemetry Telemetry
}

// NewResizeTilesCommand creates a command instance.
func NewResizeTilesCommand(service resizeService, telemetry Telemetry) *ResizeTilesCommand {
	return &ResizeTilesCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResizeTilesInput] = (*ResizeTilesCommand)(nil)

// Execute delegates to the tile service.
func (c *ResizeTilesCommand) Execute(ctx context.Context, msg ResizeTilesInput) error {
	if c.service == nil {
		return errors.New("resize command requires service")
	}
	if err := c.service.Resize(ctx, msg.Viewer, msg.Spans); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "tiles.command.resize", map[string]any{
		"viewer": msg.Viewer.UserID,
		"count":  len(msg.Spans),
	})
	return nil
}
