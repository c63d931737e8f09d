package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

// ReorderTilesInput carries one batched position write for a viewer.
type ReorderTilesInput struct {
	Viewer tiles.ViewerContext
	Order  []tiles.TilePosition
}

type reorderService interface {
	Reorder(ctx context.Context, viewer tiles.ViewerContext, order []tiles.TilePosition) error
}

// ReorderTilesCommand wraps Service.Reorder so transports can persist a
// drag-and-drop session without linking against the service directly.
type ReorderTilesCommand struct {
	service   reorderService
	telemetry Telemetry
}

// NewReorderTilesCommand creates a command instance.
func NewReorderTilesCommand(service reorderService, telemetry Telemetry) *ReorderTilesCommand {
	return &ReorderTilesCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ReorderTilesInput] = (*ReorderTilesCommand)(nil)

// Execute delegates to the tile service.
func (c *ReorderTilesCommand) Execute(ctx context.Context, msg ReorderTilesInput) error {
	if c.service == nil {
		return errors.New("reorder command requires service")
	}
	if err := c.service.Reorder(ctx, msg.Viewer, msg.Order); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "tiles.command.reorder", map[string]any{
		"viewer": msg.Viewer.UserID,
		"count":  len(msg.Order),
	})
	return nil
}
