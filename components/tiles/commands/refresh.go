package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

// RefreshTileInput broadcasts a tile change to connected clients.
type RefreshTileInput struct {
	Event tiles.TileEvent
}

type refreshService interface {
	NotifyTileUpdated(ctx context.Context, event tiles.TileEvent) error
}

// RefreshTileCommand pushes a tile event through the refresh hook.
type RefreshTileCommand struct {
	service   refreshService
	telemetry Telemetry
}

// NewRefreshTileCommand creates a command instance.
func NewRefreshTileCommand(service refreshService, telemetry Telemetry) *RefreshTileCommand {
	return &RefreshTileCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshTileInput] = (*RefreshTileCommand)(nil)

// Execute delegates to the tile service.
func (c *RefreshTileCommand) Execute(ctx context.Context, msg RefreshTileInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	if err := c.service.NotifyTileUpdated(ctx, msg.Event); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "tiles.command.refresh", map[string]any{
		"tile":   msg.Event.Tile.ID,
		"reason": msg.Event.Reason,
	})
	return nil
}
