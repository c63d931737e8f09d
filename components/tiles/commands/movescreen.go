package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

// MoveTileScreenInput reassigns one tile to another screen.
type MoveTileScreenInput struct {
	Viewer tiles.ViewerContext
	TileID int64
	Screen tiles.Screen
}

type moveScreenService interface {
	MoveScreen(ctx context.Context, viewer tiles.ViewerContext, tileID int64, screen tiles.Screen) error
}

// MoveTileScreenCommand wraps Service.MoveScreen.
type MoveTileScreenCommand struct {
	service   moveScreenService
	telemetry Telemetry
}

// NewMoveTileScreenCommand creates a command instance.
func NewMoveTileScreenCommand(service moveScreenService, telemetry Telemetry) *MoveTileScreenCommand {
	return &MoveTileScreenCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[MoveTileScreenInput] = (*MoveTileScreenCommand)(nil)

// Execute delegates to the tile service.
func (c *MoveTileScreenCommand) Execute(ctx context.Context, msg MoveTileScreenInput) error {
	if c.service == nil {
		return errors.New("move-screen command requires service")
	}
	if err := c.service.MoveScreen(ctx, msg.Viewer, msg.TileID, msg.Screen); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "tiles.command.move_screen", map[string]any{
		"viewer": msg.Viewer.UserID,
		"tile":   msg.TileID,
		"screen": string(msg.Screen),
	})
	return nil
}
