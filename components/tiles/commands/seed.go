package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

// SeedTilesInput materializes the default tile set for a user.
type SeedTilesInput struct {
	Viewer tiles.ViewerContext
	// Tiles overrides the default set when non-empty.
	Tiles []tiles.Tile
}

type seedStore interface {
	SeedTiles(ctx context.Context, userID string, set []tiles.Tile) error
}

// SeedTilesCommand persists the starter layout so later reorder and resize
// writes have real rows to reference.
type SeedTilesCommand struct {
	store     seedStore
	telemetry Telemetry
}

// NewSeedTilesCommand creates a command instance.
func NewSeedTilesCommand(store seedStore, telemetry Telemetry) *SeedTilesCommand {
	return &SeedTilesCommand{store: store, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SeedTilesInput] = (*SeedTilesCommand)(nil)

// Execute seeds the layout.
func (c *SeedTilesCommand) Execute(ctx context.Context, msg SeedTilesInput) error {
	if c.store == nil {
		return errors.New("seed command requires a store")
	}
	set := msg.Tiles
	if len(set) == 0 {
		set = tiles.DefaultTileSet()
	}
	if err := c.store.SeedTiles(ctx, msg.Viewer.UserID, set); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "tiles.command.seed", map[string]any{
		"viewer": msg.Viewer.UserID,
		"count":  len(set),
	})
	return nil
}
