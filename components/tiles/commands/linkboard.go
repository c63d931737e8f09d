package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

// MoveLinkInput drags a link into a category at a position.
type MoveLinkInput struct {
	Viewer     tiles.ViewerContext
	LinkID     int64
	CategoryID int64
	Position   int
}

// MoveLinkCommand persists a link-board drag.
type MoveLinkCommand struct {
	board     tiles.LinkBoardWriter
	telemetry Telemetry
}

// NewMoveLinkCommand creates a command instance.
func NewMoveLinkCommand(board tiles.LinkBoardWriter, telemetry Telemetry) *MoveLinkCommand {
	return &MoveLinkCommand{board: board, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[MoveLinkInput] = (*MoveLinkCommand)(nil)

// Execute moves the link.
func (c *MoveLinkCommand) Execute(ctx context.Context, msg MoveLinkInput) error {
	if c.board == nil {
		return errors.New("move-link command requires a link board writer")
	}
	if msg.LinkID <= 0 || msg.CategoryID <= 0 {
		return &tiles.ValidationError{Field: "link_id", Reason: "link and category ids must be positive"}
	}
	if err := c.board.MoveLink(ctx, msg.Viewer.UserID, msg.LinkID, msg.CategoryID, msg.Position); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "tiles.command.move_link", map[string]any{
		"viewer":   msg.Viewer.UserID,
		"link":     msg.LinkID,
		"category": msg.CategoryID,
	})
	return nil
}

// SaveCategoryInput upserts a link-board column.
type SaveCategoryInput struct {
	Viewer   tiles.ViewerContext
	Category tiles.LinkCategory
}

// SaveCategoryResult carries the stored category.
type SaveCategoryResult struct {
	Category tiles.LinkCategory
}

// SaveCategoryQuery upserts a link-board column.
type SaveCategoryQuery struct {
	board     tiles.LinkBoardWriter
	telemetry Telemetry
}

// NewSaveCategoryQuery creates a query instance.
func NewSaveCategoryQuery(board tiles.LinkBoardWriter, telemetry Telemetry) *SaveCategoryQuery {
	return &SaveCategoryQuery{board: board, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Querier[SaveCategoryInput, SaveCategoryResult] = (*SaveCategoryQuery)(nil)

// Query writes the category and returns the stored row.
func (q *SaveCategoryQuery) Query(ctx context.Context, msg SaveCategoryInput) (SaveCategoryResult, error) {
	if q.board == nil {
		return SaveCategoryResult{}, errors.New("save-category requires a link board writer")
	}
	if msg.Category.Title == "" {
		return SaveCategoryResult{}, &tiles.ValidationError{Field: "title", Reason: "cannot be empty"}
	}
	stored, err := q.board.SaveCategory(ctx, msg.Viewer.UserID, msg.Category)
	if err != nil {
		return SaveCategoryResult{}, err
	}
	q.telemetry.Record(ctx, "tiles.command.save_category", map[string]any{
		"viewer":   msg.Viewer.UserID,
		"category": stored.ID,
	})
	return SaveCategoryResult{Category: stored}, nil
}
