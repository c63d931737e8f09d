package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
	"github.com/tilekit/go-tileboard/components/tiles/commands"
	"github.com/tilekit/go-tileboard/components/tiles/queries"
)

// Executor is the command surface the HTTP route layers invoke. It keeps
// transports decoupled from concrete command wiring.
type Executor interface {
	FetchTile(ctx context.Context, input queries.TileFetchInput) (queries.TileFetchResult, error)
	Layout(ctx context.Context, viewer tiles.ViewerContext) (tiles.Layout, error)
	Reorder(ctx context.Context, input commands.ReorderTilesInput) error
	Resize(ctx context.Context, input commands.ResizeTilesInput) error
	MoveScreen(ctx context.Context, input commands.MoveTileScreenInput) error
	CompleteTask(ctx context.Context, input commands.CompleteTaskInput) error
	SaveNote(ctx context.Context, input commands.SaveNoteInput) (commands.SaveNoteResult, error)
	DeleteNote(ctx context.Context, input commands.DeleteNoteInput) error
	AddBookmark(ctx context.Context, input commands.AddBookmarkInput) (commands.AddBookmarkResult, error)
	RemoveBookmark(ctx context.Context, input commands.RemoveBookmarkInput) error
	SaveCategory(ctx context.Context, input commands.SaveCategoryInput) (commands.SaveCategoryResult, error)
	MoveLink(ctx context.Context, input commands.MoveLinkInput) error
	Suggestions(ctx context.Context, input queries.SuggestionsInput) ([]tiles.Suggestion, error)
	Ask(ctx context.Context, input queries.AskInput) (string, error)
}

// CommandExecutor binds go-command handlers into the Executor surface.
// Nil fields reject their operations instead of panicking, so partial
// deployments (no assistant, no CRM) stay safe.
type CommandExecutor struct {
	TileQuery         gocommand.Querier[queries.TileFetchInput, queries.TileFetchResult]
	LayoutQuery       gocommand.Querier[tiles.ViewerContext, tiles.Layout]
	ReorderCmd        gocommand.Commander[commands.ReorderTilesInput]
	ResizeCmd         gocommand.Commander[commands.ResizeTilesInput]
	MoveScreenCmd     gocommand.Commander[commands.MoveTileScreenInput]
	CompleteTaskCmd   gocommand.Commander[commands.CompleteTaskInput]
	SaveNoteQry       gocommand.Querier[commands.SaveNoteInput, commands.SaveNoteResult]
	DeleteNoteCmd     gocommand.Commander[commands.DeleteNoteInput]
	AddBookmarkQry    gocommand.Querier[commands.AddBookmarkInput, commands.AddBookmarkResult]
	RemoveBookmarkCmd gocommand.Commander[commands.RemoveBookmarkInput]
	SaveCategoryQry   gocommand.Querier[commands.SaveCategoryInput, commands.SaveCategoryResult]
	MoveLinkCmd       gocommand.Commander[commands.MoveLinkInput]
	SuggestionsQry    gocommand.Querier[queries.SuggestionsInput, []tiles.Suggestion]
	AskQry            gocommand.Querier[queries.AskInput, string]
}

var errNotWired = errors.New("httpapi: operation not wired")

var _ Executor = (*CommandExecutor)(nil)

func (e *CommandExecutor) FetchTile(ctx context.Context, input queries.TileFetchInput) (queries.TileFetchResult, error) {
	if e.TileQuery == nil {
		return queries.TileFetchResult{}, errNotWired
	}
	return e.TileQuery.Query(ctx, input)
}

func (e *CommandExecutor) Layout(ctx context.Context, viewer tiles.ViewerContext) (tiles.Layout, error) {
	if e.LayoutQuery == nil {
		return tiles.Layout{}, errNotWired
	}
	return e.LayoutQuery.Query(ctx, viewer)
}

func (e *CommandExecutor) Reorder(ctx context.Context, input commands.ReorderTilesInput) error {
	if e.ReorderCmd == nil {
		return errNotWired
	}
	return e.ReorderCmd.Execute(ctx, input)
}

func (e *CommandExecutor) Resize(ctx context.Context, input commands.ResizeTilesInput) error {
	if e.ResizeCmd == nil {
		return errNotWired
	}
	return e.ResizeCmd.Execute(ctx, input)
}

func (e *CommandExecutor) MoveScreen(ctx context.Context, input commands.MoveTileScreenInput) error {
	if e.MoveScreenCmd == nil {
		return errNotWired
	}
	return e.MoveScreenCmd.Execute(ctx, input)
}

func (e *CommandExecutor) CompleteTask(ctx context.Context, input commands.CompleteTaskInput) error {
	if e.CompleteTaskCmd == nil {
		return errNotWired
	}
	return e.CompleteTaskCmd.Execute(ctx, input)
}

func (e *CommandExecutor) SaveNote(ctx context.Context, input commands.SaveNoteInput) (commands.SaveNoteResult, error) {
	if e.SaveNoteQry == nil {
		return commands.SaveNoteResult{}, errNotWired
	}
	return e.SaveNoteQry.Query(ctx, input)
}

func (e *CommandExecutor) DeleteNote(ctx context.Context, input commands.DeleteNoteInput) error {
	if e.DeleteNoteCmd == nil {
		return errNotWired
	}
	return e.DeleteNoteCmd.Execute(ctx, input)
}

func (e *CommandExecutor) AddBookmark(ctx context.Context, input commands.AddBookmarkInput) (commands.AddBookmarkResult, error) {
	if e.AddBookmarkQry == nil {
		return commands.AddBookmarkResult{}, errNotWired
	}
	return e.AddBookmarkQry.Query(ctx, input)
}

func (e *CommandExecutor) RemoveBookmark(ctx context.Context, input commands.RemoveBookmarkInput) error {
	if e.RemoveBookmarkCmd == nil {
		return errNotWired
	}
	return e.RemoveBookmarkCmd.Execute(ctx, input)
}

func (e *CommandExecutor) SaveCategory(ctx context.Context, input commands.SaveCategoryInput) (commands.SaveCategoryResult, error) {
	if e.SaveCategoryQry == nil {
		return commands.SaveCategoryResult{}, errNotWired
	}
	return e.SaveCategoryQry.Query(ctx, input)
}

func (e *CommandExecutor) MoveLink(ctx context.Context, input commands.MoveLinkInput) error {
	if e.MoveLinkCmd == nil {
		return errNotWired
	}
	return e.MoveLinkCmd.Execute(ctx, input)
}

func (e *CommandExecutor) Suggestions(ctx context.Context, input queries.SuggestionsInput) ([]tiles.Suggestion, error) {
	if e.SuggestionsQry == nil {
		return nil, errNotWired
	}
	return e.SuggestionsQry.Query(ctx, input)
}

func (e *CommandExecutor) Ask(ctx context.Context, input queries.AskInput) (string, error) {
	if e.AskQry == nil {
		return "", errNotWired
	}
	return e.AskQry.Query(ctx, input)
}
