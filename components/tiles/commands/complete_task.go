package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

// CompleteTaskInput marks one upstream task as done. Source selects the
// backend: "crm" completes a CRM next-action, anything else goes to the
// task source.
type CompleteTaskInput struct {
	Viewer tiles.ViewerContext
	ListID string
	TaskID string
	Source string
}

type taskRefresher interface {
	NotifyTileUpdated(ctx context.Context, event tiles.TileEvent) error
}

// CompleteTaskCommand completes a task at its source and broadcasts a
// refresh so the owning tile repaints without the row.
type CompleteTaskCommand struct {
	tasks     tiles.TaskSource
	crm       tiles.CRMActionCompleter
	service   taskRefresher
	telemetry Telemetry
}

// NewCompleteTaskCommand creates a command instance. The CRM completer may
// be nil when no CRM backend is configured; "crm"-sourced completions then
// fail with a validation error.
func NewCompleteTaskCommand(tasks tiles.TaskSource, crm tiles.CRMActionCompleter, service taskRefresher, telemetry Telemetry) *CompleteTaskCommand {
	return &CompleteTaskCommand{tasks: tasks, crm: crm, service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CompleteTaskInput] = (*CompleteTaskCommand)(nil)

// Execute completes the task upstream, then notifies subscribers.
func (c *CompleteTaskCommand) Execute(ctx context.Context, msg CompleteTaskInput) error {
	if msg.TaskID == "" {
		return &tiles.ValidationError{Field: "task_id", Reason: "cannot be empty"}
	}
	refreshed := tiles.TypeTasks
	switch msg.Source {
	case "crm":
		if c.crm == nil {
			return &tiles.ValidationError{Field: "source", Reason: "crm backend not configured"}
		}
		if err := c.crm.CompleteAction(ctx, msg.Viewer.UserID, msg.TaskID); err != nil {
			return err
		}
		refreshed = tiles.TypeCRM
	default:
		if c.tasks == nil {
			return errors.New("complete-task command requires a task source")
		}
		if err := c.tasks.CompleteTask(ctx, msg.Viewer.UserID, msg.ListID, msg.TaskID); err != nil {
			return err
		}
	}
	if c.service != nil {
		event := tiles.TileEvent{Tile: tiles.Tile{Type: refreshed}, Reason: "task-completed"}
		if err := c.service.NotifyTileUpdated(ctx, event); err != nil {
			return err
		}
	}
	payload := map[string]any{
		"viewer": msg.Viewer.UserID,
		"task":   msg.TaskID,
	}
	if msg.Source != "" {
		payload["source"] = msg.Source
	}
	c.telemetry.Record(ctx, "tiles.command.complete_task", payload)
	return nil
}
