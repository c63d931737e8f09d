package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

// SaveNoteInput upserts a note; a zero ID inserts.
type SaveNoteInput struct {
	Viewer tiles.ViewerContext
	Note   tiles.NoteRecord
}

// SaveNoteResult returns the stored note so the autosave response can carry
// the assigned ID.
type SaveNoteResult struct {
	Note tiles.NoteRecord
}

// SaveNoteQuery persists a note. It is modeled as a Querier because the
// caller needs the assigned ID back.
type SaveNoteQuery struct {
	notes     tiles.NoteWriter
	telemetry Telemetry
}

// NewSaveNoteQuery creates a query instance.
func NewSaveNoteQuery(notes tiles.NoteWriter, telemetry Telemetry) *SaveNoteQuery {
	return &SaveNoteQuery{notes: notes, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Querier[SaveNoteInput, SaveNoteResult] = (*SaveNoteQuery)(nil)

// Query writes the note and returns the stored row.
func (q *SaveNoteQuery) Query(ctx context.Context, msg SaveNoteInput) (SaveNoteResult, error) {
	if q.notes == nil {
		return SaveNoteResult{}, errors.New("save-note requires a note writer")
	}
	stored, err := q.notes.SaveNote(ctx, msg.Viewer.UserID, msg.Note)
	if err != nil {
		return SaveNoteResult{}, err
	}
	q.telemetry.Record(ctx, "tiles.command.save_note", map[string]any{
		"viewer": msg.Viewer.UserID,
		"note":   stored.ID,
	})
	return SaveNoteResult{Note: stored}, nil
}

// DeleteNoteInput removes one note.
type DeleteNoteInput struct {
	Viewer tiles.ViewerContext
	NoteID int64
}

// DeleteNoteCommand removes a note.
type DeleteNoteCommand struct {
	notes     tiles.NoteWriter
	telemetry Telemetry
}

// NewDeleteNoteCommand creates a command instance.
func NewDeleteNoteCommand(notes tiles.NoteWriter, telemetry Telemetry) *DeleteNoteCommand {
	return &DeleteNoteCommand{notes: notes, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteNoteInput] = (*DeleteNoteCommand)(nil)

// Execute removes the note.
func (c *DeleteNoteCommand) Execute(ctx context.Context, msg DeleteNoteInput) error {
	if c.notes == nil {
		return errors.New("delete-note command requires a note writer")
	}
	if msg.NoteID <= 0 {
		return &tiles.ValidationError{Field: "note_id", Reason: "must be positive"}
	}
	if err := c.notes.DeleteNote(ctx, msg.Viewer.UserID, msg.NoteID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "tiles.command.delete_note", map[string]any{
		"viewer": msg.Viewer.UserID,
		"note":   msg.NoteID,
	})
	return nil
}
