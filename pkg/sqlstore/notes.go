package sqlstore

import (
	"context"
	"time"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

type noteRow struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NotesForUser implements tiles.NoteSource. Newest notes come first.
func (s *Store) NotesForUser(ctx context.Context, userID string) ([]tiles.NoteRecord, error) {
	var rows []noteRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, title, content, updated_at FROM notes WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, &tiles.PersistenceError{Op: "load notes", Err: err}
	}
	notes := make([]tiles.NoteRecord, len(rows))
	for i, row := range rows {
		notes[i] = tiles.NoteRecord{ID: row.ID, Title: row.Title, Content: row.Content, UpdatedAt: row.UpdatedAt}
	}
	return notes, nil
}

// SaveNote implements tiles.NoteWriter. A zero ID inserts; a positive ID
// replaces the owned row.
func (s *Store) SaveNote(ctx context.Context, userID string, note tiles.NoteRecord) (tiles.NoteRecord, error) {
	note.UpdatedAt = time.Now().UTC()
	if note.ID <= 0 {
		result, err := s.db.ExecContext(ctx, `
			INSERT INTO notes (user_id, title, content, updated_at) VALUES (?, ?, ?, ?)`,
			userID, note.Title, note.Content, note.UpdatedAt)
		if err != nil {
			return tiles.NoteRecord{}, &tiles.PersistenceError{Op: "save note", Err: err}
		}
		id, err := result.LastInsertId()
		if err != nil {
			return tiles.NoteRecord{}, &tiles.PersistenceError{Op: "save note", Err: err}
		}
		note.ID = id
		return note, nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		note.Title, note.Content, note.UpdatedAt, note.ID, userID)
	if err != nil {
		return tiles.NoteRecord{}, &tiles.PersistenceError{Op: "save note", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return tiles.NoteRecord{}, &tiles.PersistenceError{Op: "save note", Err: err}
	}
	if affected == 0 {
		return tiles.NoteRecord{}, &tiles.ValidationError{Field: "id", Reason: "note not found"}
	}
	return note, nil
}

// DeleteNote implements tiles.NoteWriter.
func (s *Store) DeleteNote(ctx context.Context, userID string, noteID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, noteID, userID)
	if err != nil {
		return &tiles.PersistenceError{Op: "delete note", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &tiles.PersistenceError{Op: "delete note", Err: err}
	}
	if affected == 0 {
		return &tiles.ValidationError{Field: "id", Reason: "note not found"}
	}
	return nil
}
