package sqlstore

import (
	"context"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

type bookmarkRow struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
	URL   string `db:"url"`
}

// BookmarksForUser implements tiles.BookmarkSource.
func (s *Store) BookmarksForUser(ctx context.Context, userID string) ([]tiles.BookmarkRecord, error) {
	var rows []bookmarkRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, title, url FROM bookmarks WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, &tiles.PersistenceError{Op: "load bookmarks", Err: err}
	}
	bookmarks := make([]tiles.BookmarkRecord, len(rows))
	for i, row := range rows {
		bookmarks[i] = tiles.BookmarkRecord{ID: row.ID, Title: row.Title, URL: row.URL}
	}
	return bookmarks, nil
}

// AddBookmark implements tiles.BookmarkWriter.
func (s *Store) AddBookmark(ctx context.Context, userID string, bookmark tiles.BookmarkRecord) (tiles.BookmarkRecord, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (user_id, title, url) VALUES (?, ?, ?)`,
		userID, bookmark.Title, bookmark.URL)
	if err != nil {
		return tiles.BookmarkRecord{}, &tiles.PersistenceError{Op: "add bookmark", Err: err}
	}
	id, err := result.LastInsertId()
	if err != nil {
		return tiles.BookmarkRecord{}, &tiles.PersistenceError{Op: "add bookmark", Err: err}
	}
	bookmark.ID = id
	return bookmark, nil
}

// RemoveBookmark implements tiles.BookmarkWriter.
func (s *Store) RemoveBookmark(ctx context.Context, userID string, bookmarkID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ? AND user_id = ?`, bookmarkID, userID)
	if err != nil {
		return &tiles.PersistenceError{Op: "remove bookmark", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &tiles.PersistenceError{Op: "remove bookmark", Err: err}
	}
	if affected == 0 {
		return &tiles.ValidationError{Field: "id", Reason: "bookmark not found"}
	}
	return nil
}
