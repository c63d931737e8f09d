package sqlstore

import (
	"context"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

type categoryRow struct {
	ID       int64  `db:"id"`
	Title    string `db:"title"`
	Position int    `db:"position"`
}

type linkRow struct {
	ID         int64  `db:"id"`
	CategoryID int64  `db:"category_id"`
	Title      string `db:"title"`
	URL        string `db:"url"`
}

// LinkBoardForUser implements tiles.LinkBoardSource. Categories come back in
// board order with their links nested.
func (s *Store) LinkBoardForUser(ctx context.Context, userID string) ([]tiles.LinkCategory, error) {
	var cats []categoryRow
	err := s.db.SelectContext(ctx, &cats, `
		SELECT id, title, position FROM link_categories WHERE user_id = ? ORDER BY position, id`, userID)
	if err != nil {
		return nil, &tiles.PersistenceError{Op: "load link board", Err: err}
	}
	if len(cats) == 0 {
		return nil, nil
	}

	var links []linkRow
	err = s.db.SelectContext(ctx, &links, `
		SELECT l.id, l.category_id, l.title, l.url
		FROM link_items l
		JOIN link_categories c ON c.id = l.category_id
		WHERE c.user_id = ?
		ORDER BY l.position, l.id`, userID)
	if err != nil {
		return nil, &tiles.PersistenceError{Op: "load link board", Err: err}
	}

	byCategory := make(map[int64][]tiles.BookmarkRecord, len(cats))
	for _, link := range links {
		byCategory[link.CategoryID] = append(byCategory[link.CategoryID], tiles.BookmarkRecord{
			ID: link.ID, Title: link.Title, URL: link.URL,
		})
	}
	board := make([]tiles.LinkCategory, len(cats))
	for i, cat := range cats {
		board[i] = tiles.LinkCategory{ID: cat.ID, Title: cat.Title, Links: byCategory[cat.ID]}
	}
	return board, nil
}

// SaveCategory implements tiles.LinkBoardWriter. A zero ID appends a new
// column; a positive ID renames the owned one.
func (s *Store) SaveCategory(ctx context.Context, userID string, category tiles.LinkCategory) (tiles.LinkCategory, error) {
	if category.ID <= 0 {
		var maxPos int
		err := s.db.GetContext(ctx, &maxPos, `
			SELECT COALESCE(MAX(position), -1) FROM link_categories WHERE user_id = ?`, userID)
		if err != nil {
			return tiles.LinkCategory{}, &tiles.PersistenceError{Op: "save category", Err: err}
		}
		result, err := s.db.ExecContext(ctx, `
			INSERT INTO link_categories (user_id, title, position) VALUES (?, ?, ?)`,
			userID, category.Title, maxPos+1)
		if err != nil {
			return tiles.LinkCategory{}, &tiles.PersistenceError{Op: "save category", Err: err}
		}
		id, err := result.LastInsertId()
		if err != nil {
			return tiles.LinkCategory{}, &tiles.PersistenceError{Op: "save category", Err: err}
		}
		category.ID = id
		return category, nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE link_categories SET title = ? WHERE id = ? AND user_id = ?`,
		category.Title, category.ID, userID)
	if err != nil {
		return tiles.LinkCategory{}, &tiles.PersistenceError{Op: "save category", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return tiles.LinkCategory{}, &tiles.PersistenceError{Op: "save category", Err: err}
	}
	if affected == 0 {
		return tiles.LinkCategory{}, &tiles.ValidationError{Field: "id", Reason: "category not found"}
	}
	return category, nil
}

// DeleteCategory implements tiles.LinkBoardWriter. Links cascade with the
// category.
func (s *Store) DeleteCategory(ctx context.Context, userID string, categoryID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM link_categories WHERE id = ? AND user_id = ?`, categoryID, userID)
	if err != nil {
		return &tiles.PersistenceError{Op: "delete category", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &tiles.PersistenceError{Op: "delete category", Err: err}
	}
	if affected == 0 {
		return &tiles.ValidationError{Field: "id", Reason: "category not found"}
	}
	return nil
}

// AddLink implements tiles.LinkBoardWriter.
func (s *Store) AddLink(ctx context.Context, userID string, categoryID int64, link tiles.BookmarkRecord) (tiles.BookmarkRecord, error) {
	if err := s.ownsCategory(ctx, userID, categoryID); err != nil {
		return tiles.BookmarkRecord{}, err
	}
	var maxPos int
	err := s.db.GetContext(ctx, &maxPos, `
		SELECT COALESCE(MAX(position), -1) FROM link_items WHERE category_id = ?`, categoryID)
	if err != nil {
		return tiles.BookmarkRecord{}, &tiles.PersistenceError{Op: "add link", Err: err}
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO link_items (category_id, title, url, position) VALUES (?, ?, ?, ?)`,
		categoryID, link.Title, link.URL, maxPos+1)
	if err != nil {
		return tiles.BookmarkRecord{}, &tiles.PersistenceError{Op: "add link", Err: err}
	}
	id, err := result.LastInsertId()
	if err != nil {
		return tiles.BookmarkRecord{}, &tiles.PersistenceError{Op: "add link", Err: err}
	}
	link.ID = id
	return link, nil
}

// RemoveLink implements tiles.LinkBoardWriter.
func (s *Store) RemoveLink(ctx context.Context, userID string, linkID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM link_items WHERE id = ? AND category_id IN (
			SELECT id FROM link_categories WHERE user_id = ?
		)`, linkID, userID)
	if err != nil {
		return &tiles.PersistenceError{Op: "remove link", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &tiles.PersistenceError{Op: "remove link", Err: err}
	}
	if affected == 0 {
		return &tiles.ValidationError{Field: "id", Reason: "link not found"}
	}
	return nil
}

// MoveLink implements tiles.LinkBoardWriter. The link is reinserted at the
// requested slot of the target category and both columns stay densely
// numbered.
func (s *Store) MoveLink(ctx context.Context, userID string, linkID, toCategoryID int64, position int) error {
	if err := s.ownsCategory(ctx, userID, toCategoryID); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &tiles.PersistenceError{Op: "move link", Err: err}
	}
	defer tx.Rollback()

	var current linkRow
	err = tx.GetContext(ctx, &current, `
		SELECT l.id, l.category_id, l.title, l.url
		FROM link_items l
		JOIN link_categories c ON c.id = l.category_id
		WHERE l.id = ? AND c.user_id = ?`, linkID, userID)
	if err != nil {
		return &tiles.ValidationError{Field: "id", Reason: "link not found"}
	}

	if position < 0 {
		position = 0
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE link_items SET position = position + 1
		WHERE category_id = ? AND position >= ? AND id != ?`,
		toCategoryID, position, linkID)
	if err != nil {
		return &tiles.PersistenceError{Op: "move link", Err: err}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE link_items SET category_id = ?, position = ? WHERE id = ?`,
		toCategoryID, position, linkID)
	if err != nil {
		return &tiles.PersistenceError{Op: "move link", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &tiles.PersistenceError{Op: "move link", Err: err}
	}
	return nil
}

func (s *Store) ownsCategory(ctx context.Context, userID string, categoryID int64) error {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM link_categories WHERE id = ? AND user_id = ?`, categoryID, userID)
	if err != nil {
		return &tiles.PersistenceError{Op: "lookup category", Err: err}
	}
	if count == 0 {
		return &tiles.ValidationError{Field: "category_id", Reason: "category not found"}
	}
	return nil
}
