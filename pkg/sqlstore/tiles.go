package sqlstore

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

type tileRow struct {
	ID             int64  `db:"id"`
	Type           string `db:"type"`
	Title          string `db:"title"`
	Position       int    `db:"position"`
	ColumnSpan     int    `db:"column_span"`
	RowSpan        int    `db:"row_span"`
	Screen         string `db:"screen"`
	RefreshSeconds int    `db:"refresh_seconds"`
}

func (r tileRow) toTile() tiles.Tile {
	return tiles.Tile{
		ID:              r.ID,
		Type:            r.Type,
		Title:           r.Title,
		Position:        r.Position,
		ColumnSpan:      r.ColumnSpan,
		RowSpan:         r.RowSpan,
		Screen:          tiles.Screen(r.Screen),
		RefreshInterval: time.Duration(r.RefreshSeconds) * time.Second,
	}
}

// TilesForUser implements tiles.TileStore.
func (s *Store) TilesForUser(ctx context.Context, userID string) ([]tiles.Tile, error) {
	var rows []tileRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, type, title, position, column_span, row_span, screen, refresh_seconds
		FROM tiles WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, &tiles.PersistenceError{Op: "load tiles", Err: err}
	}
	result := make([]tiles.Tile, len(rows))
	for i, row := range rows {
		result[i] = row.toTile()
	}
	return result, nil
}

// SavePositions implements tiles.TileStore. The batch is checked against the
// user's rows before any write so an unknown ID fails the whole batch.
func (s *Store) SavePositions(ctx context.Context, userID string, order []tiles.TilePosition) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &tiles.PersistenceError{Op: "reorder", Err: err}
	}
	defer tx.Rollback()

	for _, entry := range order {
		if err := ownsTile(ctx, tx, userID, entry.ID); err != nil {
			return err
		}
	}
	for _, entry := range order {
		_, err := tx.ExecContext(ctx, `UPDATE tiles SET position = ? WHERE id = ? AND user_id = ?`,
			entry.Position, entry.ID, userID)
		if err != nil {
			return &tiles.PersistenceError{Op: "reorder", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &tiles.PersistenceError{Op: "reorder", Err: err}
	}
	s.log.Debug("positions saved", zap.String("user", userID), zap.Int("count", len(order)))
	return nil
}

// SaveSpan implements tiles.TileStore.
func (s *Store) SaveSpan(ctx context.Context, userID string, span tiles.TileSpan) error {
	if span.ColumnSpan < tiles.MinSpan || span.ColumnSpan > tiles.MaxSpan ||
		span.RowSpan < tiles.MinSpan || span.RowSpan > tiles.MaxSpan {
		return &tiles.ValidationError{Field: "span", Reason: fmt.Sprintf("spans must be between %d and %d", tiles.MinSpan, tiles.MaxSpan)}
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE tiles SET column_span = ?, row_span = ? WHERE id = ? AND user_id = ?`,
		span.ColumnSpan, span.RowSpan, span.ID, userID)
	if err != nil {
		return &tiles.PersistenceError{Op: "resize", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &tiles.PersistenceError{Op: "resize", Err: err}
	}
	if affected == 0 {
		return &tiles.ValidationError{Field: "id", Reason: "tile not found"}
	}
	return nil
}

// MoveScreen implements tiles.TileStore. The tile lands after the target
// screen's current tiles.
func (s *Store) MoveScreen(ctx context.Context, userID string, tileID int64, screen tiles.Screen) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &tiles.PersistenceError{Op: "move screen", Err: err}
	}
	defer tx.Rollback()

	if err := ownsTile(ctx, tx, userID, tileID); err != nil {
		return err
	}
	var maxPos int
	err = tx.GetContext(ctx, &maxPos, `
		SELECT COALESCE(MAX(position), -1) FROM tiles WHERE user_id = ? AND screen = ?`,
		userID, string(screen))
	if err != nil {
		return &tiles.PersistenceError{Op: "move screen", Err: err}
	}
	_, err = tx.ExecContext(ctx, `UPDATE tiles SET screen = ?, position = ? WHERE id = ? AND user_id = ?`,
		string(screen), maxPos+1, tileID, userID)
	if err != nil {
		return &tiles.PersistenceError{Op: "move screen", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &tiles.PersistenceError{Op: "move screen", Err: err}
	}
	return nil
}

type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

func ownsTile(ctx context.Context, q queryer, userID string, tileID int64) error {
	if tileID <= 0 {
		return &tiles.ValidationError{Field: "id", Reason: "persisted tile id required"}
	}
	var count int
	if err := q.GetContext(ctx, &count, `SELECT COUNT(*) FROM tiles WHERE id = ? AND user_id = ?`, tileID, userID); err != nil {
		return &tiles.PersistenceError{Op: "lookup tile", Err: err}
	}
	if count == 0 {
		return &tiles.ValidationError{Field: "id", Reason: fmt.Sprintf("tile %d not found", tileID)}
	}
	return nil
}
