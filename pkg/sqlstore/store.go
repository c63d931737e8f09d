package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

const schema = `
CREATE TABLE IF NOT EXISTS tiles (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id         TEXT NOT NULL,
	type            TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	position        INTEGER NOT NULL DEFAULT 0,
	column_span     INTEGER NOT NULL DEFAULT 1,
	row_span        INTEGER NOT NULL DEFAULT 1,
	screen          TEXT NOT NULL DEFAULT 'main',
	refresh_seconds INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_tiles_user ON tiles(user_id, screen, position);

CREATE TABLE IF NOT EXISTS notes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id, id);

CREATE TABLE IF NOT EXISTS bookmarks (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	title   TEXT NOT NULL DEFAULT '',
	url     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bookmarks_user ON bookmarks(user_id, id);

CREATE TABLE IF NOT EXISTS link_categories (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id  TEXT NOT NULL,
	title    TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_link_categories_user ON link_categories(user_id, position);

CREATE TABLE IF NOT EXISTS link_items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	category_id INTEGER NOT NULL REFERENCES link_categories(id) ON DELETE CASCADE,
	title       TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL,
	position    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_link_items_category ON link_items(category_id, position);
`

// Config configures the SQLite-backed store.
type Config struct {
	// Path is the database file. ":memory:" gives an in-process database.
	Path   string
	Logger *zap.Logger
}

// Store persists tiles, notes, bookmarks, and link board data in SQLite. It
// implements tiles.TileStore, tiles.NoteSource/NoteWriter,
// tiles.BookmarkSource/BookmarkWriter, and
// tiles.LinkBoardSource/LinkBoardWriter.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
}

// Open connects to the database file and applies the schema.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlstore: path is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Connect("sqlite3", cfg.Path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: apply schema: %w", err)
	}
	logger.Info("sqlstore ready", zap.String("path", cfg.Path))
	return &Store{db: db, log: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// SeedTiles inserts the default tile set for a user who has none yet. It is
// a no-op when any tile row already exists for the user.
func (s *Store) SeedTiles(ctx context.Context, userID string, set []tiles.Tile) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin seed: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM tiles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlstore: count tiles: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, tile := range set {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tiles (user_id, type, title, position, column_span, row_span, screen, refresh_seconds)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, tile.Type, tile.Title, tile.Position, tile.ColumnSpan, tile.RowSpan,
			string(tile.Screen), int(tile.RefreshInterval.Seconds()))
		if err != nil {
			return fmt.Errorf("sqlstore: seed tile %s: %w", tile.Type, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit seed: %w", err)
	}
	s.log.Info("seeded default tiles", zap.String("user", userID), zap.Int("count", len(set)))
	return nil
}
