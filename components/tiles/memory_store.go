package tiles

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryTileStore is an in-memory TileStore for examples and tests.
type MemoryTileStore struct {
	mu     sync.Mutex
	nextID int64
	tiles  map[string][]Tile
}

// NewMemoryTileStore creates an empty store.
func NewMemoryTileStore() *MemoryTileStore {
	return &MemoryTileStore{nextID: 1, tiles: make(map[string][]Tile)}
}

// Seed persists a tile set for a user, assigning IDs. Ephemeral input IDs
// are ignored.
func (s *MemoryTileStore) Seed(userID string, tiles []Tile) []Tile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Tile, len(tiles))
	for i, tile := range tiles {
		tile.ID = s.nextID
		s.nextID++
		out[i] = tile
	}
	s.tiles[userID] = out
	return append([]Tile(nil), out...)
}

// SeedTiles persists a tile set when the user has none saved yet.
func (s *MemoryTileStore) SeedTiles(ctx context.Context, userID string, set []Tile) error {
	s.mu.Lock()
	existing := len(s.tiles[userID])
	s.mu.Unlock()
	if existing > 0 {
		return nil
	}
	s.Seed(userID, set)
	return nil
}

// TilesForUser returns the user's tiles sorted by position.
func (s *MemoryTileStore) TilesForUser(ctx context.Context, userID string) ([]Tile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tiles := append([]Tile(nil), s.tiles[userID]...)
	sort.SliceStable(tiles, func(i, j int) bool { return tiles[i].Position < tiles[j].Position })
	return tiles, nil
}

// SavePositions applies a batched reorder. Unknown IDs fail the whole batch.
func (s *MemoryTileStore) SavePositions(ctx context.Context, userID string, order []TilePosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tiles := s.tiles[userID]
	byID := make(map[int64]int, len(tiles))
	for i, tile := range tiles {
		byID[tile.ID] = i
	}
	for _, entry := range order {
		if _, ok := byID[entry.ID]; !ok {
			return fmt.Errorf("tiles: unknown tile %d", entry.ID)
		}
	}
	for _, entry := range order {
		tiles[byID[entry.ID]].Position = entry.Position
	}
	return nil
}

// SaveSpan persists a single tile's span.
func (s *MemoryTileStore) SaveSpan(ctx context.Context, userID string, span TileSpan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tile := range s.tiles[userID] {
		if tile.ID == span.ID {
			s.tiles[userID][i].ColumnSpan = span.ColumnSpan
			s.tiles[userID][i].RowSpan = span.RowSpan
			return nil
		}
	}
	return fmt.Errorf("tiles: unknown tile %d", span.ID)
}

// MoveScreen reassigns a tile to another screen, appending it at the end.
func (s *MemoryTileStore) MoveScreen(ctx context.Context, userID string, tileID int64, screen Screen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tiles := s.tiles[userID]
	maxPos := -1
	for _, tile := range tiles {
		if tile.Screen == screen && tile.Position > maxPos {
			maxPos = tile.Position
		}
	}
	for i, tile := range tiles {
		if tile.ID == tileID {
			tiles[i].Screen = screen
			tiles[i].Position = maxPos + 1
			return nil
		}
	}
	return fmt.Errorf("tiles: unknown tile %d", tileID)
}
