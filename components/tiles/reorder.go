package tiles

import (
	"context"
	"sync"
)

// RefreshPauser is the slice of the lifecycle controller a reorder session
// needs: timers off while editing, back on when done.
type RefreshPauser interface {
	Pause()
	Resume()
}

// ReorderSession models one entered reorder mode for a single screen. The
// visual order mutates live on every Move (push-model preview); Save then
// just persists what the session already shows. A failed save keeps the
// session active so the pending order is not discarded.
type ReorderSession struct {
	service *Service
	pauser  RefreshPauser
	viewer  ViewerContext

	mu     sync.Mutex
	order  []Tile
	active bool
	saved  bool
}

// NewReorderSession enters reorder mode over the given tiles (current
// display order for one screen) and pauses auto-refresh.
func NewReorderSession(service *Service, pauser RefreshPauser, viewer ViewerContext, order []Tile) *ReorderSession {
	if pauser != nil {
		pauser.Pause()
	}
	return &ReorderSession{
		service: service,
		pauser:  pauser,
		viewer:  viewer,
		order:   append([]Tile(nil), order...),
		active:  true,
	}
}

// Move reinserts the tile at from so it sits at index to, shifting the
// tiles in between. Equal indexes are a no-op, matching the drag tie-break.
func (s *ReorderSession) Move(from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || from == to {
		return false
	}
	if from < 0 || from >= len(s.order) || to < 0 || to >= len(s.order) {
		return false
	}
	tile := s.order[from]
	s.order = append(s.order[:from], s.order[from+1:]...)
	rest := append([]Tile(nil), s.order[to:]...)
	s.order = append(append(s.order[:to:to], tile), rest...)
	return true
}

// Order returns the current visual order.
func (s *ReorderSession) Order() []Tile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Tile(nil), s.order...)
}

// Positions enumerates the persistable {id, position} pairs in current
// order. Position is the tile's index in the full visual order; ephemeral
// id=0 tiles are skipped but still occupy an index.
func (s *ReorderSession) Positions() []TilePosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TilePosition, 0, len(s.order))
	for idx, tile := range s.order {
		if !tile.Persisted() {
			continue
		}
		out = append(out, TilePosition{ID: tile.ID, Position: idx})
	}
	return out
}

// Active reports whether the session still owns the edit mode.
func (s *ReorderSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Saved reports whether the session ended with a successful save.
func (s *ReorderSession) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// Save submits the batched order. On failure the session stays active and
// the error surfaces to the caller (toast); on success the session exits
// and refresh timers resume.
func (s *ReorderSession) Save(ctx context.Context) error {
	positions := s.Positions()
	if err := s.service.Reorder(ctx, s.viewer, positions); err != nil {
		return err
	}
	s.mu.Lock()
	s.saved = true
	s.mu.Unlock()
	s.exit()
	return nil
}

// Cancel leaves reorder mode without persisting anything.
func (s *ReorderSession) Cancel() {
	s.exit()
}

func (s *ReorderSession) exit() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()
	if s.pauser != nil {
		s.pauser.Resume()
	}
}
