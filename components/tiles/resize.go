package tiles

import (
	"context"
	"math"
)

// ResizeHandle names which edge of a tile a resize gesture grabbed.
type ResizeHandle int

const (
	// HandleSouthEast resizes both axes.
	HandleSouthEast ResizeHandle = iota
	// HandleSouth resizes rows only.
	HandleSouth
	// HandleEast resizes columns only.
	HandleEast
)

// GridMetrics derives pixel-to-unit conversion from the live container
// geometry rather than hardcoded constants.
type GridMetrics struct {
	ContainerWidth float64
	Columns        int
	Gap            float64
}

// CellWidth returns the width of one grid column.
func (m GridMetrics) CellWidth() float64 {
	if m.Columns <= 0 {
		return 0
	}
	return (m.ContainerWidth - m.Gap*float64(m.Columns-1)) / float64(m.Columns)
}

// ResizeSession tracks one resize gesture. Spans are clamped to
// [MinSpan, MaxSpan] on every update, and the session keeps a progressive
// origin: whenever the computed span changes, the start point and start
// span reset to current values so the next pointer delta is interpreted
// incrementally rather than cumulatively from the original grab point.
type ResizeSession struct {
	tile    Tile
	handle  ResizeHandle
	metrics GridMetrics

	startX, startY float64
	startCols      int
	startRows      int
	cols, rows     int

	// pre-drag span for rollback on a failed persist
	origCols, origRows int

	rowHeight float64
}

// NewResizeSession begins a gesture on the given tile. renderedHeight is
// the tile's current pixel height; row height self-calibrates from it and
// the current row span.
func NewResizeSession(tile Tile, handle ResizeHandle, metrics GridMetrics, x, y, renderedHeight float64) *ResizeSession {
	cols := clampSpan(tile.ColumnSpan)
	rows := clampSpan(tile.RowSpan)
	rowHeight := renderedHeight
	if rows > 0 {
		rowHeight = renderedHeight / float64(rows)
	}
	return &ResizeSession{
		tile:      tile,
		handle:    handle,
		metrics:   metrics,
		startX:    x,
		startY:    y,
		startCols: cols,
		startRows: rows,
		cols:      cols,
		rows:      rows,
		origCols:  cols,
		origRows:  rows,
		rowHeight: rowHeight,
	}
}

// Update converts a pointer position into the current span, applying the
// handle's axis restriction. It reports whether the span changed.
func (s *ResizeSession) Update(x, y float64) (TileSpan, bool) {
	cols := s.startCols
	rows := s.startRows

	if s.handle != HandleSouth {
		unit := s.metrics.CellWidth() + s.metrics.Gap
		if unit > 0 {
			cols = clampSpan(s.startCols + int(math.Round((x-s.startX)/unit)))
		}
	}
	if s.handle != HandleEast {
		unit := s.rowHeight + s.metrics.Gap
		if unit > 0 {
			rows = clampSpan(s.startRows + int(math.Round((y-s.startY)/unit)))
		}
	}

	changed := cols != s.cols || rows != s.rows
	if changed {
		s.cols = cols
		s.rows = rows
		// progressive origin reset
		s.startX = x
		s.startY = y
		s.startCols = cols
		s.startRows = rows
	}
	return s.Span(), changed
}

// Span returns the session's current (clamped) span.
func (s *ResizeSession) Span() TileSpan {
	return TileSpan{ID: s.tile.ID, ColumnSpan: s.cols, RowSpan: s.rows}
}

// Rollback returns the pre-drag span the tile must visually revert to when
// the persist fails.
func (s *ResizeSession) Rollback() TileSpan {
	return TileSpan{ID: s.tile.ID, ColumnSpan: s.origCols, RowSpan: s.origRows}
}

// End persists the final span on pointer-up. Ephemeral tiles skip the write
// and keep their visual span for the page lifetime. On failure the caller
// applies Rollback to the tile's visual state.
func (s *ResizeSession) End(ctx context.Context, service *Service, viewer ViewerContext) error {
	if !s.tile.Persisted() {
		return nil
	}
	if s.cols == s.origCols && s.rows == s.origRows {
		return nil
	}
	return service.Resize(ctx, viewer, []TileSpan{s.Span()})
}
