package tiles

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a fetch rejected for a missing or expired session.
// It is never rendered as a tile-local error: the lifecycle controller
// converts the first occurrence into a login redirect.
var ErrUnauthorized = errors.New("tiles: unauthorized")

// ErrNotConnected marks an upstream integration the viewer has not linked
// yet. Providers translate it into a connect-prompt payload instead of an
// error card.
var ErrNotConnected = errors.New("tiles: integration not connected")

var (
	errMissingTileStore = errors.New("tiles: tile store not configured")
	errUnknownTileType  = errors.New("tiles: unknown tile type")
	errEphemeralTile    = errors.New("tiles: ephemeral tile cannot be persisted")
)

// UpstreamError wraps a non-2xx or {error} response from a tile's data
// source. It renders as an inline error card with a retry button.
type UpstreamError struct {
	TileType string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("tiles: %s upstream returned %d: %s", e.TileType, e.Status, e.Message)
	}
	return fmt.Sprintf("tiles: %s upstream error: %s", e.TileType, e.Message)
}

// ValidationError reports malformed user input on a CRUD action. The caller
// keeps the submitted input so the user can correct it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tiles: invalid %s: %s", e.Field, e.Reason)
}

// NetworkError wraps a transport failure reaching a tile's data source.
type NetworkError struct {
	TileType string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("tiles: %s fetch failed: %v", e.TileType, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PersistenceError reports a failed reorder/resize/move write. The caller
// rolls back only the affected tile's visual state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("tiles: %s not saved: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SchemaError reports a tile payload that failed schema validation at the
// fetch boundary, so renderers never see partial or garbled data.
type SchemaError struct {
	TileType string
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("tiles: %s payload failed validation: %v", e.TileType, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
