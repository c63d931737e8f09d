package activity

import (
	"strings"
	"time"
)

// Event is one audit entry for a dashboard action: a tile reordered, a task
// completed, a note saved.
type Event struct {
	// Verb names the action (reorder, resize, complete, save, delete).
	Verb string
	// ActorID is who performed the action; UserID is whose dashboard it
	// touched. They differ only for shared boards.
	ActorID  string
	UserID   string
	TenantID string
	// ObjectType and ObjectID name what was acted on (tile, note, bookmark).
	ObjectType string
	ObjectID   string
	Channel    string
	// DefinitionCode is the "<object>:<verb>" label sinks group by.
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Valid reports whether the event carries the minimum audit fields.
func (e Event) Valid() bool {
	return strings.TrimSpace(e.Verb) != "" &&
		strings.TrimSpace(e.ObjectType) != "" &&
		strings.TrimSpace(e.ObjectID) != ""
}

// NormalizeEvent trims identifier fields, fills defaults, and clones the
// mutable members so hooks cannot alias caller state.
func NormalizeEvent(evt Event) Event {
	evt.Verb = strings.TrimSpace(evt.Verb)
	evt.ObjectType = strings.TrimSpace(evt.ObjectType)
	evt.ObjectID = strings.TrimSpace(evt.ObjectID)
	if evt.Channel == "" {
		evt.Channel = "dashboard"
	}
	if evt.DefinitionCode == "" && evt.Verb != "" && evt.ObjectType != "" {
		evt.DefinitionCode = evt.ObjectType + ":" + evt.Verb
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	if evt.Metadata != nil {
		clone := make(map[string]any, len(evt.Metadata))
		for k, v := range evt.Metadata {
			clone[k] = v
		}
		evt.Metadata = clone
	}
	if evt.Recipients != nil {
		evt.Recipients = append([]string(nil), evt.Recipients...)
	}
	return evt
}
