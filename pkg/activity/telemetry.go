package activity

import (
	"context"
	"fmt"
	"strings"
)

// Telemetry matches the Record contract shared by the tiles service and the
// command wrappers.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// Recorder satisfies Telemetry and mirrors command events into the activity
// stream. Next, when set, still receives every event so metrics keep
// counting.
type Recorder struct {
	emitter *Emitter
	next    Telemetry
}

// NewRecorder builds a telemetry bridge over the emitter.
func NewRecorder(emitter *Emitter, next Telemetry) *Recorder {
	return &Recorder{emitter: emitter, next: next}
}

// Record implements Telemetry.
func (r *Recorder) Record(ctx context.Context, event string, payload map[string]any) {
	if r.next != nil {
		r.next.Record(ctx, event, payload)
	}
	if !r.emitter.Enabled() {
		return
	}
	evt := eventFromTelemetry(event, payload)
	if !evt.Valid() {
		return
	}
	_ = r.emitter.Emit(ctx, evt)
}

// eventFromTelemetry maps a "tiles.command.<verb>" telemetry event onto an
// audit entry. Non-command events return an invalid (skipped) event.
func eventFromTelemetry(event string, payload map[string]any) Event {
	const prefix = "tiles.command."
	if !strings.HasPrefix(event, prefix) {
		return Event{}
	}
	verb := strings.TrimPrefix(event, prefix)
	evt := Event{
		Verb:       verb,
		ObjectType: "tile",
		ObjectID:   "layout",
		Metadata:   map[string]any{},
	}
	for key, value := range payload {
		switch key {
		case "viewer":
			if s, ok := value.(string); ok {
				evt.UserID = s
				evt.ActorID = s
			}
		case "tile", "task", "note", "bookmark", "category", "link":
			evt.ObjectType = key
			evt.ObjectID = fmt.Sprint(value)
		default:
			evt.Metadata[key] = value
		}
	}
	return evt
}
