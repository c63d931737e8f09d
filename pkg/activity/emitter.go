package activity

import "context"

// Config controls whether the emitter forwards events at all.
type Config struct {
	Enabled bool
	// Channel overrides the default "dashboard" channel label.
	Channel string
}

// Emitter forwards dashboard actions to the configured hooks. A disabled or
// hook-less emitter drops events silently so call sites need no guards.
type Emitter struct {
	hooks   Hooks
	config  Config
	enabled bool
}

// NewEmitter builds an emitter over the given hooks.
func NewEmitter(hooks Hooks, config Config) *Emitter {
	active := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			active = append(active, hook)
		}
	}
	return &Emitter{
		hooks:   active,
		config:  config,
		enabled: config.Enabled && len(active) > 0,
	}
}

// Enabled reports whether Emit will forward events.
func (e *Emitter) Enabled() bool { return e != nil && e.enabled }

// Emit forwards one event through the hook chain.
func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	if !e.Enabled() {
		return nil
	}
	if evt.Channel == "" {
		evt.Channel = e.config.Channel
	}
	return e.hooks.Notify(ctx, evt)
}
