package tileboard

import (
	core "github.com/tilekit/go-tileboard/components/tiles"
)

// Service exposes the underlying components/tiles.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}
