package tiles

import "io"

// Renderer describes the page template renderer used by the HTTP layer.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}
