package tiles

import (
	"embed"
	"io/fs"

	template "github.com/goliatone/go-template"
)

//go:embed templates/pages/*.html templates/tiles/*.html
var embeddedTemplates embed.FS

// NewTemplateRenderer creates a go-template renderer backed by the embedded
// page templates. Tile fragments render separately through the registry.
func NewTemplateRenderer() (Renderer, error) {
	// WithBaseDir would add an OS-filesystem loader resolved against the
	// process working directory; sub-rooting the embedded FS keeps template
	// lookup inside the binary regardless of where it runs.
	pages, err := fs.Sub(embeddedTemplates, "templates/pages")
	if err != nil {
		return nil, err
	}
	return template.NewRenderer(
		template.WithFS(pages),
		template.WithExtension(".html"),
	)
}
