package tiles

import (
	"context"
	"fmt"
	"io"
)

// PageController renders the dashboard page shell: tile placeholders the
// frontend fills via the tile API.
type PageController struct {
	service  *Service
	renderer Renderer
	title    string
}

// PageControllerOptions configures the page controller.
type PageControllerOptions struct {
	Service  *Service
	Renderer Renderer
	Title    string
}

// NewPageController builds a controller. Renderer defaults to the embedded
// template set.
func NewPageController(opts PageControllerOptions) (*PageController, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("tiles: page controller requires a service")
	}
	renderer := opts.Renderer
	if renderer == nil {
		var err error
		renderer, err = NewTemplateRenderer()
		if err != nil {
			return nil, err
		}
	}
	title := opts.Title
	if title == "" {
		title = "Tileboard"
	}
	return &PageController{service: opts.Service, renderer: renderer, title: title}, nil
}

// RenderPage writes the dashboard HTML for one screen.
func (c *PageController) RenderPage(ctx context.Context, viewer ViewerContext, screen Screen, csrfToken string, out io.Writer) error {
	if screen == "" {
		screen = ScreenMain
	}
	layout, err := c.service.Layout(ctx, viewer)
	if err != nil {
		return err
	}
	shells := make([]map[string]any, 0, len(layout.Screens[screen]))
	for _, tile := range layout.Screens[screen] {
		shells = append(shells, tileViewModel(tile))
	}
	data := map[string]any{
		"title":      c.title,
		"screen":     string(screen),
		"csrf_token": csrfToken,
		"tiles":      shells,
	}
	_, err = c.renderer.Render("dashboard", data, out)
	return err
}

// LayoutPayload returns the JSON layout document for both screens.
func (c *PageController) LayoutPayload(ctx context.Context, viewer ViewerContext) (map[string]any, error) {
	layout, err := c.service.Layout(ctx, viewer)
	if err != nil {
		return nil, err
	}
	screens := map[string]any{}
	for screen, list := range layout.Screens {
		rows := make([]map[string]any, 0, len(list))
		for _, tile := range list {
			rows = append(rows, tileViewModel(tile))
		}
		screens[string(screen)] = rows
	}
	return map[string]any{"screens": screens}, nil
}

func tileViewModel(tile Tile) map[string]any {
	return map[string]any{
		"id":              tile.ID,
		"type":            tile.Type,
		"title":           tile.Title,
		"position":        tile.Position,
		"column_span":     tile.ColumnSpan,
		"row_span":        tile.RowSpan,
		"screen":          string(tile.Screen),
		"refresh_seconds": int(tile.RefreshInterval.Seconds()),
	}
}
