package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	router "github.com/goliatone/go-router"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
	"github.com/tilekit/go-tileboard/components/tiles/commands"
	"github.com/tilekit/go-tileboard/components/tiles/httpapi"
	"github.com/tilekit/go-tileboard/components/tiles/queries"
)

// RequestContext is the slice of the go-router context the tileboard routes
// read and write. Handlers are built against it so they stay callable
// without a running router.
type RequestContext interface {
	Context() context.Context
	SetHeader(key, value string) router.Context
	Send(body []byte) error
	JSON(status int, value any) error
	Body() []byte
	Query(name string, defaultValue ...string) string
	Header(name string) string
	Locals(key any, value ...any) any
}

var _ RequestContext = router.Context(nil)

// ViewerResolver extracts the authenticated viewer from a request context.
// The second return is false when no valid session is present.
type ViewerResolver func(RequestContext) (tiles.ViewerContext, bool)

// Config wires go-router with the tileboard page, API, and refresh hook.
type Config[T any] struct {
	Router   router.Router[T]
	Page     *tiles.PageController
	Handlers *httpapi.Handlers
	// Broadcast streams refresh events over the websocket route when set.
	Broadcast      *tiles.BroadcastHook
	ViewerResolver ViewerResolver
	// CSRFToken returns the session's token. It is rendered into the page
	// and verified against the X-CSRF-TOKEN header on every API POST.
	CSRFToken func(RequestContext) string
	BasePath  string
	LoginPath string
	Routes    RouteConfig
}

// RouteConfig customizes the relative paths used for tileboard endpoints.
type RouteConfig struct {
	HTML        string
	Layout      string
	Tiles       string
	Reorder     string
	Resize      string
	MoveScreen  string
	Tasks       string
	Notes       string
	Bookmarks   string
	LinkBoard   string
	Suggestions string
	Ask         string
	WebSocket   string
}

// Register mounts tileboard routes (HTML, JSON API, WebSocket) on a
// go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	set, err := buildRoutes(cfg)
	if err != nil {
		return err
	}

	group := cfg.Router.Group(cfg.BasePath)
	for _, r := range set {
		handler := router.WrapHandler(func(ctx router.Context) error {
			return r.fn(ctx)
		})
		switch r.method {
		case http.MethodGet:
			group.Get(r.path, handler)
		default:
			group.Post(r.path, handler)
		}
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, defaultRouteConfig(cfg.Routes).WebSocket)
	}
	return nil
}

type route struct {
	method string
	path   string
	fn     func(RequestContext) error
}

// buildRoutes assembles every HTTP route as a plain handler over
// RequestContext. Register mounts them; tests invoke them directly.
func buildRoutes[T any](cfg Config[T]) ([]route, error) {
	if cfg.Page == nil {
		return nil, errors.New("gorouter: page controller is required")
	}
	if cfg.Handlers == nil || cfg.Handlers.API == nil {
		return nil, errors.New("gorouter: api handlers are required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	resolver := cfg.ViewerResolver
	if resolver == nil {
		resolver = defaultViewerResolver
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}

	api := cfg.Handlers.API
	dashboardPath := cfg.BasePath + routes.HTML

	// currentPage reconstructs the page URI the viewer should return to
	// after login, keeping the screen selection.
	currentPage := func(ctx RequestContext) string {
		if screen := ctx.Query("screen"); screen != "" {
			return dashboardPath + "?screen=" + url.QueryEscape(screen)
		}
		return dashboardPath
	}
	loginTarget := func(ctx RequestContext) string {
		return loginPath + "?redirect=" + url.QueryEscape(currentPage(ctx))
	}

	viewerOr401 := func(ctx RequestContext) (tiles.ViewerContext, bool) {
		viewer, ok := resolver(ctx)
		if !ok {
			_ = ctx.JSON(http.StatusUnauthorized, map[string]string{
				"error":    "session expired",
				"redirect": loginTarget(ctx),
			})
			return tiles.ViewerContext{}, false
		}
		viewer.Path = currentPage(ctx)
		return viewer, true
	}

	// guardAPI enforces the fetch-only contract on API posts: the AJAX
	// marker is always required, and the CSRF header must match the
	// session token whenever a token source is configured.
	guardAPI := func(ctx RequestContext) bool {
		if ctx.Header(httpapi.HeaderRequestedWith) != httpapi.XMLHTTPRequest {
			_ = ctx.JSON(http.StatusForbidden, map[string]string{"error": "ajax requests only"})
			return false
		}
		if cfg.CSRFToken != nil {
			if !httpapi.TokensMatch(cfg.CSRFToken(ctx), ctx.Header(httpapi.HeaderCSRFToken)) {
				_ = ctx.JSON(http.StatusForbidden, map[string]string{"error": "invalid csrf token"})
				return false
			}
		}
		return true
	}

	post := func(path string, fn func(ctx RequestContext, viewer tiles.ViewerContext) error) route {
		return route{method: http.MethodPost, path: path, fn: func(ctx RequestContext) error {
			viewer, ok := viewerOr401(ctx)
			if !ok {
				return nil
			}
			if !guardAPI(ctx) {
				return nil
			}
			return fn(ctx, viewer)
		}}
	}

	malformed := &tiles.ValidationError{Field: "body", Reason: "malformed request body"}

	set := []route{
		{method: http.MethodGet, path: routes.HTML, fn: func(ctx RequestContext) error {
			viewer, ok := resolver(ctx)
			if !ok {
				target := loginTarget(ctx)
				ctx.SetHeader("Location", target)
				return ctx.JSON(http.StatusFound, map[string]string{"redirect": target})
			}
			viewer.Path = currentPage(ctx)
			screen := tiles.Screen(ctx.Query("screen"))
			token := ""
			if cfg.CSRFToken != nil {
				token = cfg.CSRFToken(ctx)
			}
			var buf bytes.Buffer
			if err := cfg.Page.RenderPage(ctx.Context(), viewer, screen, token, &buf); err != nil {
				return respondError(ctx, loginTarget(ctx), err)
			}
			ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
			return ctx.Send(buf.Bytes())
		}},

		{method: http.MethodGet, path: routes.Layout, fn: func(ctx RequestContext) error {
			viewer, ok := viewerOr401(ctx)
			if !ok {
				return nil
			}
			payload, err := cfg.Page.LayoutPayload(ctx.Context(), viewer)
			if err != nil {
				return respondError(ctx, loginTarget(ctx), err)
			}
			return ctx.JSON(http.StatusOK, payload)
		}},

		post(routes.Tiles, func(ctx RequestContext, viewer tiles.ViewerContext) error {
			var req struct {
				Type   string         `json:"type"`
				TileID int64          `json:"tile_id"`
				Config map[string]any `json:"config,omitempty"`
			}
			if err := json.Unmarshal(ctx.Body(), &req); err != nil {
				return respondError(ctx, loginTarget(ctx), malformed)
			}
			result, err := api.FetchTile(ctx.Context(), queries.TileFetchInput{
				Viewer: viewer,
				Tile:   tiles.Tile{ID: req.TileID, Type: req.Type},
				Config: req.Config,
			})
			if err != nil {
				return respondError(ctx, loginTarget(ctx), err)
			}
			return ctx.JSON(http.StatusOK, map[string]any{
				"payload": result.Payload,
				"html":    result.HTML,
			})
		}),

		post(routes.Reorder, func(ctx RequestContext, viewer tiles.ViewerContext) error {
			var req struct {
				Order []tiles.TilePosition `json:"order"`
			}
			if err := json.Unmarshal(ctx.Body(), &req); err != nil {
				return respondError(ctx, loginTarget(ctx), malformed)
			}
			if err := api.Reorder(ctx.Context(), commands.ReorderTilesInput{Viewer: viewer, Order: req.Order}); err != nil {
				return respondError(ctx, loginTarget(ctx), err)
			}
			return ctx.JSON(http.StatusOK, map[string]bool{"success": true})
		}),

		post(routes.Resize, func(ctx RequestContext, viewer tiles.ViewerContext) error {
			var req struct {
				Tiles []tiles.TileSpan `json:"tiles"`
			}
			if err := json.Unmarshal(ctx.Body(), &req); err != nil {
				return respondError(ctx, loginTarget(ctx), malformed)
			}
			if err := api.Resize(ctx.Context(), commands.ResizeTilesInput{Viewer: viewer, Spans: req.Tiles}); err != nil {
				return respondError(ctx, loginTarget(ctx), err)
			}
			return ctx.JSON(http.StatusOK, map[string]bool{"success": true})
		}),

		post(routes.MoveScreen, func(ctx RequestContext, viewer tiles.ViewerContext) error {
			var req struct {
				TileID int64  `json:"tile_id"`
				Screen string `json:"screen"`
			}
			if err := json.Unmarshal(ctx.Body(), &req); err != nil {
				return respondError(ctx, loginTarget(ctx), malformed)
			}
			input := commands.MoveTileScreenInput{Viewer: viewer, TileID: req.TileID, Screen: tiles.Screen(req.Screen)}
			if err := api.MoveScreen(ctx.Context(), input); err != nil {
				return respondError(ctx, loginTarget(ctx), err)
			}
			return ctx.JSON(http.StatusOK, map[string]bool{"success": true})
		}),

		post(routes.Tasks, func(ctx RequestContext, viewer tiles.ViewerContext) error {
			var req struct {
				TaskID string `json:"task_id"`
				ListID string `json:"list_id,omitempty"`
				Source string `json:"source,omitempty"`
			}
			if err := json.Unmarshal(ctx.Body(), &req); err != nil {
				return respondError(ctx, loginTarget(ctx), malformed)
			}
			input := commands.CompleteTaskInput{Viewer: viewer, ListID: req.ListID, TaskID: req.TaskID, Source: req.Source}
			if err := api.CompleteTask(ctx.Context(), input); err != nil {
				return respondError(ctx, loginTarget(ctx), err)
			}
			return ctx.JSON(http.StatusOK, map[string]bool{"success": true})
		}),

		post(routes.Notes, func(ctx RequestContext, viewer tiles.ViewerContext) error {
			var req httpapi.NoteActionRequest
			if err := json.Unmarshal(ctx.Body(), &req); err != nil {
				return respondError(ctx, loginTarget(ctx), malformed)
			}
			body, err := cfg.Handlers.NoteAction(ctx.Context(), viewer, req)
			if err != nil {
				return respondError(ctx, loginTarget(ctx), err)
			}
			return ctx.JSON(http.StatusOK, body)
		}),

		post(routes.Bookmarks, func(ctx RequestContext, viewer tiles.ViewerContext) error {
			var req httpapi.BookmarkActionRequest
			if err := json.Unmarshal(ctx.Body(), &req); err != nil {
				return respondError(ctx, loginTarget(ctx), malformed)
			}
			body, err := cfg.Handlers.BookmarkAction(ctx.Context(), viewer, req)
			if err != nil {
				return respondError(ctx, loginTarget(ctx), err)
			}
			return ctx.JSON(http.StatusOK, body)
		}),

		post(routes.LinkBoard, func(ctx RequestContext, viewer tiles.ViewerContext) error {
			var req httpapi.LinkBoardActionRequest
			if err := json.Unmarshal(ctx.Body(), &req); err != nil {
				return respondError(ctx, loginTarget(ctx), malformed)
			}
			body, err := cfg.Handlers.LinkBoardAction(ctx.Context(), viewer, req)
			if err != nil {
				return respondError(ctx, loginTarget(ctx), err)
			}
			return ctx.JSON(http.StatusOK, body)
		}),

		post(routes.Suggestions, func(ctx RequestContext, viewer tiles.ViewerContext) error {
			var req struct {
				Snapshot map[string]tiles.TilePayload `json:"snapshot,omitempty"`
			}
			// A bare POST is the common case; the snapshot body is optional.
			if body := bytes.TrimSpace(ctx.Body()); len(body) > 0 {
				if err := json.Unmarshal(body, &req); err != nil {
					return respondError(ctx, loginTarget(ctx), malformed)
				}
			}
			suggestions, err := api.Suggestions(ctx.Context(), queries.SuggestionsInput{Viewer: viewer, Snapshot: req.Snapshot})
			if err != nil {
				return respondError(ctx, loginTarget(ctx), err)
			}
			return ctx.JSON(http.StatusOK, map[string]any{"suggestions": suggestions})
		}),

		post(routes.Ask, func(ctx RequestContext, viewer tiles.ViewerContext) error {
			var req struct {
				Query    string                       `json:"query"`
				Snapshot map[string]tiles.TilePayload `json:"snapshot,omitempty"`
			}
			if err := json.Unmarshal(ctx.Body(), &req); err != nil {
				return respondError(ctx, loginTarget(ctx), malformed)
			}
			answer, err := api.Ask(ctx.Context(), queries.AskInput{Viewer: viewer, Question: req.Query, Snapshot: req.Snapshot})
			if err != nil {
				return respondError(ctx, loginTarget(ctx), err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"answer": answer})
		}),
	}
	return set, nil
}

func registerWebSocket[T any](r router.Router[T], hook *tiles.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultViewerResolver(ctx RequestContext) (tiles.ViewerContext, bool) {
	if v, ok := ctx.Locals("user_id").(string); ok && v != "" {
		return tiles.ViewerContext{UserID: v}, true
	}
	return tiles.ViewerContext{}, false
}

// respondError mirrors the httpapi status mapping for router contexts.
func respondError(ctx RequestContext, loginTarget string, err error) error {
	if errors.Is(err, tiles.ErrUnauthorized) {
		return ctx.JSON(http.StatusUnauthorized, map[string]string{
			"error":    "session expired",
			"redirect": loginTarget,
		})
	}
	var validation *tiles.ValidationError
	if errors.As(err, &validation) {
		return ctx.JSON(http.StatusBadRequest, map[string]string{
			"error": validation.Reason,
			"field": validation.Field,
		})
	}
	var upstream *tiles.UpstreamError
	if errors.As(err, &upstream) {
		return ctx.JSON(http.StatusBadGateway, map[string]string{"error": upstream.Message})
	}
	return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/dashboard"
	}
	if routes.Layout == "" {
		routes.Layout = "/dashboard/_layout"
	}
	if routes.Tiles == "" {
		routes.Tiles = "/api/tiles"
	}
	if routes.Reorder == "" {
		routes.Reorder = "/api/tiles/reorder"
	}
	if routes.Resize == "" {
		routes.Resize = "/api/tiles/resize"
	}
	if routes.MoveScreen == "" {
		routes.MoveScreen = "/api/tiles/move-screen"
	}
	if routes.Tasks == "" {
		routes.Tasks = "/api/tasks/complete"
	}
	if routes.Notes == "" {
		routes.Notes = "/api/notes"
	}
	if routes.Bookmarks == "" {
		routes.Bookmarks = "/api/bookmarks"
	}
	if routes.LinkBoard == "" {
		routes.LinkBoard = "/api/link-board"
	}
	if routes.Suggestions == "" {
		routes.Suggestions = "/api/assistant/suggestions"
	}
	if routes.Ask == "" {
		routes.Ask = "/api/assistant/query"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/dashboard/ws"
	}
	return routes
}
