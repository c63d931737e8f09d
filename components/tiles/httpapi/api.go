package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
	"github.com/tilekit/go-tileboard/components/tiles/commands"
	"github.com/tilekit/go-tileboard/components/tiles/queries"
)

// ViewerResolver extracts the authenticated viewer from a request. The
// second return is false when there is no valid session.
type ViewerResolver func(r *http.Request) (tiles.ViewerContext, bool)

// Handlers exposes the tile API over plain net/http. Route layers (fiber,
// go-router) adapt these; the handlers own request decoding and the error
// taxonomy mapping.
type Handlers struct {
	API      Executor
	Viewer   ViewerResolver
	Registry *tiles.Registry

	// Notes and LinkBoard back the action-dispatch endpoints that need
	// reads or item-level writes outside the command surface.
	Notes     tiles.NoteSource
	LinkBoard tiles.LinkBoardSource
	Board     tiles.LinkBoardWriter

	LoginPath string
}

func (h *Handlers) viewer(w http.ResponseWriter, r *http.Request) (tiles.ViewerContext, bool) {
	if h.Viewer == nil {
		respondUnauthorized(w, r, h.LoginPath)
		return tiles.ViewerContext{}, false
	}
	viewer, ok := h.Viewer(r)
	if !ok {
		respondUnauthorized(w, r, h.LoginPath)
		return tiles.ViewerContext{}, false
	}
	if viewer.Path == "" {
		viewer.Path = r.URL.RequestURI()
	}
	return viewer, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

// decodeOptionalBody is decodeBody for endpoints whose body may be absent
// entirely. A missing or empty body leaves dst zero-valued.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
	return false
}

type fetchTileRequest struct {
	Type   string         `json:"type"`
	TileID int64          `json:"tile_id"`
	Config map[string]any `json:"config,omitempty"`
}

// HandleFetchTile serves POST /api/tiles: one tile's payload plus its
// rendered fragment.
func (h *Handlers) HandleFetchTile(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req fetchTileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tile := tiles.Tile{ID: req.TileID, Type: req.Type}
	if h.Registry != nil {
		if def, ok := h.Registry.Definition(req.Type); ok {
			tile.Title = def.Name
		} else {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown tile type", Field: "type"})
			return
		}
	}
	result, err := h.API.FetchTile(r.Context(), queries.TileFetchInput{
		Viewer: viewer,
		Tile:   tile,
		Config: req.Config,
	})
	if err != nil {
		respondError(w, r, h.LoginPath, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"payload": result.Payload,
		"html":    result.HTML,
	})
}

// HandleLayout serves GET /dashboard/_layout as JSON.
func (h *Handlers) HandleLayout(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	layout, err := h.API.Layout(r.Context(), viewer)
	if err != nil {
		respondError(w, r, h.LoginPath, err)
		return
	}
	screens := map[string][]map[string]any{}
	for screen, list := range layout.Screens {
		rows := make([]map[string]any, 0, len(list))
		for _, tile := range list {
			rows = append(rows, map[string]any{
				"id":              tile.ID,
				"type":            tile.Type,
				"title":           tile.Title,
				"position":        tile.Position,
				"column_span":     tile.ColumnSpan,
				"row_span":        tile.RowSpan,
				"screen":          string(tile.Screen),
				"refresh_seconds": int(tile.RefreshInterval.Seconds()),
			})
		}
		screens[string(screen)] = rows
	}
	respondJSON(w, http.StatusOK, map[string]any{"screens": screens})
}

type reorderRequest struct {
	Order []tiles.TilePosition `json:"order"`
}

// HandleReorder serves POST /api/tiles/reorder.
func (h *Handlers) HandleReorder(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req reorderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.API.Reorder(r.Context(), commands.ReorderTilesInput{Viewer: viewer, Order: req.Order}); err != nil {
		respondError(w, r, h.LoginPath, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type resizeRequest struct {
	Tiles []tiles.TileSpan `json:"tiles"`
}

// HandleResize serves POST /api/tiles/resize.
func (h *Handlers) HandleResize(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req resizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.API.Resize(r.Context(), commands.ResizeTilesInput{Viewer: viewer, Spans: req.Tiles}); err != nil {
		respondError(w, r, h.LoginPath, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type moveScreenRequest struct {
	TileID int64  `json:"tile_id"`
	Screen string `json:"screen"`
}

// HandleMoveScreen serves POST /api/tiles/move-screen.
func (h *Handlers) HandleMoveScreen(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req moveScreenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	input := commands.MoveTileScreenInput{
		Viewer: viewer,
		TileID: req.TileID,
		Screen: tiles.Screen(req.Screen),
	}
	if err := h.API.MoveScreen(r.Context(), input); err != nil {
		respondError(w, r, h.LoginPath, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type completeTaskRequest struct {
	TaskID string `json:"task_id"`
	ListID string `json:"list_id,omitempty"`
	Source string `json:"source,omitempty"`
}

// HandleCompleteTask serves POST /api/tasks/complete.
func (h *Handlers) HandleCompleteTask(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req completeTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	input := commands.CompleteTaskInput{Viewer: viewer, ListID: req.ListID, TaskID: req.TaskID, Source: req.Source}
	if err := h.API.CompleteTask(r.Context(), input); err != nil {
		respondError(w, r, h.LoginPath, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// NoteActionRequest is the POST /api/notes body. Action selects one of
// save, save_to_list, load_note, new_note, delete_note.
type NoteActionRequest struct {
	Action  string `json:"action"`
	ID      int64  `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// NoteAction runs the notes dispatch. Transport adapters call this after
// decoding the body and resolving the viewer.
func (h *Handlers) NoteAction(ctx context.Context, viewer tiles.ViewerContext, req NoteActionRequest) (map[string]any, error) {
	switch req.Action {
	case "save", "save_to_list":
		note := tiles.NoteRecord{ID: req.ID, Title: req.Title, Content: req.Content}
		if req.Action == "save_to_list" {
			// Saving to the list always creates a fresh row, leaving the
			// scratchpad note untouched.
			note.ID = 0
		}
		result, err := h.API.SaveNote(ctx, commands.SaveNoteInput{Viewer: viewer, Note: note})
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "id": result.Note.ID}, nil
	case "load_note":
		note, err := h.loadNote(ctx, viewer, req.ID)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"success": true,
			"id":      note.ID,
			"title":   note.Title,
			"content": note.Content,
		}, nil
	case "new_note":
		return map[string]any{"success": true, "id": 0, "title": "", "content": ""}, nil
	case "delete_note":
		if err := h.API.DeleteNote(ctx, commands.DeleteNoteInput{Viewer: viewer, NoteID: req.ID}); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	default:
		return nil, &tiles.ValidationError{Field: "action", Reason: "unknown action"}
	}
}

// HandleNotes serves POST /api/notes.
func (h *Handlers) HandleNotes(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req NoteActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	body, err := h.NoteAction(r.Context(), viewer, req)
	if err != nil {
		respondError(w, r, h.LoginPath, err)
		return
	}
	respondJSON(w, http.StatusOK, body)
}

func (h *Handlers) loadNote(ctx context.Context, viewer tiles.ViewerContext, id int64) (tiles.NoteRecord, error) {
	if h.Notes == nil {
		return tiles.NoteRecord{}, errNotWired
	}
	notes, err := h.Notes.NotesForUser(ctx, viewer.UserID)
	if err != nil {
		return tiles.NoteRecord{}, err
	}
	for _, note := range notes {
		if note.ID == id {
			return note, nil
		}
	}
	return tiles.NoteRecord{}, &tiles.ValidationError{Field: "id", Reason: "note not found"}
}

// BookmarkActionRequest is the POST /api/bookmarks body. Action is add or
// delete.
type BookmarkActionRequest struct {
	Action string `json:"action"`
	ID     int64  `json:"id,omitempty"`
	Title  string `json:"title,omitempty"`
	URL    string `json:"url,omitempty"`
}

// BookmarkAction runs the bookmarks dispatch.
func (h *Handlers) BookmarkAction(ctx context.Context, viewer tiles.ViewerContext, req BookmarkActionRequest) (map[string]any, error) {
	switch req.Action {
	case "add":
		input := commands.AddBookmarkInput{
			Viewer:   viewer,
			Bookmark: tiles.BookmarkRecord{Title: req.Title, URL: req.URL},
		}
		result, err := h.API.AddBookmark(ctx, input)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"success": true,
			"id":      result.Bookmark.ID,
			"title":   result.Bookmark.Title,
			"url":     result.Bookmark.URL,
		}, nil
	case "delete":
		input := commands.RemoveBookmarkInput{Viewer: viewer, BookmarkID: req.ID}
		if err := h.API.RemoveBookmark(ctx, input); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	default:
		return nil, &tiles.ValidationError{Field: "action", Reason: "unknown action"}
	}
}

// HandleBookmarks serves POST /api/bookmarks.
func (h *Handlers) HandleBookmarks(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req BookmarkActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	body, err := h.BookmarkAction(r.Context(), viewer, req)
	if err != nil {
		respondError(w, r, h.LoginPath, err)
		return
	}
	respondJSON(w, http.StatusOK, body)
}

// LinkBoardActionRequest is the POST /api/link-board body.
type LinkBoardActionRequest struct {
	Action     string `json:"action"`
	ID         int64  `json:"id,omitempty"`
	CategoryID int64  `json:"category_id,omitempty"`
	Title      string `json:"title,omitempty"`
	URL        string `json:"url,omitempty"`
	Position   int    `json:"position,omitempty"`
}

// LinkBoardAction runs the link-board dispatch. Category writes go through
// the command surface; item-level writes hit the board writer directly.
func (h *Handlers) LinkBoardAction(ctx context.Context, viewer tiles.ViewerContext, req LinkBoardActionRequest) (map[string]any, error) {
	switch req.Action {
	case "add_category", "update_category":
		input := commands.SaveCategoryInput{
			Viewer:   viewer,
			Category: tiles.LinkCategory{ID: req.ID, Title: req.Title},
		}
		result, err := h.API.SaveCategory(ctx, input)
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "id": result.Category.ID}, nil
	case "delete_category":
		if h.Board == nil {
			return nil, errNotWired
		}
		if err := h.Board.DeleteCategory(ctx, viewer.UserID, req.ID); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	case "add_item", "update_item":
		if h.Board == nil {
			return nil, errNotWired
		}
		link := tiles.BookmarkRecord{ID: req.ID, Title: req.Title, URL: req.URL}
		stored, err := h.Board.AddLink(ctx, viewer.UserID, req.CategoryID, link)
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "id": stored.ID}, nil
	case "delete_item":
		if h.Board == nil {
			return nil, errNotWired
		}
		if err := h.Board.RemoveLink(ctx, viewer.UserID, req.ID); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	case "move_item":
		input := commands.MoveLinkInput{
			Viewer:     viewer,
			LinkID:     req.ID,
			CategoryID: req.CategoryID,
			Position:   req.Position,
		}
		if err := h.API.MoveLink(ctx, input); err != nil {
			return nil, err
		}
		return map[string]any{"success": true}, nil
	case "summarize":
		return h.summarizeBoard(ctx, viewer)
	default:
		return nil, &tiles.ValidationError{Field: "action", Reason: "unknown action"}
	}
}

// HandleLinkBoard serves POST /api/link-board.
func (h *Handlers) HandleLinkBoard(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req LinkBoardActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	body, err := h.LinkBoardAction(r.Context(), viewer, req)
	if err != nil {
		respondError(w, r, h.LoginPath, err)
		return
	}
	respondJSON(w, http.StatusOK, body)
}

// summarizeBoard asks the assistant for a digest of the saved links.
func (h *Handlers) summarizeBoard(ctx context.Context, viewer tiles.ViewerContext) (map[string]any, error) {
	if h.LinkBoard == nil {
		return nil, errNotWired
	}
	categories, err := h.LinkBoard.LinkBoardForUser(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, cat := range categories {
		sb.WriteString(cat.Title + ": ")
		for i, link := range cat.Links {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(link.Title)
		}
		sb.WriteString("\n")
	}
	answer, err := h.API.Ask(ctx, queries.AskInput{
		Viewer:   viewer,
		Question: "Summarize these saved links in a sentence or two:\n" + sb.String(),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true, "summary": answer}, nil
}

type suggestionsRequest struct {
	Snapshot map[string]tiles.TilePayload `json:"snapshot,omitempty"`
}

// HandleSuggestions serves POST /api/assistant/suggestions.
func (h *Handlers) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	// The suggestions endpoint accepts a bare POST; a snapshot body is an
	// optimization, not a requirement.
	var req suggestionsRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	suggestions, err := h.API.Suggestions(r.Context(), queries.SuggestionsInput{
		Viewer:   viewer,
		Snapshot: req.Snapshot,
	})
	if err != nil {
		respondError(w, r, h.LoginPath, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

type askRequest struct {
	Query    string                       `json:"query"`
	Snapshot map[string]tiles.TilePayload `json:"snapshot,omitempty"`
}

// HandleAssistantQuery serves POST /api/assistant/query.
func (h *Handlers) HandleAssistantQuery(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}
	var req askRequest
	if !decodeBody(w, r, &req) {
		return
	}
	answer, err := h.API.Ask(r.Context(), queries.AskInput{
		Viewer:   viewer,
		Question: req.Query,
		Snapshot: req.Snapshot,
	})
	if err != nil {
		respondError(w, r, h.LoginPath, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
