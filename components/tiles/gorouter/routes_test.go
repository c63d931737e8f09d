package gorouter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	router "github.com/goliatone/go-router"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
	"github.com/tilekit/go-tileboard/components/tiles/commands"
	"github.com/tilekit/go-tileboard/components/tiles/httpapi"
	"github.com/tilekit/go-tileboard/components/tiles/queries"
)

func TestRegisterRequiresRouter(t *testing.T) {
	if err := Register(Config[struct{}]{}); err == nil {
		t.Fatal("expected error when router missing")
	}
}

func TestBuildRoutesValidatesConfig(t *testing.T) {
	if _, err := buildRoutes(Config[struct{}]{}); err == nil {
		t.Fatal("expected error when page controller missing")
	}
	page := newTestPage(t)
	if _, err := buildRoutes(Config[struct{}]{Page: page}); err == nil {
		t.Fatal("expected error when handlers missing")
	}
}

func TestHTMLRouteRendersForViewer(t *testing.T) {
	set, _ := buildTestRoutes(t, nil)
	h := findRoute(t, set, "GET", "/dashboard")

	ctx := newMockContext()
	ctx.locals["user_id"] = "u1"
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(ctx.body) == 0 {
		t.Fatal("expected rendered page body")
	}
	if ctx.headers["Content-Type"] != "text/html; charset=utf-8" {
		t.Fatalf("content type = %q", ctx.headers["Content-Type"])
	}
}

func TestHTMLRouteRedirectsAnonymous(t *testing.T) {
	set, _ := buildTestRoutes(t, nil)
	h := findRoute(t, set, "GET", "/dashboard")

	ctx := newMockContext()
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	want := "/login?redirect=%2Fdashboard"
	if ctx.headers["Location"] != want {
		t.Fatalf("Location = %q, want %q", ctx.headers["Location"], want)
	}
	if ctx.status != 302 {
		t.Fatalf("status = %d, want 302", ctx.status)
	}
	var body map[string]string
	if err := json.Unmarshal(ctx.body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["redirect"] != want {
		t.Fatalf("redirect = %q", body["redirect"])
	}
}

func TestAnonymousRedirectKeepsScreenQuery(t *testing.T) {
	set, _ := buildTestRoutes(t, nil)
	h := findRoute(t, set, "GET", "/dashboard")

	ctx := newMockContext()
	ctx.query["screen"] = "screen2"
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	want := "/login?redirect=%2Fdashboard%3Fscreen%3Dscreen2"
	if ctx.headers["Location"] != want {
		t.Fatalf("Location = %q, want %q", ctx.headers["Location"], want)
	}
}

func TestAPIRouteAnswers401WithoutSession(t *testing.T) {
	set, _ := buildTestRoutes(t, nil)
	h := findRoute(t, set, "POST", "/api/tiles/reorder")

	ctx := newMockContext()
	ctx.body = []byte(`{"order":[]}`)
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != 401 {
		t.Fatalf("status = %d, want 401", ctx.status)
	}
	var body map[string]string
	if err := json.Unmarshal(ctx.body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "session expired" {
		t.Fatalf("error = %q", body["error"])
	}
	if body["redirect"] != "/login?redirect=%2Fdashboard" {
		t.Fatalf("redirect = %q", body["redirect"])
	}
}

func TestAPIRouteRejectsNonAJAXRequests(t *testing.T) {
	set, _ := buildTestRoutes(t, nil)
	h := findRoute(t, set, "POST", "/api/tiles/reorder")

	ctx := newMockContext()
	ctx.locals["user_id"] = "u1"
	ctx.body = []byte(`{"order":[]}`)
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != 403 {
		t.Fatalf("status = %d, want 403", ctx.status)
	}
	var body map[string]string
	if err := json.Unmarshal(ctx.body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "ajax requests only" {
		t.Fatalf("error = %q", body["error"])
	}
}

func TestAPIRouteVerifiesCSRFToken(t *testing.T) {
	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"matching token", "tok-1", 200},
		{"wrong token", "tok-2", 403},
		{"missing token", "", 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set, _ := buildTestRoutes(t, func(cfg *Config[struct{}]) {
				cfg.CSRFToken = func(RequestContext) string { return "tok-1" }
			})
			h := findRoute(t, set, "POST", "/api/tiles/reorder")

			ctx := apiContext()
			ctx.body = []byte(`{"order":[]}`)
			if tc.token != "" {
				ctx.headers[httpapi.HeaderCSRFToken] = tc.token
			}
			if err := h(ctx); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if ctx.status != tc.status {
				t.Fatalf("status = %d, want %d: %s", ctx.status, tc.status, ctx.body)
			}
		})
	}
}

func TestReorderRouteForwardsOrder(t *testing.T) {
	set, exec := buildTestRoutes(t, nil)
	h := findRoute(t, set, "POST", "/api/tiles/reorder")

	ctx := apiContext()
	ctx.body = []byte(`{"order":[{"id":2,"position":0},{"id":1,"position":1}]}`)
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != 200 {
		t.Fatalf("status = %d: %s", ctx.status, ctx.body)
	}
	if len(exec.reorder.Order) != 2 || exec.reorder.Order[0].ID != 2 {
		t.Fatalf("forwarded order = %+v", exec.reorder.Order)
	}
	if exec.reorder.Viewer.Path != "/dashboard" {
		t.Fatalf("viewer path = %q", exec.reorder.Viewer.Path)
	}
}

func TestCompleteTaskRouteForwardsSource(t *testing.T) {
	set, exec := buildTestRoutes(t, nil)
	h := findRoute(t, set, "POST", "/api/tasks/complete")

	ctx := apiContext()
	ctx.body = []byte(`{"task_id":"a42","source":"crm"}`)
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != 200 {
		t.Fatalf("status = %d: %s", ctx.status, ctx.body)
	}
	if exec.completeTask.TaskID != "a42" || exec.completeTask.Source != "crm" {
		t.Fatalf("forwarded input = %+v", exec.completeTask)
	}
}

func TestSuggestionsRouteAcceptsEmptyBody(t *testing.T) {
	set, _ := buildTestRoutes(t, nil)
	h := findRoute(t, set, "POST", "/api/assistant/suggestions")

	ctx := apiContext()
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != 200 {
		t.Fatalf("status = %d: %s", ctx.status, ctx.body)
	}
	var body map[string]any
	if err := json.Unmarshal(ctx.body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["suggestions"]; !ok {
		t.Fatalf("body = %v", body)
	}
}

func TestFetchRouteMapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &tiles.ValidationError{Field: "type", Reason: "unknown tile type"}, 400},
		{"upstream", &tiles.UpstreamError{TileType: tiles.TypeEmail, Status: 503, Message: "mailbox unavailable"}, 502},
		{"expired session", tiles.ErrUnauthorized, 401},
		{"unclassified", errors.New("boom"), 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set, exec := buildTestRoutes(t, nil)
			exec.fetchErr = tc.err
			h := findRoute(t, set, "POST", "/api/tiles")

			ctx := apiContext()
			ctx.body = []byte(`{"type":"email","tile_id":1}`)
			if err := h(ctx); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if ctx.status != tc.status {
				t.Fatalf("status = %d, want %d", ctx.status, tc.status)
			}
		})
	}
}

func TestFetchRouteRejectsMalformedBody(t *testing.T) {
	set, _ := buildTestRoutes(t, nil)
	h := findRoute(t, set, "POST", "/api/tiles")

	ctx := apiContext()
	ctx.body = []byte("{not json")
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != 400 {
		t.Fatalf("status = %d, want 400", ctx.status)
	}
}

func TestActionRoutesDispatch(t *testing.T) {
	set, exec := buildTestRoutes(t, nil)
	h := findRoute(t, set, "POST", "/api/notes")

	ctx := apiContext()
	ctx.body = []byte(`{"action":"save","title":"Plan","content":"x"}`)
	if err := h(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if ctx.status != 200 {
		t.Fatalf("status = %d: %s", ctx.status, ctx.body)
	}
	if exec.note.Note.Title != "Plan" {
		t.Fatalf("saved note = %+v", exec.note.Note)
	}
	var body map[string]any
	if err := json.Unmarshal(ctx.body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["success"] != true {
		t.Fatalf("body = %v", body)
	}
}

func buildTestRoutes(t *testing.T, mutate func(*Config[struct{}])) ([]route, *recordingExecutor) {
	t.Helper()
	exec := &recordingExecutor{}
	cfg := Config[struct{}]{
		Page:     newTestPage(t),
		Handlers: &httpapi.Handlers{API: exec},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	set, err := buildRoutes(cfg)
	if err != nil {
		t.Fatalf("buildRoutes returned error: %v", err)
	}
	return set, exec
}

func newTestPage(t *testing.T) *tiles.PageController {
	t.Helper()
	store := tiles.NewMemoryTileStore()
	store.Seed("u1", []tiles.Tile{{Type: tiles.TypeEmail, Title: "Inbox", Screen: tiles.ScreenMain}})
	service := tiles.NewService(tiles.Options{TileStore: store})
	page, err := tiles.NewPageController(tiles.PageControllerOptions{Service: service, Title: "Home Dashboard"})
	if err != nil {
		t.Fatalf("NewPageController returned error: %v", err)
	}
	return page
}

func findRoute(t *testing.T, set []route, method, path string) func(RequestContext) error {
	t.Helper()
	for _, r := range set {
		if r.method == method && r.path == path {
			return r.fn
		}
	}
	t.Fatalf("route %s %s not built", method, path)
	return nil
}

// apiContext builds a context for an authenticated fetch-style API call.
func apiContext() *mockContext {
	ctx := newMockContext()
	ctx.locals["user_id"] = "u1"
	ctx.headers[httpapi.HeaderRequestedWith] = httpapi.XMLHTTPRequest
	return ctx
}

// mockContext implements RequestContext only; route handlers never touch
// the rest of the router surface.
type mockContext struct {
	ctx     context.Context
	headers map[string]string
	body    []byte
	locals  map[any]any
	query   map[string]string
	status  int
}

var _ RequestContext = (*mockContext)(nil)

func newMockContext() *mockContext {
	return &mockContext{
		ctx:     context.Background(),
		headers: map[string]string{},
		locals:  map[any]any{},
		query:   map[string]string{},
	}
}

func (m *mockContext) Context() context.Context {
	return m.ctx
}

func (m *mockContext) SetHeader(k, v string) router.Context {
	m.headers[k] = v
	return nil
}

func (m *mockContext) Send(b []byte) error {
	m.body = append([]byte{}, b...)
	return nil
}

func (m *mockContext) JSON(code int, v any) error {
	m.status = code
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.body = data
	return nil
}

func (m *mockContext) Body() []byte { return m.body }

func (m *mockContext) Query(name string, defaultValue ...string) string {
	if v, ok := m.query[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) Header(name string) string {
	if v, ok := m.headers[name]; ok {
		return v
	}
	return ""
}

func (m *mockContext) Locals(key any, value ...any) any {
	if len(value) == 0 {
		return m.locals[key]
	}
	m.locals[key] = value[0]
	return value[0]
}

type recordingExecutor struct {
	fetchErr     error
	reorder      commands.ReorderTilesInput
	completeTask commands.CompleteTaskInput
	note         commands.SaveNoteInput
}

func (r *recordingExecutor) FetchTile(_ context.Context, input queries.TileFetchInput) (queries.TileFetchResult, error) {
	if r.fetchErr != nil {
		return queries.TileFetchResult{}, r.fetchErr
	}
	return queries.TileFetchResult{Payload: tiles.TilePayload{"unreadCount": 4}, HTML: "<div>ok</div>"}, nil
}

func (r *recordingExecutor) Layout(context.Context, tiles.ViewerContext) (tiles.Layout, error) {
	return tiles.Layout{Screens: map[tiles.Screen][]tiles.Tile{}}, nil
}

func (r *recordingExecutor) Reorder(_ context.Context, input commands.ReorderTilesInput) error {
	r.reorder = input
	return nil
}

func (r *recordingExecutor) Resize(context.Context, commands.ResizeTilesInput) error { return nil }

func (r *recordingExecutor) MoveScreen(context.Context, commands.MoveTileScreenInput) error {
	return nil
}

func (r *recordingExecutor) CompleteTask(_ context.Context, input commands.CompleteTaskInput) error {
	r.completeTask = input
	return nil
}

func (r *recordingExecutor) SaveNote(_ context.Context, input commands.SaveNoteInput) (commands.SaveNoteResult, error) {
	r.note = input
	stored := input.Note
	if stored.ID == 0 {
		stored.ID = 1
	}
	return commands.SaveNoteResult{Note: stored}, nil
}

func (r *recordingExecutor) DeleteNote(context.Context, commands.DeleteNoteInput) error { return nil }

func (r *recordingExecutor) AddBookmark(_ context.Context, input commands.AddBookmarkInput) (commands.AddBookmarkResult, error) {
	return commands.AddBookmarkResult{Bookmark: input.Bookmark}, nil
}

func (r *recordingExecutor) RemoveBookmark(context.Context, commands.RemoveBookmarkInput) error {
	return nil
}

func (r *recordingExecutor) SaveCategory(_ context.Context, input commands.SaveCategoryInput) (commands.SaveCategoryResult, error) {
	return commands.SaveCategoryResult{Category: input.Category}, nil
}

func (r *recordingExecutor) MoveLink(context.Context, commands.MoveLinkInput) error { return nil }

func (r *recordingExecutor) Suggestions(context.Context, queries.SuggestionsInput) ([]tiles.Suggestion, error) {
	return []tiles.Suggestion{}, nil
}

func (r *recordingExecutor) Ask(context.Context, queries.AskInput) (string, error) {
	return "", nil
}
