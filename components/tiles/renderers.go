package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"time"
)

var fragmentTemplates = template.Must(template.New("tiles").Funcs(template.FuncMap{
	"percent": func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
}).ParseFS(embeddedTemplates, "templates/tiles/*.html"))

// fragmentFrame is the chrome shared by every tile fragment.
type fragmentFrame struct {
	Code      string
	Title     string
	TileID    int64
	Persisted bool
	// State selects the body branch: content, empty, disconnected, or error.
	State string
	Error string
}

func newFrame(state RenderState) fragmentFrame {
	frame := fragmentFrame{
		Code:      state.Tile.Type,
		Title:     state.Tile.Title,
		TileID:    state.Tile.ID,
		Persisted: state.Tile.Persisted(),
		State:     "content",
	}
	switch {
	case state.Err != nil:
		frame.State = "error"
		frame.Error = upstreamMessage(state.Err)
	case payloadString(state.Payload, "error") != "":
		frame.State = "error"
		frame.Error = payloadString(state.Payload, "error")
	case !state.Payload.Connected():
		frame.State = "disconnected"
	}
	return frame
}

func upstreamMessage(err error) string {
	var upstream *UpstreamError
	if errors.As(err, &upstream) && upstream.Message != "" {
		return upstream.Message
	}
	return "Could not load this tile."
}

func renderFragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := fragmentTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("tiles: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Payload coercion helpers. Payloads cross a JSON boundary, so numbers may
// arrive as float64 and lists as []any.

func payloadString(p TilePayload, key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func payloadInt(p TilePayload, key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func payloadFloat(p TilePayload, key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func payloadList(p TilePayload, key string) []map[string]any {
	switch v := p[key].(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func itemString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func itemInt(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func itemBool(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func parseWhen(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatRelative renders a duration the way the tile headers show it:
// "3d 4h", "2h 15m", "12m", "45s".
func formatRelative(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d >= 24*time.Hour:
		days := int(d / (24 * time.Hour))
		hours := int((d % (24 * time.Hour)) / time.Hour)
		return fmt.Sprintf("%dd %dh", days, hours)
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm", int(d/time.Hour), int((d%time.Hour)/time.Minute))
	case d >= time.Minute:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
}

type emailView struct {
	fragmentFrame
	UnreadCount int
	Messages    []emailMessageView
}

type emailMessageView struct {
	From     string
	Subject  string
	Received string
	Unread   bool
	WebLink  string
}

func renderEmail(_ context.Context, state RenderState) (string, error) {
	view := emailView{fragmentFrame: newFrame(state)}
	view.UnreadCount = payloadInt(state.Payload, "unreadCount")
	items := payloadList(state.Payload, "emails")
	if view.State == "content" && len(items) == 0 {
		view.State = "empty"
	}
	for _, m := range items {
		msg := emailMessageView{
			From:    itemString(m, "from"),
			Subject: itemString(m, "subject"),
			Unread:  itemBool(m, "unread"),
			WebLink: itemString(m, "webLink"),
		}
		if t, ok := parseWhen(itemString(m, "received")); ok {
			msg.Received = formatRelative(state.Now.Sub(t)) + " ago"
		}
		view.Messages = append(view.Messages, msg)
	}
	return renderFragment("email.html", view)
}

type calendarView struct {
	fragmentFrame
	Events []calendarEventView
}

type calendarEventView struct {
	Subject  string
	When     string
	Location string
	Soon     bool
}

func calendarEvents(state RenderState) []calendarEventView {
	items := payloadList(state.Payload, "events")
	events := make([]calendarEventView, 0, len(items))
	for _, m := range items {
		ev := calendarEventView{
			Subject:  itemString(m, "subject"),
			Location: itemString(m, "location"),
		}
		if start, ok := parseWhen(itemString(m, "start")); ok {
			until := start.Sub(state.Now)
			if until >= 0 {
				ev.When = "in " + formatRelative(until)
				ev.Soon = until <= 15*time.Minute
			} else {
				ev.When = "started " + formatRelative(-until) + " ago"
			}
		}
		events = append(events, ev)
	}
	return events
}

func renderCalendar(_ context.Context, state RenderState) (string, error) {
	view := calendarView{fragmentFrame: newFrame(state)}
	view.Events = calendarEvents(state)
	if view.State == "content" && len(view.Events) == 0 {
		view.State = "empty"
	}
	return renderFragment("calendar.html", view)
}

func renderCalendarNext(_ context.Context, state RenderState) (string, error) {
	view := calendarView{fragmentFrame: newFrame(state)}
	for _, ev := range calendarEvents(state) {
		if ev.When != "" && ev.When[0] == 'i' {
			view.Events = []calendarEventView{ev}
			break
		}
	}
	if view.State == "content" && len(view.Events) == 0 {
		view.State = "empty"
	}
	return renderFragment("calendar_next.html", view)
}

type nextEventView struct {
	fragmentFrame
	Label string
	Days  int
	Past  bool
}

func renderNextEvent(_ context.Context, state RenderState) (string, error) {
	view := nextEventView{fragmentFrame: newFrame(state)}
	view.Label = payloadString(state.Payload, "label")
	if view.Label == "" {
		view.Label = state.Tile.Title
	}
	target, ok := parseWhen(payloadString(state.Payload, "target"))
	if !ok {
		if view.State == "content" {
			view.State = "empty"
		}
		return renderFragment("next_event.html", view)
	}
	view.Days = DaysUntil(state.Now, target)
	view.Past = view.Days < 0
	if view.Past {
		view.Days = -view.Days
	}
	return renderFragment("next_event.html", view)
}

type tasksView struct {
	fragmentFrame
	SourceLabel string
	Tasks       []taskItemView
}

type taskItemView struct {
	ID          string
	ListID      string
	Title       string
	Due         string
	Overdue     bool
	OverdueTint float64
	WebLink     string
}

func taskItems(state RenderState, key string) []taskItemView {
	items := payloadList(state.Payload, key)
	tasks := make([]taskItemView, 0, len(items))
	for _, m := range items {
		task := taskItemView{
			ID:      itemString(m, "id"),
			ListID:  itemString(m, "listId"),
			Title:   itemString(m, "title"),
			WebLink: itemString(m, "webLink"),
		}
		if itemString(m, "contact") != "" {
			task.Title = itemString(m, "contact") + ": " + itemString(m, "text")
			task.WebLink = itemString(m, "contactUrl")
		}
		dueRaw := itemString(m, "due")
		if dueRaw == "" {
			dueRaw = itemString(m, "date")
		}
		if due, ok := parseWhen(dueRaw); ok {
			overdueDays := TaskOverdueDays(state.Now, due)
			if overdueDays > 0 {
				task.Overdue = true
				task.OverdueTint = OverdueOpacity(float64(overdueDays))
				task.Due = fmt.Sprintf("%dd overdue", overdueDays)
			} else {
				task.Due = "due in " + formatRelative(due.Sub(state.Now))
			}
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func renderTasks(_ context.Context, state RenderState) (string, error) {
	view := tasksView{fragmentFrame: newFrame(state)}
	view.SourceLabel = payloadString(state.Payload, "tasks_source_label")
	view.Tasks = taskItems(state, "tasks")
	if view.State == "content" && len(view.Tasks) == 0 {
		view.State = "empty"
	}
	return renderFragment("tasks.html", view)
}

func renderCRM(_ context.Context, state RenderState) (string, error) {
	view := tasksView{fragmentFrame: newFrame(state)}
	view.Tasks = taskItems(state, "actions")
	if view.State == "content" && len(view.Tasks) == 0 {
		view.State = "empty"
	}
	return renderFragment("crm.html", view)
}

type weatherView struct {
	fragmentFrame
	Location    string
	Temperature string
	Summary     string
	Chart       template.HTML
}

func renderWeather(_ context.Context, state RenderState) (string, error) {
	view := weatherView{fragmentFrame: newFrame(state)}
	view.Location = payloadString(state.Payload, "location")
	view.Summary = payloadString(state.Payload, "summary")
	if temp, ok := payloadFloat(state.Payload, "temperature"); ok {
		view.Temperature = fmt.Sprintf("%.1f°C", temp)
	}
	// Chart HTML comes from the echarts provider, never from user input.
	view.Chart = template.HTML(payloadString(state.Payload, "chart"))
	return renderFragment("weather.html", view)
}

type trainsView struct {
	fragmentFrame
	Origin      string
	Destination string
	NextInMins  int
	HasNext     bool
	Departures  []departureItemView
}

type departureItemView struct {
	Scheduled   string
	Expected    string
	Late        bool
	Destination string
	Platform    string
}

func renderTrains(_ context.Context, state RenderState) (string, error) {
	view := trainsView{fragmentFrame: newFrame(state)}
	view.Origin = payloadString(state.Payload, "origin")
	view.Destination = payloadString(state.Payload, "destination")
	items := payloadList(state.Payload, "departures")
	rows := make([]Departure, 0, len(items))
	for _, m := range items {
		dep := Departure{
			ScheduledDisplay: itemString(m, "scheduled"),
			ExpectedDisplay:  itemString(m, "expected"),
			Destination:      itemString(m, "destination"),
			Platform:         itemString(m, "platform"),
		}
		rows = append(rows, dep)
		view.Departures = append(view.Departures, departureItemView{
			Scheduled:   dep.ScheduledDisplay,
			Expected:    dep.ExpectedDisplay,
			Late:        IsClockTime(dep.ExpectedDisplay) && dep.ExpectedDisplay != dep.ScheduledDisplay,
			Destination: dep.Destination,
			Platform:    dep.Platform,
		})
	}
	if _, mins, ok := NextDeparture(state.Now, rows); ok {
		view.NextInMins = mins
		view.HasNext = true
	}
	if view.State == "content" && len(view.Departures) == 0 {
		view.State = "empty"
	}
	return renderFragment("trains.html", view)
}

type noteView struct {
	ID      int64
	Title   string
	Content string
	Updated string
}

type notesView struct {
	fragmentFrame
	Active noteView
	Notes  []noteView
}

func noteItems(state RenderState) []noteView {
	items := payloadList(state.Payload, "notes")
	notes := make([]noteView, 0, len(items))
	for _, m := range items {
		note := noteView{
			ID:      itemInt(m, "id"),
			Title:   itemString(m, "title"),
			Content: itemString(m, "content"),
		}
		if t, ok := parseWhen(itemString(m, "updatedAt")); ok {
			note.Updated = formatRelative(state.Now.Sub(t)) + " ago"
		}
		notes = append(notes, note)
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].ID > notes[j].ID })
	return notes
}

func renderNotes(_ context.Context, state RenderState) (string, error) {
	view := notesView{fragmentFrame: newFrame(state)}
	view.Notes = noteItems(state)
	if len(view.Notes) > 0 {
		view.Active = view.Notes[0]
	}
	return renderFragment("notes.html", view)
}

func renderNotesList(_ context.Context, state RenderState) (string, error) {
	view := notesView{fragmentFrame: newFrame(state)}
	view.Notes = noteItems(state)
	if view.State == "content" && len(view.Notes) == 0 {
		view.State = "empty"
	}
	return renderFragment("notes_list.html", view)
}

type bookmarksView struct {
	fragmentFrame
	Bookmarks []bookmarkItemView
}

type bookmarkItemView struct {
	ID    int64
	Title string
	URL   string
}

func renderBookmarks(_ context.Context, state RenderState) (string, error) {
	view := bookmarksView{fragmentFrame: newFrame(state)}
	for _, m := range payloadList(state.Payload, "bookmarks") {
		view.Bookmarks = append(view.Bookmarks, bookmarkItemView{
			ID:    itemInt(m, "id"),
			Title: itemString(m, "title"),
			URL:   itemString(m, "url"),
		})
	}
	if view.State == "content" && len(view.Bookmarks) == 0 {
		view.State = "empty"
	}
	return renderFragment("bookmarks.html", view)
}

type linkBoardView struct {
	fragmentFrame
	Categories []linkCategoryView
}

type linkCategoryView struct {
	ID    int64
	Title string
	Links []bookmarkItemView
}

func renderLinkBoard(_ context.Context, state RenderState) (string, error) {
	view := linkBoardView{fragmentFrame: newFrame(state)}
	for _, m := range payloadList(state.Payload, "categories") {
		cat := linkCategoryView{
			ID:    itemInt(m, "id"),
			Title: itemString(m, "title"),
		}
		if links, ok := m["links"].([]any); ok {
			for _, raw := range links {
				if lm, ok := raw.(map[string]any); ok {
					cat.Links = append(cat.Links, bookmarkItemView{
						ID:    itemInt(lm, "id"),
						Title: itemString(lm, "title"),
						URL:   itemString(lm, "url"),
					})
				}
			}
		}
		view.Categories = append(view.Categories, cat)
	}
	if view.State == "content" && len(view.Categories) == 0 {
		view.State = "empty"
	}
	return renderFragment("link_board.html", view)
}

type assistantView struct {
	fragmentFrame
	Summary     string
	Answer      string
	Suggestions []string
}

func renderAssistant(_ context.Context, state RenderState) (string, error) {
	view := assistantView{fragmentFrame: newFrame(state)}
	view.Summary = payloadString(state.Payload, "summary")
	view.Answer = payloadString(state.Payload, "answer")
	if raw, ok := state.Payload["suggestions"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				view.Suggestions = append(view.Suggestions, s)
			}
		}
	} else if list, ok := state.Payload["suggestions"].([]string); ok {
		view.Suggestions = append(view.Suggestions, list...)
	}
	return renderFragment("claude.html", view)
}

var defaultRenderers = map[string]TileRenderer{
	TypeEmail:        RendererFunc(renderEmail),
	TypeCalendar:     RendererFunc(renderCalendar),
	TypeCalendarNext: RendererFunc(renderCalendarNext),
	TypeNextEvent:    RendererFunc(renderNextEvent),
	TypeTasks:        RendererFunc(renderTasks),
	TypeCRM:          RendererFunc(renderCRM),
	TypeWeather:      RendererFunc(renderWeather),
	TypeTrains:       RendererFunc(renderTrains),
	TypeNotes:        RendererFunc(renderNotes),
	TypeNotesList:    RendererFunc(renderNotesList),
	TypeBookmarks:    RendererFunc(renderBookmarks),
	TypeLinkBoard:    RendererFunc(renderLinkBoard),
	TypeClaude:       RendererFunc(renderAssistant),
}
