package tiles

import (
	"context"
	"errors"
	"time"
)

const (
	defaultInboxLimit     = 10
	defaultCalendarWindow = 48 * time.Hour
)

// ProviderSet bundles the upstream clients the built-in tiles read from.
// Nil fields are fine: their tiles render the connect prompt until the
// integration is configured.
type ProviderSet struct {
	Mail      MailSource
	Calendar  CalendarSource
	Tasks     TaskSource
	CRM       CRMSource
	Weather   WeatherSource
	Trains    DepartureSource
	Notes     NoteSource
	Bookmarks BookmarkSource
	LinkBoard LinkBoardSource
	Assistant AssistantClient

	// Charts renders the weather forecast chart; defaults to a shared
	// cached echarts renderer.
	Charts *ForecastChart

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

func (s ProviderSet) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Register wires every provider into the registry. Tiles whose source is nil
// still get a provider so they render a connect prompt rather than an
// unknown-type error.
func (s ProviderSet) Register(reg *Registry) error {
	charts := s.Charts
	if charts == nil {
		charts = NewForecastChart()
	}
	providers := map[string]Provider{
		TypeEmail:        ProviderFunc(s.fetchEmail),
		TypeCalendar:     ProviderFunc(s.fetchCalendar),
		TypeCalendarNext: ProviderFunc(s.fetchCalendar),
		TypeNextEvent:    ProviderFunc(s.fetchNextEvent),
		TypeTasks:        ProviderFunc(s.fetchTasks),
		TypeCRM:          ProviderFunc(s.fetchCRM),
		TypeWeather:      s.weatherProvider(charts),
		TypeTrains:       ProviderFunc(s.fetchTrains),
		TypeNotes:        ProviderFunc(s.fetchNotes),
		TypeNotesList:    ProviderFunc(s.fetchNotes),
		TypeBookmarks:    ProviderFunc(s.fetchBookmarks),
		TypeLinkBoard:    ProviderFunc(s.fetchLinkBoard),
		TypeClaude:       ProviderFunc(s.fetchAssistant),
	}
	for code, provider := range providers {
		if err := reg.RegisterProvider(code, provider); err != nil {
			return err
		}
	}
	return nil
}

// notConnected converts the sentinel into the connect-prompt payload and
// passes every other error through, so session expiry still surfaces as
// ErrUnauthorized.
func notConnected(err error) (TilePayload, bool) {
	if errors.Is(err, ErrNotConnected) {
		return TilePayload{"connected": false}, true
	}
	return nil, false
}

func (s ProviderSet) fetchEmail(ctx context.Context, meta TileContext) (TilePayload, error) {
	if s.Mail == nil {
		return TilePayload{"connected": false}, nil
	}
	summary, err := s.Mail.Inbox(ctx, meta.Viewer.UserID, defaultInboxLimit)
	if err != nil {
		if p, ok := notConnected(err); ok {
			return p, nil
		}
		return nil, err
	}
	emails := make([]map[string]any, 0, len(summary.Messages))
	for _, msg := range summary.Messages {
		emails = append(emails, map[string]any{
			"id":       msg.ID,
			"from":     msg.From,
			"subject":  msg.Subject,
			"received": msg.Received.Format(time.RFC3339),
			"unread":   msg.Unread,
			"webLink":  msg.WebLink,
		})
	}
	return TilePayload{
		"connected":   true,
		"unreadCount": summary.UnreadCount,
		"emails":      emails,
	}, nil
}

func (s ProviderSet) fetchCalendar(ctx context.Context, meta TileContext) (TilePayload, error) {
	if s.Calendar == nil {
		return TilePayload{"connected": false}, nil
	}
	events, err := s.Calendar.UpcomingEvents(ctx, meta.Viewer.UserID, defaultCalendarWindow)
	if err != nil {
		if p, ok := notConnected(err); ok {
			return p, nil
		}
		return nil, err
	}
	out := make([]map[string]any, 0, len(events))
	for _, ev := range events {
		out = append(out, map[string]any{
			"id":       ev.ID,
			"subject":  ev.Subject,
			"location": ev.Location,
			"start":    ev.Start.Format(time.RFC3339),
			"end":      ev.End.Format(time.RFC3339),
			"allDay":   ev.AllDay,
		})
	}
	return TilePayload{"connected": true, "events": out}, nil
}

func (s ProviderSet) fetchNextEvent(_ context.Context, meta TileContext) (TilePayload, error) {
	target, _ := meta.Config["target"].(string)
	label, _ := meta.Config["label"].(string)
	return TilePayload{"target": target, "label": label}, nil
}

func (s ProviderSet) fetchTasks(ctx context.Context, meta TileContext) (TilePayload, error) {
	if s.Tasks == nil {
		return TilePayload{"connected": false}, nil
	}
	bundle, err := s.Tasks.OpenTasks(ctx, meta.Viewer.UserID)
	if err != nil {
		if p, ok := notConnected(err); ok {
			return p, nil
		}
		return nil, err
	}
	tasks := make([]map[string]any, 0, len(bundle.Tasks))
	for _, task := range bundle.Tasks {
		item := map[string]any{
			"id":      task.ID,
			"listId":  task.ListID,
			"title":   task.Title,
			"webLink": task.WebLink,
		}
		if task.HasDue {
			item["due"] = task.Due.Format(time.RFC3339)
		}
		tasks = append(tasks, item)
	}
	return TilePayload{
		"connected":          true,
		"tasks_source_label": bundle.SourceLabel,
		"tasks":              tasks,
	}, nil
}

func (s ProviderSet) fetchCRM(ctx context.Context, meta TileContext) (TilePayload, error) {
	if s.CRM == nil {
		return TilePayload{"connected": false}, nil
	}
	actions, err := s.CRM.NextActions(ctx, meta.Viewer.UserID)
	if err != nil {
		if p, ok := notConnected(err); ok {
			return p, nil
		}
		return nil, err
	}
	out := make([]map[string]any, 0, len(actions))
	for _, action := range actions {
		item := map[string]any{
			"contact":    action.Contact,
			"text":       action.Text,
			"contactUrl": action.ContactURL,
		}
		if action.HasDate {
			item["date"] = action.Date.Format(time.RFC3339)
		}
		out = append(out, item)
	}
	return TilePayload{"connected": true, "actions": out}, nil
}

func (s ProviderSet) weatherProvider(charts *ForecastChart) Provider {
	return ProviderFunc(func(ctx context.Context, meta TileContext) (TilePayload, error) {
		if s.Weather == nil {
			return TilePayload{"configured": false}, nil
		}
		lat, latOK := configFloat(meta.Config, "latitude")
		lon, lonOK := configFloat(meta.Config, "longitude")
		if !latOK || !lonOK {
			return TilePayload{"configured": false}, nil
		}
		report, err := s.Weather.Forecast(ctx, lat, lon)
		if err != nil {
			return nil, err
		}
		location, _ := meta.Config["location"].(string)
		if location == "" {
			location = report.Location
		}
		payload := TilePayload{
			"configured":  true,
			"location":    location,
			"temperature": report.Temperature,
			"summary":     report.Summary,
		}
		if len(report.Hourly) > 0 {
			html, err := charts.Render(meta, report.Hourly)
			if err != nil {
				return nil, err
			}
			payload["chart"] = html
		}
		return payload, nil
	})
}

func (s ProviderSet) fetchTrains(ctx context.Context, meta TileContext) (TilePayload, error) {
	if s.Trains == nil {
		return TilePayload{"connected": false}, nil
	}
	station, _ := meta.Config["station"].(string)
	if station == "" {
		return TilePayload{"connected": false}, nil
	}
	destination, _ := meta.Config["destination"].(string)
	board, err := s.Trains.Departures(ctx, station, destination)
	if err != nil {
		if p, ok := notConnected(err); ok {
			return p, nil
		}
		return nil, err
	}
	rows := make([]map[string]any, 0, len(board.Departures))
	for _, dep := range board.Departures {
		rows = append(rows, map[string]any{
			"scheduled":   dep.ScheduledDisplay,
			"expected":    dep.ExpectedDisplay,
			"destination": dep.Destination,
			"platform":    dep.Platform,
		})
	}
	return TilePayload{
		"connected":   true,
		"origin":      board.Origin,
		"destination": board.Destination,
		"departures":  rows,
	}, nil
}

func (s ProviderSet) fetchNotes(ctx context.Context, meta TileContext) (TilePayload, error) {
	if s.Notes == nil {
		return TilePayload{"connected": false}, nil
	}
	notes, err := s.Notes.NotesForUser(ctx, meta.Viewer.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(notes))
	for _, note := range notes {
		out = append(out, map[string]any{
			"id":        note.ID,
			"title":     note.Title,
			"content":   note.Content,
			"updatedAt": note.UpdatedAt.Format(time.RFC3339),
		})
	}
	return TilePayload{"connected": true, "notes": out}, nil
}

func (s ProviderSet) fetchBookmarks(ctx context.Context, meta TileContext) (TilePayload, error) {
	if s.Bookmarks == nil {
		return TilePayload{"connected": false}, nil
	}
	bookmarks, err := s.Bookmarks.BookmarksForUser(ctx, meta.Viewer.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(bookmarks))
	for _, bm := range bookmarks {
		out = append(out, map[string]any{
			"id":    bm.ID,
			"title": bm.Title,
			"url":   bm.URL,
		})
	}
	return TilePayload{"connected": true, "bookmarks": out}, nil
}

func (s ProviderSet) fetchLinkBoard(ctx context.Context, meta TileContext) (TilePayload, error) {
	if s.LinkBoard == nil {
		return TilePayload{"connected": false}, nil
	}
	categories, err := s.LinkBoard.LinkBoardForUser(ctx, meta.Viewer.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(categories))
	for _, cat := range categories {
		links := make([]any, 0, len(cat.Links))
		for _, link := range cat.Links {
			links = append(links, map[string]any{
				"id":    link.ID,
				"title": link.Title,
				"url":   link.URL,
			})
		}
		out = append(out, map[string]any{
			"id":    cat.ID,
			"title": cat.Title,
			"links": links,
		})
	}
	return TilePayload{"connected": true, "categories": out}, nil
}

func (s ProviderSet) fetchAssistant(ctx context.Context, meta TileContext) (TilePayload, error) {
	if s.Assistant == nil {
		return TilePayload{"connected": false}, nil
	}
	return TilePayload{
		"connected": true,
		"summary":   "",
	}, nil
}

func configFloat(cfg map[string]any, key string) (float64, bool) {
	switch v := cfg[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
