package tiles

import (
	"context"
	"time"
)

// Upstream contracts the built-in providers read from. Concrete clients live
// under pkg/ (graph, onepagecrm, openmeteo, ldbws, sqlstore, anthropic); the
// providers only see these interfaces.

// MailMessage is one inbox row.
type MailMessage struct {
	ID       string
	From     string
	Subject  string
	Received time.Time
	Unread   bool
	WebLink  string
}

// MailSummary is the inbox snapshot a mail tile shows.
type MailSummary struct {
	UnreadCount int
	Messages    []MailMessage
}

// MailSource reads the viewer's inbox.
type MailSource interface {
	Inbox(ctx context.Context, userID string, limit int) (MailSummary, error)
}

// CalendarEvent is one upcoming calendar entry.
type CalendarEvent struct {
	ID       string
	Subject  string
	Location string
	Start    time.Time
	End      time.Time
	AllDay   bool
}

// CalendarSource reads the viewer's upcoming events.
type CalendarSource interface {
	UpcomingEvents(ctx context.Context, userID string, window time.Duration) ([]CalendarEvent, error)
}

// Task is one open to-do item.
type Task struct {
	ID      string
	ListID  string
	Title   string
	WebLink string
	Due     time.Time
	HasDue  bool
}

// TaskBundle carries open tasks plus a label naming where they came from.
type TaskBundle struct {
	SourceLabel string
	Tasks       []Task
}

// TaskSource reads and completes the viewer's tasks.
type TaskSource interface {
	OpenTasks(ctx context.Context, userID string) (TaskBundle, error)
	CompleteTask(ctx context.Context, userID, listID, taskID string) error
}

// CRMAction is one pending next-action from the CRM.
type CRMAction struct {
	ID         string
	Contact    string
	Text       string
	ContactURL string
	Date       time.Time
	HasDate    bool
}

// CRMSource reads the viewer's pending CRM actions.
type CRMSource interface {
	NextActions(ctx context.Context, userID string) ([]CRMAction, error)
}

// CRMActionCompleter marks a pending CRM next-action as done.
type CRMActionCompleter interface {
	CompleteAction(ctx context.Context, userID, actionID string) error
}

// ForecastPoint is one hourly forecast sample.
type ForecastPoint struct {
	Time        time.Time
	Temperature float64
}

// WeatherReport is current conditions plus the hourly forecast series.
type WeatherReport struct {
	Location    string
	Temperature float64
	Summary     string
	Hourly      []ForecastPoint
}

// WeatherSource reads conditions for a coordinate pair.
type WeatherSource interface {
	Forecast(ctx context.Context, latitude, longitude float64) (WeatherReport, error)
}

// DepartureBoardResult is one station's live board.
type DepartureBoardResult struct {
	Origin      string
	Destination string
	Departures  []Departure
}

// DepartureSource reads a station's live departure board. Station codes are
// three-letter CRS codes; destination filters when non-empty.
type DepartureSource interface {
	Departures(ctx context.Context, station, destination string) (DepartureBoardResult, error)
}

// NoteRecord is one saved note.
type NoteRecord struct {
	ID        int64
	Title     string
	Content   string
	UpdatedAt time.Time
}

// NoteSource reads the viewer's saved notes.
type NoteSource interface {
	NotesForUser(ctx context.Context, userID string) ([]NoteRecord, error)
}

// BookmarkRecord is one saved link.
type BookmarkRecord struct {
	ID    int64
	Title string
	URL   string
}

// BookmarkSource reads the viewer's saved links.
type BookmarkSource interface {
	BookmarksForUser(ctx context.Context, userID string) ([]BookmarkRecord, error)
}

// LinkCategory is one column of the link board.
type LinkCategory struct {
	ID    int64
	Title string
	Links []BookmarkRecord
}

// LinkBoardSource reads the viewer's link board columns.
type LinkBoardSource interface {
	LinkBoardForUser(ctx context.Context, userID string) ([]LinkCategory, error)
}

// NoteWriter mutates the viewer's notes. SaveNote upserts: a zero ID
// inserts, a positive ID replaces.
type NoteWriter interface {
	SaveNote(ctx context.Context, userID string, note NoteRecord) (NoteRecord, error)
	DeleteNote(ctx context.Context, userID string, noteID int64) error
}

// BookmarkWriter mutates the viewer's saved links.
type BookmarkWriter interface {
	AddBookmark(ctx context.Context, userID string, bookmark BookmarkRecord) (BookmarkRecord, error)
	RemoveBookmark(ctx context.Context, userID string, bookmarkID int64) error
}

// LinkBoardWriter mutates the viewer's link board.
type LinkBoardWriter interface {
	SaveCategory(ctx context.Context, userID string, category LinkCategory) (LinkCategory, error)
	DeleteCategory(ctx context.Context, userID string, categoryID int64) error
	AddLink(ctx context.Context, userID string, categoryID int64, link BookmarkRecord) (BookmarkRecord, error)
	RemoveLink(ctx context.Context, userID string, linkID int64) error
	MoveLink(ctx context.Context, userID string, linkID, toCategoryID int64, position int) error
}
