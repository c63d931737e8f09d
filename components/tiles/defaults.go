package tiles

import "time"

// Tile kind codes for the built-in tile set.
const (
	TypeEmail        = "email"
	TypeCalendar     = "calendar"
	TypeCalendarNext = "calendar-next"
	TypeNextEvent    = "next-event"
	TypeTasks        = "tasks"
	TypeCRM          = "crm"
	TypeWeather      = "weather"
	TypeTrains       = "trains"
	TypeNotes        = "notes"
	TypeNotesList    = "notes-list"
	TypeBookmarks    = "bookmarks"
	TypeLinkBoard    = "link-board"
	TypeClaude       = "claude"
)

func connectedListPayloadSchema(itemsKey string, extra map[string]any) map[string]any {
	props := map[string]any{
		"connected": map[string]any{"type": "boolean"},
		itemsKey:    map[string]any{"type": "array"},
		"error":     map[string]any{"type": "string"},
	}
	for key, schema := range extra {
		props[key] = schema
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

var defaultTileDefinitions = []TileDefinition{
	{
		Code:        TypeEmail,
		Name:        "Inbox",
		Description: "Recent mail with unread count",
		Category:    "mail",
		PayloadSchema: connectedListPayloadSchema("emails", map[string]any{
			"unreadCount": map[string]any{"type": "integer", "minimum": 0},
		}),
		RefreshInterval: 5 * time.Minute,
	},
	{
		Code:            TypeCalendar,
		Name:            "Calendar",
		Description:     "Upcoming events",
		Category:        "calendar",
		PayloadSchema:   connectedListPayloadSchema("events", nil),
		RefreshInterval: 5 * time.Minute,
	},
	{
		Code:            TypeCalendarNext,
		Name:            "Next Meeting",
		Description:     "Countdown to the next calendar event",
		Category:        "calendar",
		PayloadSchema:   connectedListPayloadSchema("events", nil),
		RefreshInterval: time.Minute,
	},
	{
		Code:        TypeNextEvent,
		Name:        "Countdown",
		Description: "Days until a configured date",
		Category:    "calendar",
		ConfigSchema: map[string]any{
			"type":     "object",
			"required": []string{"target"},
			"properties": map[string]any{
				"target": map[string]any{"type": "string", "format": "date-time"},
				"label":  map[string]any{"type": "string"},
			},
		},
		RefreshInterval: time.Minute,
	},
	{
		Code:        TypeTasks,
		Name:        "Tasks",
		Description: "Open tasks with overdue highlighting",
		Category:    "tasks",
		PayloadSchema: connectedListPayloadSchema("tasks", map[string]any{
			"tasks_source_label": map[string]any{"type": "string"},
		}),
		RefreshInterval: 5 * time.Minute,
	},
	{
		Code:            TypeCRM,
		Name:            "CRM Actions",
		Description:     "Next actions from the CRM",
		Category:        "crm",
		PayloadSchema:   connectedListPayloadSchema("actions", nil),
		RefreshInterval: 10 * time.Minute,
	},
	{
		Code:        TypeWeather,
		Name:        "Weather",
		Description: "Current conditions and forecast chart",
		Category:    "weather",
		ConfigSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"latitude":  map[string]any{"type": "number", "minimum": -90, "maximum": 90},
				"longitude": map[string]any{"type": "number", "minimum": -180, "maximum": 180},
				"location":  map[string]any{"type": "string"},
			},
		},
		PayloadSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"configured":  map[string]any{"type": "boolean"},
				"temperature": map[string]any{"type": "number"},
				"summary":     map[string]any{"type": "string"},
				"chart":       map[string]any{"type": "string"},
				"error":       map[string]any{"type": "string"},
			},
		},
		RefreshInterval: 30 * time.Minute,
	},
	{
		Code:        TypeTrains,
		Name:        "Departures",
		Description: "Next train departures for a configured station",
		Category:    "travel",
		ConfigSchema: map[string]any{
			"type":     "object",
			"required": []string{"station"},
			"properties": map[string]any{
				"station":     map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
				"destination": map[string]any{"type": "string"},
			},
		},
		PayloadSchema:   connectedListPayloadSchema("departures", nil),
		RefreshInterval: 2 * time.Minute,
	},
	{
		Code:          TypeNotes,
		Name:          "Notes",
		Description:   "Free-form scratchpad with auto-save",
		Category:      "notes",
		PayloadSchema: connectedListPayloadSchema("notes", nil),
		ManualOnly:    true,
	},
	{
		Code:          TypeNotesList,
		Name:          "Notes List",
		Description:   "Saved notes picker",
		Category:      "notes",
		PayloadSchema: connectedListPayloadSchema("notes", nil),
		ManualOnly:    true,
	},
	{
		Code:          TypeBookmarks,
		Name:          "Bookmarks",
		Description:   "Saved links",
		Category:      "links",
		PayloadSchema: connectedListPayloadSchema("bookmarks", nil),
		ManualOnly:    true,
	},
	{
		Code:          TypeLinkBoard,
		Name:          "Link Board",
		Description:   "Kanban-style link categories",
		Category:      "links",
		PayloadSchema: connectedListPayloadSchema("categories", nil),
		ManualOnly:    true,
	},
	{
		Code:        TypeClaude,
		Name:        "Assistant",
		Description: "AI suggestions and Q&A over the dashboard",
		Category:    "assistant",
		PayloadSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"connected": map[string]any{"type": "boolean"},
				"summary":   map[string]any{"type": "string"},
				"error":     map[string]any{"type": "string"},
			},
		},
		ManualOnly: true,
	},
}

// DefaultTileDefinitions returns copies of the built-in tile definitions.
func DefaultTileDefinitions() []TileDefinition {
	out := make([]TileDefinition, len(defaultTileDefinitions))
	copy(out, defaultTileDefinitions)
	return out
}

// DefaultTileSet is the hard-coded layout materialized when a user has no
// saved configuration. All tiles carry ID 0 so nothing is persisted until
// the user saves an edit.
func DefaultTileSet() []Tile {
	types := []string{
		TypeEmail, TypeCalendar, TypeTasks, TypeWeather,
		TypeNotes, TypeBookmarks, TypeClaude,
	}
	out := make([]Tile, 0, len(types))
	for i, code := range types {
		def, _ := defaultDefinition(code)
		out = append(out, Tile{
			Type:            code,
			Title:           def.Name,
			Position:        i,
			ColumnSpan:      1,
			RowSpan:         1,
			Screen:          ScreenMain,
			RefreshInterval: def.RefreshInterval,
		})
	}
	return out
}

func defaultDefinition(code string) (TileDefinition, bool) {
	for _, def := range defaultTileDefinitions {
		if def.Code == code {
			return def, true
		}
	}
	return TileDefinition{}, false
}

// ManualOnlyTypes lists the tile kinds excluded from timer-driven refresh
// and from the all-tiles-loaded gate.
func ManualOnlyTypes() []string {
	out := make([]string, 0, 5)
	for _, def := range defaultTileDefinitions {
		if def.ManualOnly {
			out = append(out, def.Code)
		}
	}
	return out
}
