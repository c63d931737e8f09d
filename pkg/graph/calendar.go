package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

type calendarViewResponse struct {
	Value []struct {
		ID       string `json:"id"`
		Subject  string `json:"subject"`
		IsAllDay bool   `json:"isAllDay"`
		Location struct {
			DisplayName string `json:"displayName"`
		} `json:"location"`
		Start struct {
			DateTime string `json:"dateTime"`
			TimeZone string `json:"timeZone"`
		} `json:"start"`
		End struct {
			DateTime string `json:"dateTime"`
			TimeZone string `json:"timeZone"`
		} `json:"end"`
	} `json:"value"`
}

// UpcomingEvents implements tiles.CalendarSource via the calendarView
// endpoint, which expands recurring events into concrete instances.
func (c *Client) UpcomingEvents(ctx context.Context, userID string, window time.Duration) ([]tiles.CalendarEvent, error) {
	if window <= 0 {
		window = 48 * time.Hour
	}
	start := time.Now().UTC()
	end := start.Add(window)
	path := fmt.Sprintf("/me/calendarView?startDateTime=%s&endDateTime=%s&$orderby=start/dateTime&$top=25",
		url.QueryEscape(start.Format(time.RFC3339)),
		url.QueryEscape(end.Format(time.RFC3339)))

	var view calendarViewResponse
	if err := c.do(ctx, userID, tiles.TypeCalendar, http.MethodGet, path, nil, &view); err != nil {
		return nil, err
	}

	events := make([]tiles.CalendarEvent, 0, len(view.Value))
	for _, item := range view.Value {
		events = append(events, tiles.CalendarEvent{
			ID:       item.ID,
			Subject:  item.Subject,
			Location: item.Location.DisplayName,
			Start:    parseGraphTime(item.Start.DateTime, item.Start.TimeZone),
			End:      parseGraphTime(item.End.DateTime, item.End.TimeZone),
			AllDay:   item.IsAllDay,
		})
	}
	return events, nil
}

// parseGraphTime handles Graph's zone-less dateTime plus named timeZone pair.
func parseGraphTime(value, zone string) time.Time {
	loc := time.UTC
	if zone != "" && zone != "UTC" {
		if parsed, err := time.LoadLocation(zone); err == nil {
			loc = parsed
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05.0000000", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t
		}
	}
	t, _ := time.Parse(time.RFC3339, value)
	return t
}
