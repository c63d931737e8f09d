package commands

import (
	"context"
	"errors"
	"net/url"
	"strings"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

// AddBookmarkInput saves one link.
type AddBookmarkInput struct {
	Viewer   tiles.ViewerContext
	Bookmark tiles.BookmarkRecord
}

// AddBookmarkResult carries the stored bookmark with its assigned ID.
type AddBookmarkResult struct {
	Bookmark tiles.BookmarkRecord
}

// AddBookmarkQuery validates and persists a bookmark.
type AddBookmarkQuery struct {
	bookmarks tiles.BookmarkWriter
	telemetry Telemetry
}

// NewAddBookmarkQuery creates a query instance.
func NewAddBookmarkQuery(bookmarks tiles.BookmarkWriter, telemetry Telemetry) *AddBookmarkQuery {
	return &AddBookmarkQuery{bookmarks: bookmarks, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Querier[AddBookmarkInput, AddBookmarkResult] = (*AddBookmarkQuery)(nil)

// Query validates the URL, fills a missing title from the host, and writes.
func (q *AddBookmarkQuery) Query(ctx context.Context, msg AddBookmarkInput) (AddBookmarkResult, error) {
	if q.bookmarks == nil {
		return AddBookmarkResult{}, errors.New("add-bookmark requires a bookmark writer")
	}
	bookmark := msg.Bookmark
	parsed, err := url.Parse(strings.TrimSpace(bookmark.URL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return AddBookmarkResult{}, &tiles.ValidationError{Field: "url", Reason: "must be an absolute http(s) URL"}
	}
	bookmark.URL = parsed.String()
	if strings.TrimSpace(bookmark.Title) == "" {
		bookmark.Title = parsed.Host
	}
	stored, err := q.bookmarks.AddBookmark(ctx, msg.Viewer.UserID, bookmark)
	if err != nil {
		return AddBookmarkResult{}, err
	}
	q.telemetry.Record(ctx, "tiles.command.add_bookmark", map[string]any{
		"viewer":   msg.Viewer.UserID,
		"bookmark": stored.ID,
	})
	return AddBookmarkResult{Bookmark: stored}, nil
}

// RemoveBookmarkInput deletes one link.
type RemoveBookmarkInput struct {
	Viewer     tiles.ViewerContext
	BookmarkID int64
}

// RemoveBookmarkCommand deletes a bookmark.
type RemoveBookmarkCommand struct {
	bookmarks tiles.BookmarkWriter
	telemetry Telemetry
}

// NewRemoveBookmarkCommand creates a command instance.
func NewRemoveBookmarkCommand(bookmarks tiles.BookmarkWriter, telemetry Telemetry) *RemoveBookmarkCommand {
	return &RemoveBookmarkCommand{bookmarks: bookmarks, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemoveBookmarkInput] = (*RemoveBookmarkCommand)(nil)

// Execute deletes the bookmark.
func (c *RemoveBookmarkCommand) Execute(ctx context.Context, msg RemoveBookmarkInput) error {
	if c.bookmarks == nil {
		return errors.New("remove-bookmark command requires a bookmark writer")
	}
	if msg.BookmarkID <= 0 {
		return &tiles.ValidationError{Field: "bookmark_id", Reason: "must be positive"}
	}
	if err := c.bookmarks.RemoveBookmark(ctx, msg.Viewer.UserID, msg.BookmarkID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "tiles.command.remove_bookmark", map[string]any{
		"viewer":   msg.Viewer.UserID,
		"bookmark": msg.BookmarkID,
	})
	return nil
}
