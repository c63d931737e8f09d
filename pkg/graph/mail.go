package graph

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

type mailFolderResponse struct {
	UnreadItemCount int `json:"unreadItemCount"`
}

type messageResponse struct {
	Value []struct {
		ID               string `json:"id"`
		Subject          string `json:"subject"`
		ReceivedDateTime string `json:"receivedDateTime"`
		IsRead           bool   `json:"isRead"`
		WebLink          string `json:"webLink"`
		From             struct {
			EmailAddress struct {
				Name    string `json:"name"`
				Address string `json:"address"`
			} `json:"emailAddress"`
		} `json:"from"`
	} `json:"value"`
}

// Inbox implements tiles.MailSource by combining the inbox folder's unread
// count with its most recent messages.
func (c *Client) Inbox(ctx context.Context, userID string, limit int) (tiles.MailSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	var folder mailFolderResponse
	if err := c.do(ctx, userID, tiles.TypeEmail, http.MethodGet, "/me/mailFolders/inbox", nil, &folder); err != nil {
		return tiles.MailSummary{}, err
	}

	path := fmt.Sprintf("/me/mailFolders/inbox/messages?$top=%d&$orderby=receivedDateTime%%20desc&$select=id,subject,from,receivedDateTime,isRead,webLink", limit)
	var messages messageResponse
	if err := c.do(ctx, userID, tiles.TypeEmail, http.MethodGet, path, nil, &messages); err != nil {
		return tiles.MailSummary{}, err
	}

	summary := tiles.MailSummary{UnreadCount: folder.UnreadItemCount}
	for _, msg := range messages.Value {
		received, _ := time.Parse(time.RFC3339, msg.ReceivedDateTime)
		from := msg.From.EmailAddress.Name
		if from == "" {
			from = msg.From.EmailAddress.Address
		}
		summary.Messages = append(summary.Messages, tiles.MailMessage{
			ID:       msg.ID,
			From:     from,
			Subject:  msg.Subject,
			Received: received,
			Unread:   !msg.IsRead,
			WebLink:  msg.WebLink,
		})
	}
	return summary, nil
}
