package graph

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

type taskListResponse struct {
	Value []struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		WellknownListName string `json:"wellknownListName"`
	} `json:"value"`
}

type todoTaskResponse struct {
	Value []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Status      string `json:"status"`
		DueDateTime *struct {
			DateTime string `json:"dateTime"`
			TimeZone string `json:"timeZone"`
		} `json:"dueDateTime"`
	} `json:"value"`
}

// OpenTasks implements tiles.TaskSource by flattening every To Do list into
// one bundle of incomplete tasks.
func (c *Client) OpenTasks(ctx context.Context, userID string) (tiles.TaskBundle, error) {
	var lists taskListResponse
	if err := c.do(ctx, userID, tiles.TypeTasks, http.MethodGet, "/me/todo/lists", nil, &lists); err != nil {
		return tiles.TaskBundle{}, err
	}

	bundle := tiles.TaskBundle{SourceLabel: "Microsoft To Do"}
	for _, list := range lists.Value {
		path := fmt.Sprintf("/me/todo/lists/%s/tasks?$filter=status%%20ne%%20'completed'&$top=50", list.ID)
		var items todoTaskResponse
		if err := c.do(ctx, userID, tiles.TypeTasks, http.MethodGet, path, nil, &items); err != nil {
			return tiles.TaskBundle{}, err
		}
		for _, item := range items.Value {
			task := tiles.Task{ID: item.ID, ListID: list.ID, Title: item.Title}
			if item.DueDateTime != nil {
				due := parseGraphTime(item.DueDateTime.DateTime, item.DueDateTime.TimeZone)
				if !due.IsZero() {
					task.Due = due
					task.HasDue = true
				}
			}
			bundle.Tasks = append(bundle.Tasks, task)
		}
	}
	sortTasksByDue(bundle.Tasks)
	return bundle, nil
}

// CompleteTask implements tiles.TaskSource.
func (c *Client) CompleteTask(ctx context.Context, userID, listID, taskID string) error {
	if listID == "" || taskID == "" {
		return &tiles.ValidationError{Field: "task", Reason: "list and task ids are required"}
	}
	path := fmt.Sprintf("/me/todo/lists/%s/tasks/%s", listID, taskID)
	payload := map[string]string{"status": "completed"}
	return c.do(ctx, userID, tiles.TypeTasks, http.MethodPatch, path, payload, nil)
}

// sortTasksByDue orders dated tasks first, earliest due date leading; undated
// tasks keep their upstream order at the tail.
func sortTasksByDue(tasks []tiles.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.HasDue && b.HasDue:
			return a.Due.Before(b.Due)
		case a.HasDue:
			return true
		default:
			return false
		}
	})
}
