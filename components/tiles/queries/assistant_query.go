package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

type assistantService interface {
	Suggestions(ctx context.Context, viewer tiles.ViewerContext, snapshot map[string]tiles.TilePayload) ([]tiles.Suggestion, error)
	Ask(ctx context.Context, viewer tiles.ViewerContext, question string, snapshot map[string]tiles.TilePayload) (string, error)
}

// SuggestionsInput asks for hints over the loaded tile snapshot.
type SuggestionsInput struct {
	Viewer   tiles.ViewerContext
	Snapshot map[string]tiles.TilePayload
}

// SuggestionsQuery runs the post-load assistant suggestion pass.
type SuggestionsQuery struct {
	assistant assistantService
}

// NewSuggestionsQuery builds the query.
func NewSuggestionsQuery(assistant assistantService) *SuggestionsQuery {
	return &SuggestionsQuery{assistant: assistant}
}

var _ gocommand.Querier[SuggestionsInput, []tiles.Suggestion] = (*SuggestionsQuery)(nil)

// Query fetches suggestions.
func (q *SuggestionsQuery) Query(ctx context.Context, input SuggestionsInput) ([]tiles.Suggestion, error) {
	if q.assistant == nil {
		return nil, errors.New("suggestions query requires an assistant")
	}
	return q.assistant.Suggestions(ctx, input.Viewer, input.Snapshot)
}

// AskInput carries a free-form question plus the tile snapshot grounding it.
type AskInput struct {
	Viewer   tiles.ViewerContext
	Question string
	Snapshot map[string]tiles.TilePayload
}

// AskQuery answers a question about the dashboard.
type AskQuery struct {
	assistant assistantService
}

// NewAskQuery builds the query.
func NewAskQuery(assistant assistantService) *AskQuery {
	return &AskQuery{assistant: assistant}
}

var _ gocommand.Querier[AskInput, string] = (*AskQuery)(nil)

// Query answers the question.
func (q *AskQuery) Query(ctx context.Context, input AskInput) (string, error) {
	if q.assistant == nil {
		return "", errors.New("ask query requires an assistant")
	}
	return q.assistant.Ask(ctx, input.Viewer, input.Question, input.Snapshot)
}
