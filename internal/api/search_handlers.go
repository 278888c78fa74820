package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/freenote/freenote-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search notes",
		Description: "Full-text search over the titles and contents of the caller's notes and notebooks",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching notes.
type SearchInput struct {
	Query     string `query:"q" maxLength:"512" doc:"Search query"`
	Types     string `query:"type" doc:"Comma-separated node types to include (note,notebook). Omit for all."`
	Limit     int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset    int    `query:"offset" minimum:"0" doc:"Pagination offset (default 0)"`
	Highlight bool   `query:"highlight" doc:"Include highlighted title fragments"`
}

// SearchHitResult contains a single matching node.
type SearchHitResult struct {
	ID         uint64            `json:"id" doc:"Node ID"`
	Type       string            `json:"type" doc:"Type: note or notebook"`
	Title      string            `json:"title" doc:"Node title"`
	Score      float64           `json:"score" doc:"Search relevance score"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string            `json:"query" doc:"Normalized search query"`
	Total  uint64            `json:"total" doc:"Total matches"`
	TookMs int64             `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResult `json:"hits" doc:"Search results"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.Types = splitTypes(input.Types)
	params.Offset = input.Offset
	params.Highlight = input.Highlight
	if input.Limit > 0 {
		params.Limit = input.Limit
	}

	result, err := s.notes.SearchNotes(ctx, userID, params)
	if err != nil {
		return nil, asStatusError(err)
	}

	hits := make([]SearchHitResult, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = SearchHitResult{
			ID:         h.ID,
			Type:       h.Type,
			Title:      h.Title,
			Score:      h.Score,
			Highlights: h.Highlights,
		}
	}

	return &SearchOutput{
		Body: SearchResponse{
			Query:  result.Query,
			Total:  result.Total,
			TookMs: result.TookMs,
			Hits:   hits,
		},
	}, nil
}

// splitTypes parses the comma-separated type filter.
func splitTypes(raw string) []string {
	var types []string
	for t := range strings.SplitSeq(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, strings.ToLower(t))
		}
	}
	return types
}
