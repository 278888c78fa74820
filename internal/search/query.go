package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/freenote/freenote-server/internal/normalize"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string   // User's search query
	Types []string // Node types to include (empty = all)

	// Pagination
	Limit  int
	Offset int

	Highlight bool // Include match highlighting on titles
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single matching node.
type SearchHit struct {
	ID         uint64            `json:"id"`
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	Score      float64           `json:"score"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a query over userID's notes only.
func (s *NoteIndex) Search(ctx context.Context, userID string, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	params.Query = normalize.Query(params.Query)
	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(userID, params), params.Limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score", "_id"})

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
	}

	searchRequest.Fields = []string{"node_id", "type", "title"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		owner, nodeID, ok := parseDocumentID(hit.ID)
		if !ok || owner != userID {
			s.logger.Warn("skipping foreign or malformed search hit", "id", hit.ID, "user_id", userID)
			continue
		}

		searchHit := SearchHit{
			ID:    nodeID,
			Score: hit.Score,
		}
		if t, ok := hit.Fields["type"].(string); ok {
			searchHit.Type = t
		}
		if title, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = title
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// userFilter matches every entry owned by userID.
func userFilter(userID string) query.Query {
	q := bleve.NewTermQuery(userID)
	q.SetField("user_id")
	return q
}

// buildSearchQuery constructs the Bleve query from params. The owner filter
// is always part of the conjunction.
func buildSearchQuery(userID string, params SearchParams) query.Query {
	queries := []query.Query{userFilter(userID)}

	if params.Query != "" {
		textQueries := []query.Query{}

		// Title match with highest boost
		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		contentMatch := bleve.NewMatchQuery(params.Query)
		contentMatch.SetField("content")
		textQueries = append(textQueries, contentMatch)

		// Fuzzy matching for typo tolerance on titles
		fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(params.Query))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if utf8.RuneCountInString(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(t)
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
