package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/dohr-michael/skillbox/internal/skill"
)

// Mock search handler. The runtime deliberately ships no network search
// integration; this handler returns canned results shaped like a real
// provider response so downstream consumers can be exercised end to end.

// SearchHit is one mock search result.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// SearchResponse is the structured output of the web-search skill.
type SearchResponse struct {
	Results []SearchHit `json:"results"`
	Total   int         `json:"total"`
	Query   string      `json:"query"`
}

const searchDelay = 50 * time.Millisecond

// WebSearch is the handler function of the web-search skill. As a hybrid
// skill handler it may consult ec.PromptTemplate, e.g. to phrase a summary
// request over the hits; the mock ignores it.
func WebSearch(ctx context.Context, _ *skill.Context, input map[string]any) (any, error) {
	query, _ := input["query"].(string)
	limit := intInput(input, "limit", 5)

	// Simulated provider latency, interruptible by the execution deadline.
	select {
	case <-time.After(searchDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	hits := make([]SearchHit, limit)
	for i := range hits {
		hits[i] = SearchHit{
			Title:   fmt.Sprintf("Result %d for '%s'", i+1, query),
			URL:     fmt.Sprintf("https://example.com/result-%d", i+1),
			Snippet: fmt.Sprintf("This is result %d for the query '%s'. It contains relevant information about the topic.", i+1, query),
			Source:  "Example Search",
		}
	}

	return SearchResponse{
		Results: hits,
		Total:   len(hits),
		Query:   query,
	}, nil
}

// intInput reads an integer field from a decoded JSON/YAML map, where numbers
// may arrive as int or float64.
func intInput(input map[string]any, key string, fallback int) int {
	switch v := input[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}
