package sdk

import (
	"context"
	"net/http"
)

// Scores carries the component and combined relevance scores of a match.
type Scores struct {
	Vector   float64 `json:"vector"`
	Keyword  float64 `json:"keyword"`
	Combined float64 `json:"combined"`
}

// Match is one search result.
type Match struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
	Scores   Scores            `json:"scores"`
	Rank     int               `json:"rank,omitempty"`
	Group    string            `json:"group,omitempty"`
}

// Thresholds echoes the score gates the search applied.
type Thresholds struct {
	MinVectorScore   float64 `json:"min_vector_score"`
	MinKeywordScore  float64 `json:"min_keyword_score"`
	MinCombinedScore float64 `json:"min_combined_score"`
}

// SearchMetadata describes how the search was executed.
type SearchMetadata struct {
	Query             string         `json:"query"`
	NormalizedQuery   string         `json:"normalized_query"`
	TotalCandidates   int            `json:"total_candidates"`
	QualifyingMatches int            `json:"total_qualifying_matches"`
	Thresholds        Thresholds     `json:"thresholds"`
	RerankingEnabled  bool           `json:"reranking_enabled"`
	ExpandedSearch    bool           `json:"expanded_search"`
	GroupsFound       []string       `json:"groups_found,omitempty"`
	MatchesPerGroup   map[string]int `json:"matches_per_group,omitempty"`
	SourceGroup       string         `json:"source_group,omitempty"`
}

// SearchResponse is the full search payload.
type SearchResponse struct {
	ExactMatch     *Match         `json:"exact_match,omitempty"`
	Matches        []Match        `json:"matches"`
	SearchMetadata SearchMetadata `json:"search_metadata"`
}

// SearchOption customizes a single search request.
type SearchOption func(*searchRequest)

// WithOverride sets one configuration override for this request only.
func WithOverride(key string, value any) SearchOption {
	return func(r *searchRequest) {
		if r.Config == nil {
			r.Config = make(map[string]any)
		}
		r.Config[key] = value
	}
}

// WithOverrides sets multiple configuration overrides for this request only.
func WithOverrides(overrides map[string]any) SearchOption {
	return func(r *searchRequest) {
		if r.Config == nil {
			r.Config = make(map[string]any, len(overrides))
		}
		for k, v := range overrides {
			r.Config[k] = v
		}
	}
}

type searchRequest struct {
	Query  string         `json:"query"`
	Config map[string]any `json:"config,omitempty"`
}

// Search runs one hybrid search.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	req := searchRequest{Query: query}
	for _, o := range opts {
		o(&req)
	}

	var resp SearchResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
