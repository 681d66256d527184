package search

import (
	"fmt"

	"github.com/kailas-cloud/crosslink/internal/domain"
	"github.com/kailas-cloud/crosslink/internal/searchcfg"
)

// Thresholds echoes the qualification thresholds used for a request.
type Thresholds struct {
	MinVectorScore   float64 `json:"min_vector_score"`
	MinKeywordScore  float64 `json:"min_keyword_score"`
	MinCombinedScore float64 `json:"min_combined_score"`
}

// Metadata summarizes a search request for the response payload.
type Metadata struct {
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

// Response is the assembled search payload.
type Response struct {
	ExactMatch     *domain.ScoredResult  `json:"exact_match,omitempty"`
	Matches        []domain.ScoredResult `json:"matches"`
	SearchMetadata Metadata              `json:"search_metadata"`
}

// formatResponse assembles the final payload, assigning 1-based ranks across
// the final ordering. A result without an id indicates a contract violation
// between stages and surfaces as a formatting error.
func formatResponse(
	query, normalizedQuery string,
	exact *domain.ScoredResult,
	matches []domain.ScoredResult,
	grouped *domain.GroupedResults,
	stats RetrievalStats,
	cfg searchcfg.Config,
	sourceGroup string,
) (*Response, error) {
	ranked := make([]domain.ScoredResult, len(matches))
	for i, m := range matches {
		if m.ID == "" {
			return nil, fmt.Errorf("%w: match at position %d has no id", domain.ErrFormatting, i)
		}
		m.Rank = i + 1
		ranked[i] = m
	}

	meta := Metadata{
		Query:             query,
		NormalizedQuery:   normalizedQuery,
		TotalCandidates:   stats.Candidates,
		QualifyingMatches: len(ranked),
		Thresholds: Thresholds{
			MinVectorScore:   cfg.MinVectorScore,
			MinKeywordScore:  cfg.MinKeywordScore,
			MinCombinedScore: cfg.MinCombinedScore,
		},
		RerankingEnabled: cfg.EnableReranking,
		ExpandedSearch:   stats.Expanded,
	}

	if grouped != nil {
		meta.GroupsFound = grouped.Order
		meta.MatchesPerGroup = grouped.Counts
		meta.SourceGroup = sourceGroup
	}

	return &Response{
		ExactMatch:     exact,
		Matches:        ranked,
		SearchMetadata: meta,
	}, nil
}
