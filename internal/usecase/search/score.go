package search

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/crosslink/internal/domain"
	"github.com/kailas-cloud/crosslink/internal/searchcfg"
)

// scoreCandidate processes one candidate's metadata through the schema and
// computes its keyword and combined scores. Fails when the schema rejects
// the metadata; callers decide whether that skips the candidate or not.
func scoreCandidate(
	c domain.Candidate, queryTokens []string, cfg searchcfg.Config, sch domain.Schema,
) (*domain.ScoredResult, error) {
	processed, err := sch.Process(c.Metadata)
	if err != nil {
		return nil, fmt.Errorf("process metadata for %q: %w", c.ID, err)
	}

	docTokens := strings.Fields(processed.NormalizedText)
	keywordScore := KeywordScore(queryTokens, docTokens)

	return &domain.ScoredResult{
		ID:       processed.ID,
		Metadata: sch.ToSearchMetadata(processed),
		Scores: domain.Scores{
			Vector:   c.VectorScore,
			Keyword:  keywordScore,
			Combined: CombineScores(c.VectorScore, keywordScore, cfg),
		},
		Text:           processed.Text,
		NormalizedText: processed.NormalizedText,
	}, nil
}
