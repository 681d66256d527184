package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crosslink/internal/domain"
	"github.com/kailas-cloud/crosslink/internal/searchcfg"
)

// exactMatchScanDepth is how many raw top candidates are checked for an
// exact match.
const exactMatchScanDepth = 5

// ExactMatchDetector scans the raw top candidates of an unfiltered retrieval
// for an entry that is text-identical to the query, or close enough to pass
// the stricter exact-match thresholds.
type ExactMatchDetector struct {
	index  VectorIndex
	schema domain.Schema
	logger *zap.Logger
}

// NewExactMatchDetector creates an exact-match detector.
func NewExactMatchDetector(index VectorIndex, sch domain.Schema, logger *zap.Logger) *ExactMatchDetector {
	return &ExactMatchDetector{index: index, schema: sch, logger: logger}
}

// Detect returns the exact match for the query, or nil when none of the top
// raw candidates qualifies. The retrieval runs without any exclusion filter.
// Candidates with metadata the schema rejects are skipped.
func (d *ExactMatchDetector) Detect(
	ctx context.Context, vector []float32, queryTokens []string, cfg searchcfg.Config,
) (*domain.ScoredResult, error) {
	queryText := strings.Join(queryTokens, " ")

	candidates, err := d.index.Query(ctx, vector, exactMatchScanDepth, "", "")
	if err != nil {
		return nil, fmt.Errorf("exact match retrieval: %w", err)
	}

	for _, c := range candidates {
		result, err := scoreCandidate(c, queryTokens, cfg, d.schema)
		if err != nil {
			d.logger.Warn("skipping candidate with invalid metadata", zap.Error(err))
			continue
		}

		if result.NormalizedText == queryText {
			d.logger.Debug("found exact text match", zap.String("id", result.ID))
			return result, nil
		}

		if meetsExactThresholds(result.Scores, cfg) {
			d.logger.Debug("found similarity threshold match",
				zap.String("id", result.ID),
				zap.Float64("vector_score", result.Scores.Vector),
				zap.Float64("keyword_score", result.Scores.Keyword),
			)
			return result, nil
		}
	}

	return nil, nil
}
