package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crosslink/internal/domain"
	"github.com/kailas-cloud/crosslink/internal/metrics"
	"github.com/kailas-cloud/crosslink/internal/searchcfg"
)

// RetrievalStats describes one retrieval for observability.
type RetrievalStats struct {
	Candidates int
	Expanded   bool
}

// AdaptiveRetriever fetches candidates from the vector index and widens the
// pool once when the initial batch is uniformly strong.
type AdaptiveRetriever struct {
	index  VectorIndex
	stats  *domain.SearchStats
	logger *zap.Logger
}

// NewAdaptiveRetriever creates an adaptive retriever.
func NewAdaptiveRetriever(index VectorIndex, stats *domain.SearchStats, logger *zap.Logger) *AdaptiveRetriever {
	return &AdaptiveRetriever{index: index, stats: stats, logger: logger}
}

// Retrieve fetches cfg.InitialCandidates candidates, applying the not-equal
// filter when excludeField and excludeValue are given. If even the weakest
// returned candidate scores above cfg.CandidateExpansionThreshold the pool
// was likely truncated too early, so a single larger fetch of
// cfg.MaxCandidates replaces the initial set. Expansion happens at most once
// per request; an empty initial set short-circuits.
func (r *AdaptiveRetriever) Retrieve(
	ctx context.Context, vector []float32, cfg searchcfg.Config,
	excludeField, excludeValue string,
) ([]domain.Candidate, RetrievalStats, error) {
	r.stats.RecordSearch()
	metrics.SearchesTotal.Inc()

	candidates, err := r.index.Query(ctx, vector, cfg.InitialCandidates, excludeField, excludeValue)
	if err != nil {
		return nil, RetrievalStats{}, fmt.Errorf("initial retrieval: %w", err)
	}
	if len(candidates) == 0 {
		return nil, RetrievalStats{}, nil
	}

	minScore := candidates[0].VectorScore
	for _, c := range candidates[1:] {
		if c.VectorScore < minScore {
			minScore = c.VectorScore
		}
	}

	if minScore <= cfg.CandidateExpansionThreshold {
		return candidates, RetrievalStats{Candidates: len(candidates)}, nil
	}

	r.stats.RecordExpansion()
	metrics.ExpansionsTotal.Inc()
	r.logger.Debug("expanding candidate pool",
		zap.Float64("min_score", minScore),
		zap.Float64("threshold", cfg.CandidateExpansionThreshold),
		zap.Int("max_candidates", cfg.MaxCandidates),
	)

	expanded, err := r.index.Query(ctx, vector, cfg.MaxCandidates, excludeField, excludeValue)
	if err != nil {
		return nil, RetrievalStats{}, fmt.Errorf("expanded retrieval: %w", err)
	}

	return expanded, RetrievalStats{Candidates: len(expanded), Expanded: true}, nil
}
