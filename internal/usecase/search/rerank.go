package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crosslink/internal/domain"
)

// RerankGate reorders the qualifying set using the external relevance model.
// It is invoked at most once per request and never changes set membership;
// a reranker failure surfaces as an error rather than silently keeping the
// original order.
type RerankGate struct {
	reranker Reranker
	logger   *zap.Logger
}

// NewRerankGate creates a rerank gate.
func NewRerankGate(reranker Reranker, logger *zap.Logger) *RerankGate {
	return &RerankGate{reranker: reranker, logger: logger}
}

// Apply sends the result texts to the reranker and applies the returned
// permutation. An invalid permutation (wrong length, out-of-range or
// duplicate index) is treated as a reranker failure.
func (g *RerankGate) Apply(
	ctx context.Context, query string, results []domain.ScoredResult,
) ([]domain.ScoredResult, error) {
	if len(results) == 0 {
		return results, nil
	}
	if g.reranker == nil {
		return nil, fmt.Errorf("%w: reranking enabled but no reranker configured", domain.ErrRerank)
	}

	documents := make([]string, len(results))
	for i, res := range results {
		documents[i] = res.Text
	}

	permutation, err := g.reranker.Rerank(ctx, query, documents)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRerank, err)
	}

	if len(permutation) != len(results) {
		return nil, fmt.Errorf("%w: permutation length %d does not match result count %d",
			domain.ErrRerank, len(permutation), len(results))
	}

	reordered := make([]domain.ScoredResult, 0, len(results))
	seen := make(map[int]bool, len(permutation))
	for _, idx := range permutation {
		if idx < 0 || idx >= len(results) || seen[idx] {
			return nil, fmt.Errorf("%w: invalid permutation index %d", domain.ErrRerank, idx)
		}
		seen[idx] = true
		reordered = append(reordered, results[idx])
	}

	g.logger.Debug("reranking applied", zap.Int("results", len(reordered)))
	return reordered, nil
}
