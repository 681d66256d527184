// Package search implements the hybrid search pipeline: adaptive candidate
// retrieval, keyword scoring, score combination and threshold filtering,
// exact-match detection, category-aware grouping, and optional reranking.
package search

import (
	"context"

	"github.com/kailas-cloud/crosslink/internal/domain"
)

// VectorIndex is the corpus retrieval contract. Results are ordered by
// descending similarity. When excludeField and excludeValue are both
// non-empty, documents whose field equals the value are filtered out.
type VectorIndex interface {
	Query(
		ctx context.Context, vector []float32, topK int,
		excludeField, excludeValue string,
	) ([]domain.Candidate, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Reranker reorders documents by semantic relevance to the query. The
// returned slice is a permutation over the original document indices,
// most relevant first.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string) ([]int, error)
}
