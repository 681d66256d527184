package search

import (
	"context"
	"sync"

	"github.com/kailas-cloud/crosslink/internal/domain"
	"github.com/kailas-cloud/crosslink/internal/searchcfg"
)

// fakeIndex answers KNN queries keyed by the requested topK, recording every
// call.
type fakeIndex struct {
	mu      sync.Mutex
	byTopK  map[int][]domain.Candidate
	err     error
	queries []indexQuery
}

type indexQuery struct {
	topK         int
	excludeField string
	excludeValue string
}

func (f *fakeIndex) Query(
	_ context.Context, _ []float32, topK int, excludeField, excludeValue string,
) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, indexQuery{topK, excludeField, excludeValue})
	if f.err != nil {
		return nil, f.err
	}
	return f.byTopK[topK], nil
}

func (f *fakeIndex) calls() []indexQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]indexQuery, len(f.queries))
	copy(out, f.queries)
	return out
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vector}, nil
}

type fakeReranker struct {
	permutation []int
	err         error
	gotQuery    string
	gotDocs     []string
}

func (f *fakeReranker) Rerank(_ context.Context, query string, docs []string) ([]int, error) {
	f.gotQuery = query
	f.gotDocs = docs
	if f.err != nil {
		return nil, f.err
	}
	return f.permutation, nil
}

// control builds candidate metadata in the control schema layout.
func control(id, framework, text string) map[string]string {
	return map[string]string{
		"control_id": id,
		"framework":  framework,
		"title":      id + " title",
		"text":       text,
	}
}

func testConfig() searchcfg.Config {
	return searchcfg.Default()
}
