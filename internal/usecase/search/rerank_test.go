package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crosslink/internal/domain"
)

func rerankInput() []domain.ScoredResult {
	return []domain.ScoredResult{
		{ID: "a", Text: "first"},
		{ID: "b", Text: "second"},
		{ID: "c", Text: "third"},
	}
}

func TestRerankGate_AppliesPermutation(t *testing.T) {
	rr := &fakeReranker{permutation: []int{2, 0, 1}}
	gate := NewRerankGate(rr, zap.NewNop())

	got, err := gate.Apply(context.Background(), "query", rerankInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantIDs := []string{"c", "a", "b"}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, want)
		}
	}
	if rr.gotQuery != "query" {
		t.Errorf("reranker got query %q", rr.gotQuery)
	}
	if len(rr.gotDocs) != 3 || rr.gotDocs[0] != "first" {
		t.Errorf("reranker got docs %v", rr.gotDocs)
	}
}

func TestRerankGate_EmptyPassthrough(t *testing.T) {
	gate := NewRerankGate(nil, zap.NewNop())

	got, err := gate.Apply(context.Background(), "query", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty passthrough, got %v", got)
	}
}

func TestRerankGate_NoRerankerConfigured(t *testing.T) {
	gate := NewRerankGate(nil, zap.NewNop())

	_, err := gate.Apply(context.Background(), "query", rerankInput())
	if !errors.Is(err, domain.ErrRerank) {
		t.Fatalf("expected rerank sentinel, got %v", err)
	}
}

func TestRerankGate_RerankerFailure(t *testing.T) {
	gate := NewRerankGate(&fakeReranker{err: errors.New("api down")}, zap.NewNop())

	_, err := gate.Apply(context.Background(), "query", rerankInput())
	if !errors.Is(err, domain.ErrRerank) {
		t.Fatalf("expected rerank sentinel, got %v", err)
	}
}

func TestRerankGate_InvalidPermutations(t *testing.T) {
	tests := []struct {
		name string
		perm []int
	}{
		{"wrong length", []int{0, 1}},
		{"out of range", []int{0, 1, 3}},
		{"negative", []int{0, 1, -1}},
		{"duplicate", []int{0, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewRerankGate(&fakeReranker{permutation: tt.perm}, zap.NewNop())
			_, err := gate.Apply(context.Background(), "query", rerankInput())
			if !errors.Is(err, domain.ErrRerank) {
				t.Fatalf("expected rerank sentinel, got %v", err)
			}
		})
	}
}
