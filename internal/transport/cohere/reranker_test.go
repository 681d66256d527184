package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestRerank(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/rerank" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "rerank-v3.5" {
			t.Errorf("model = %q", req.Model)
		}
		if req.TopN != 3 {
			t.Errorf("top_n = %d, want 3", req.TopN)
		}
		if req.Query != "access control" {
			t.Errorf("query = %q", req.Query)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rerankResponse{Results: []rerankResult{
			{Index: 2, RelevanceScore: 0.95},
			{Index: 0, RelevanceScore: 0.60},
			{Index: 1, RelevanceScore: 0.20},
		}})
	}))
	defer server.Close()

	rr := NewReranker(&Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "rerank-v3.5",
		Logger:  zap.NewNop(),
	})

	perm, err := rr.Rerank(context.Background(), "access control", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}
	want := []int{2, 0, 1}
	if len(perm) != len(want) {
		t.Fatalf("permutation length = %d, want %d", len(perm), len(want))
	}
	for i := range want {
		if perm[i] != want[i] {
			t.Errorf("perm[%d] = %d, want %d", i, perm[i], want[i])
		}
	}
}

func TestRerank_SortsByRelevance(t *testing.T) {
	// Some providers return results in document order; the permutation must
	// still come out relevance-first.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rerankResponse{Results: []rerankResult{
			{Index: 0, RelevanceScore: 0.30},
			{Index: 1, RelevanceScore: 0.90},
		}})
	}))
	defer server.Close()

	rr := NewReranker(&Config{APIKey: "k", BaseURL: server.URL, Model: "m", Logger: zap.NewNop()})

	perm, err := rr.Rerank(context.Background(), "q", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}
	if perm[0] != 1 || perm[1] != 0 {
		t.Errorf("perm = %v, want [1 0]", perm)
	}
}

func TestRerank_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(rerankError{Message: "invalid api token"})
	}))
	defer server.Close()

	rr := NewReranker(&Config{APIKey: "bad", BaseURL: server.URL, Model: "m", Logger: zap.NewNop()})

	_, err := rr.Rerank(context.Background(), "q", []string{"a"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid api token") {
		t.Errorf("error should carry the API message, got %v", err)
	}
}

func TestRerank_EmptyDocuments(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	rr := NewReranker(&Config{APIKey: "k", BaseURL: server.URL, Model: "m", Logger: zap.NewNop()})

	perm, err := rr.Rerank(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if perm != nil {
		t.Errorf("expected nil permutation, got %v", perm)
	}
	if called {
		t.Error("no request should be made for empty documents")
	}
}

func TestRerank_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	rr := NewReranker(&Config{APIKey: "k", BaseURL: server.URL, Model: "m", Logger: zap.NewNop()})

	if _, err := rr.Rerank(context.Background(), "q", []string{"a"}); err == nil {
		t.Fatal("expected decode error")
	}
}
