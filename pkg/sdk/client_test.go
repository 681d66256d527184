package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/search" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "access control policy" {
			t.Errorf("query = %q", req.Query)
		}
		if req.Config["enable_reranking"] != true {
			t.Errorf("config override missing: %v", req.Config)
		}

		json.NewEncoder(w).Encode(SearchResponse{
			Matches: []Match{
				{ID: "B-1", Rank: 1, Group: "iso", Scores: Scores{Combined: 0.85}},
			},
			SearchMetadata: SearchMetadata{
				Query:             "access control policy",
				QualifyingMatches: 1,
				RerankingEnabled:  true,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Search(context.Background(), "access control policy",
		WithOverride("enable_reranking", true))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(resp.Matches) != 1 || resp.Matches[0].ID != "B-1" {
		t.Errorf("matches = %+v", resp.Matches)
	}
	if !resp.SearchMetadata.RerankingEnabled {
		t.Error("RerankingEnabled = false, want true")
	}
}

func TestSearch_ValidationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"code":    "validation_failed",
			"message": "invalid request",
			"issues":  []map[string]string{{"field": "query", "reason": "must be at least 3 characters"}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Search(context.Background(), "ab")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if !apiErr.IsValidation() {
		t.Errorf("IsValidation() = false for %+v", apiErr)
	}
	if len(apiErr.Issues) != 1 || apiErr.Issues[0].Field != "query" {
		t.Errorf("issues = %+v", apiErr.Issues)
	}
}

func TestSearch_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Search(context.Background(), "access control")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if apiErr.Message != "upstream timeout" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func groupedConfig(vectorWeight float64) map[string]any {
	return map[string]any{
		"scoring_weights": map[string]any{
			"vector_weight":  vectorWeight,
			"keyword_weight": 1 - vectorWeight,
		},
		"reranking": map[string]any{"enable_reranking": false},
	}
}

func vectorWeight(t *testing.T, cfg map[string]any) any {
	t.Helper()
	section, ok := cfg["scoring_weights"].(map[string]any)
	if !ok {
		t.Fatalf("scoring_weights section missing: %v", cfg)
	}
	return section["vector_weight"]
}

func TestConfigRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /api/v1/search/config":
			json.NewEncoder(w).Encode(groupedConfig(0.7))
		case "PUT /api/v1/search/config":
			var update map[string]any
			json.NewDecoder(r.Body).Decode(&update)
			if update["vector_weight"] != 0.5 {
				t.Errorf("update body = %v", update)
			}
			json.NewEncoder(w).Encode(configEnvelope{
				Message: "configuration updated",
				Config:  groupedConfig(0.5),
			})
		case "POST /api/v1/search/config/reset":
			json.NewEncoder(w).Encode(configEnvelope{
				Message: "configuration reset to defaults",
				Config:  groupedConfig(0.7),
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	cfg, err := client.Config(ctx)
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if vectorWeight(t, cfg) != 0.7 {
		t.Errorf("vector_weight = %v", vectorWeight(t, cfg))
	}

	updated, err := client.UpdateConfig(ctx, map[string]any{"vector_weight": 0.5})
	if err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	if vectorWeight(t, updated) != 0.5 {
		t.Errorf("updated vector_weight = %v", vectorWeight(t, updated))
	}

	restored, err := client.ResetConfig(ctx)
	if err != nil {
		t.Fatalf("ResetConfig failed: %v", err)
	}
	if vectorWeight(t, restored) != 0.7 {
		t.Errorf("restored vector_weight = %v", vectorWeight(t, restored))
	}
}

func TestStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Stats{
			TotalSearches:        10,
			ExpandedSearches:     3,
			ExpansionRatePercent: 30,
		})
	}))
	defer server.Close()

	stats, err := NewClient(server.URL).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalSearches != 10 || stats.ExpandedSearches != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestHealth(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{
				"code":    "unhealthy",
				"message": "dependency down",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}

	healthy = false
	err := client.Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 APIError, got %v", err)
	}
}
