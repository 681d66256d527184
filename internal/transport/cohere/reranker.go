// Package cohere provides the relevance reranking provider over the Cohere
// v2 rerank API. The API has no maintained Go SDK, so the client is a thin
// net/http wrapper.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crosslink/internal/metrics"
)

const defaultBaseURL = "https://api.cohere.com"

// Reranker reorders documents by relevance to a query.
type Reranker struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

// Config holds the rerank provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewReranker creates a Cohere rerank client.
func NewReranker(cfg *Config) *Reranker {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Reranker{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     cfg.Logger,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

type rerankError struct {
	Message string `json:"message"`
}

// Rerank sends the documents to the rerank endpoint and returns a permutation
// over the original indices ordered by descending relevance.
func (r *Reranker) Rerank(ctx context.Context, query string, documents []string) ([]int, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopN:      len(documents),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/v2/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(r.model, "error").Inc()
		return nil, fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(r.model, "error").Inc()
		return nil, fmt.Errorf("read rerank response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.RerankRequestsTotal.WithLabelValues(r.model, "error").Inc()
		var apiErr rerankError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("rerank API error %d: %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("rerank API error %d: %s", resp.StatusCode, string(raw))
	}

	var parsed rerankResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(r.model, "error").Inc()
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	metrics.RerankRequestsTotal.WithLabelValues(r.model, "success").Inc()
	metrics.RerankRequestDuration.WithLabelValues(r.model).Observe(duration.Seconds())

	// Results arrive relevance-sorted already; sorting again guards against
	// providers that return them in document order.
	sort.SliceStable(parsed.Results, func(i, j int) bool {
		return parsed.Results[i].RelevanceScore > parsed.Results[j].RelevanceScore
	})

	permutation := make([]int, 0, len(parsed.Results))
	for _, res := range parsed.Results {
		permutation = append(permutation, res.Index)
	}

	r.logger.Debug("rerank completed",
		zap.Int("documents", len(documents)),
		zap.Duration("duration", duration),
	)
	return permutation, nil
}
