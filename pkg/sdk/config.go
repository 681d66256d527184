package sdk

import (
	"context"
	"net/http"
)

// Stats is the diagnostic counter payload.
type Stats struct {
	TotalSearches        int64   `json:"total_searches"`
	ExpandedSearches     int64   `json:"expanded_searches"`
	ExpansionRatePercent float64 `json:"expansion_rate_percent"`
}

type configEnvelope struct {
	Message string         `json:"message"`
	Config  map[string]any `json:"config"`
}

// Config fetches the server's installed search configuration. The document
// is grouped into sections (scoring_weights, thresholds, search, reranking);
// updates use the flat key set.
func (c *Client) Config(ctx context.Context) (map[string]any, error) {
	var cfg map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/v1/search/config", nil, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UpdateConfig merges a partial update onto the server's configuration and
// returns the resulting document. An invalid update changes nothing.
func (c *Client) UpdateConfig(ctx context.Context, update map[string]any) (map[string]any, error) {
	var env configEnvelope
	if err := c.do(ctx, http.MethodPut, "/api/v1/search/config", update, &env); err != nil {
		return nil, err
	}
	return env.Config, nil
}

// ResetConfig restores the server's factory configuration.
func (c *Client) ResetConfig(ctx context.Context) (map[string]any, error) {
	var env configEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/v1/search/config/reset", nil, &env); err != nil {
		return nil, err
	}
	return env.Config, nil
}

// Stats fetches the diagnostic counters.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, http.MethodGet, "/api/v1/search/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health probes the server. A degraded dependency surfaces as an *APIError
// with status 503.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}
