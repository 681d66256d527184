// Package chi wires the search API onto a chi router: the search endpoint,
// runtime configuration management, diagnostic counters, health, and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crosslink/internal/domain"
	logpkg "github.com/kailas-cloud/crosslink/internal/logger"
	"github.com/kailas-cloud/crosslink/internal/metrics"
	"github.com/kailas-cloud/crosslink/internal/searchcfg"
	searchuc "github.com/kailas-cloud/crosslink/internal/usecase/search"
)

// HealthChecker reports dependency availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the search pipeline over HTTP.
type Server struct {
	search        *searchuc.Service
	cfgStore      *searchcfg.Store
	stats         *domain.SearchStats
	checks        map[string]HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server. checks maps dependency names to
// their health probes.
func NewServer(
	search *searchuc.Service,
	cfgStore *searchcfg.Store,
	stats *domain.SearchStats,
	checks map[string]HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		cfgStore: cfgStore,
		stats:    stats,
		checks:   checks,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrEmbedding, http.StatusBadGateway, "embedding_failed"),
		sentinelHandler(domain.ErrRetrieval, http.StatusBadGateway, "retrieval_failed"),
		sentinelHandler(domain.ErrRerank, http.StatusBadGateway, "rerank_failed"),
		sentinelHandler(domain.ErrFormatting, http.StatusInternalServerError, "formatting_failed"),
	}
	return s
}

// Routes mounts all handlers on a fresh chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(requestIDMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Route("/search/config", func(r chi.Router) {
			r.Get("/", s.handleGetConfig)
			r.Put("/", s.handleUpdateConfig)
			r.Post("/reset", s.handleResetConfig)
		})
		r.Get("/search/stats", s.handleStats)
	})
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

type searchRequest struct {
	Query  string         `json:"query"`
	Config map[string]any `json:"config,omitempty"`
}

// handleSearch handles POST /api/v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), searchuc.Request{
		Query:  req.Query,
		Config: req.Config,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetConfig handles GET /api/v1/search/config.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.cfgStore.Current()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configPayload(cfg))
}

// handleUpdateConfig handles PUT /api/v1/search/config. The body is a partial
// document merged onto the current configuration; an invalid merge changes
// nothing.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var update map[string]any
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	cfg, err := s.cfgStore.Save(update)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "configuration updated",
		"config":  configPayload(cfg),
	})
}

// handleResetConfig handles POST /api/v1/search/config/reset.
func (s *Server) handleResetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfgStore.ResetToDefaults()
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "configuration reset to defaults",
		"config":  configPayload(cfg),
	})
}

// handleStats handles GET /api/v1/search/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"total_searches":         s.stats.TotalSearches(),
		"expanded_searches":      s.stats.Expansions(),
		"expansion_rate_percent": s.stats.ExpansionRate(),
	})
}

// handleHealthz handles GET /healthz. Any failed dependency probe flips the
// status to 503.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check.HealthCheck(r.Context()); err != nil {
			logpkg.FromContext(r.Context()).Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "healthy"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	writeJSON(w, status, map[string]any{
		"status": overall,
		"checks": checks,
	})
}

// configPayload shapes a config for API responses, grouping related fields
// the way operators read them. Updates still use the flat key set.
func configPayload(cfg searchcfg.Config) map[string]any {
	return map[string]any{
		"scoring_weights": map[string]any{
			"vector_weight":  cfg.VectorWeight,
			"keyword_weight": cfg.KeywordWeight,
		},
		"thresholds": map[string]any{
			"min_vector_score":              cfg.MinVectorScore,
			"min_keyword_score":             cfg.MinKeywordScore,
			"min_combined_score":            cfg.MinCombinedScore,
			"exact_match_min_vector_score":  cfg.ExactMatchMinVectorScore,
			"exact_match_min_keyword_score": cfg.ExactMatchMinKeywordScore,
		},
		"search": map[string]any{
			"initial_candidates":            cfg.InitialCandidates,
			"max_candidates":                cfg.MaxCandidates,
			"candidate_expansion_threshold": cfg.CandidateExpansionThreshold,
		},
		"reranking": map[string]any{
			"enable_reranking": cfg.EnableReranking,
		},
	}
}

// handleDomainError logs through the per-request logger so failures carry
// the request id assigned by the middleware.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	logger.Warn("request failed", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// validationHandler maps validation failures to 400 with the full issue list.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		issues := make([]map[string]string, len(vErr.Issues))
		for i, issue := range vErr.Issues {
			issues[i] = map[string]string{
				"field":  issue.Field,
				"reason": issue.Reason,
			}
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":    "validation_failed",
			"message": vErr.Error(),
			"issues":  issues,
		})
		return true
	}

	writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
