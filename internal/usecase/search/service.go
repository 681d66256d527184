package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/crosslink/internal/domain"
	"github.com/kailas-cloud/crosslink/internal/searchcfg"
	"github.com/kailas-cloud/crosslink/internal/textnorm"
)

// minQueryLength is the shortest accepted query after trimming.
const minQueryLength = 3

// Request is one search invocation: the query text plus optional partial
// config overrides applied to this request only.
type Request struct {
	Query  string
	Config map[string]any
}

// Service orchestrates the hybrid search pipeline. Each request is a linear
// sequence of pure stage transformations over the immutable per-request
// config; the only cross-request state is the diagnostic counter set.
type Service struct {
	embed     Embedder
	retriever *AdaptiveRetriever
	detector  *ExactMatchDetector
	gate      *RerankGate
	schema    domain.Schema
	cfgStore  *searchcfg.Store
	pool      *ants.Pool
	logger    *zap.Logger
}

// New creates the search orchestrator. pool bounds per-candidate scoring
// concurrency and may be nil to score inline.
func New(
	embed Embedder,
	index VectorIndex,
	reranker Reranker,
	sch domain.Schema,
	cfgStore *searchcfg.Store,
	stats *domain.SearchStats,
	pool *ants.Pool,
	logger *zap.Logger,
) *Service {
	return &Service{
		embed:     embed,
		retriever: NewAdaptiveRetriever(index, stats, logger),
		detector:  NewExactMatchDetector(index, sch, logger),
		gate:      NewRerankGate(reranker, logger),
		schema:    sch,
		cfgStore:  cfgStore,
		pool:      pool,
		logger:    logger,
	}
}

// Search executes the full pipeline for one query and assembles the final
// payload. Any stage failure halts the pipeline; no partial response is
// returned.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	query, err := validateQuery(req.Query)
	if err != nil {
		return nil, err
	}

	cfg, err := s.cfgStore.WithOverrides(req.Config)
	if err != nil {
		return nil, err
	}

	normalizedQuery := textnorm.Normalize(query)
	queryTokens := strings.Fields(normalizedQuery)

	embedding, err := s.embed.Embed(ctx, normalizedQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}

	exact, candidates, stats, err := s.retrieve(ctx, embedding.Embedding, queryTokens, cfg)
	if err != nil {
		return nil, err
	}

	qualifying := s.scoreAndFilter(candidates, queryTokens, cfg)

	groupField := s.schema.GroupField()
	sourceGroup := ""
	var grouped *domain.GroupedResults
	if groupField != "" {
		selfID := ""
		if exact != nil {
			selfID = exact.Metadata[s.schema.IDField()]
			sourceGroup = exact.Metadata[groupField]
		}
		g := GroupResults(qualifying, groupField, selfID, sourceGroup)
		grouped = &g
		qualifying = Flatten(g)
	}

	if cfg.EnableReranking && len(qualifying) > 0 {
		qualifying, err = s.gate.Apply(ctx, query, qualifying)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("search completed",
		zap.Int("total_candidates", stats.Candidates),
		zap.Int("qualifying_matches", len(qualifying)),
		zap.Bool("expanded", stats.Expanded),
		zap.Bool("exact_match", exact != nil),
	)

	return formatResponse(query, normalizedQuery, exact, qualifying, grouped, stats, cfg, sourceGroup)
}

// retrieve runs exact-match detection and the main adaptive retrieval. With
// a grouping field configured the main retrieval's exclusion filter derives
// from the detected exact match, so the calls are sequential; without one
// the calls are independent and run concurrently.
func (s *Service) retrieve(
	ctx context.Context, vector []float32, queryTokens []string, cfg searchcfg.Config,
) (*domain.ScoredResult, []domain.Candidate, RetrievalStats, error) {
	groupField := s.schema.GroupField()

	if groupField == "" {
		var (
			exact      *domain.ScoredResult
			candidates []domain.Candidate
			stats      RetrievalStats
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			exact, err = s.detector.Detect(gctx, vector, queryTokens, cfg)
			return err
		})
		g.Go(func() error {
			var err error
			candidates, stats, err = s.retriever.Retrieve(gctx, vector, cfg, "", "")
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, nil, RetrievalStats{}, err
		}
		return exact, candidates, stats, nil
	}

	exact, err := s.detector.Detect(ctx, vector, queryTokens, cfg)
	if err != nil {
		return nil, nil, RetrievalStats{}, err
	}

	excludeField, excludeValue := "", ""
	if exact != nil {
		if group := exact.Metadata[groupField]; group != "" {
			excludeField, excludeValue = groupField, group
		}
	}

	candidates, stats, err := s.retriever.Retrieve(ctx, vector, cfg, excludeField, excludeValue)
	if err != nil {
		return nil, nil, RetrievalStats{}, err
	}
	return exact, candidates, stats, nil
}

// scoreAndFilter scores every candidate on the worker pool and keeps those
// meeting all thresholds. Scoring is independent per candidate; the original
// retrieval order is re-established afterward. A candidate whose metadata
// the schema rejects is logged and skipped; the rest of the batch proceeds.
func (s *Service) scoreAndFilter(
	candidates []domain.Candidate, queryTokens []string, cfg searchcfg.Config,
) []domain.ScoredResult {
	if len(candidates) == 0 {
		return nil
	}

	scored := make([]*domain.ScoredResult, len(candidates))
	var wg sync.WaitGroup

	for i := range candidates {
		i := i
		task := func() {
			defer wg.Done()
			result, err := scoreCandidate(candidates[i], queryTokens, cfg, s.schema)
			if err != nil {
				s.logger.Warn("skipping candidate with invalid metadata", zap.Error(err))
				return
			}
			scored[i] = result
		}

		wg.Add(1)
		if s.pool == nil || s.pool.Submit(task) != nil {
			task()
		}
	}
	wg.Wait()

	qualifying := make([]domain.ScoredResult, 0, len(candidates))
	for _, result := range scored {
		if result == nil {
			continue
		}
		if Qualifies(result.Scores, cfg) {
			qualifying = append(qualifying, *result)
		}
	}
	return qualifying
}

func validateQuery(raw string) (string, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return "", domain.NewValidationError("query", "search query is required")
	}
	if len(query) < minQueryLength {
		return "", domain.NewValidationError("query",
			fmt.Sprintf("must be at least %d characters", minQueryLength))
	}
	return query, nil
}
