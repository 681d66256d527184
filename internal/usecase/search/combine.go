package search

import (
	"github.com/kailas-cloud/crosslink/internal/domain"
	"github.com/kailas-cloud/crosslink/internal/searchcfg"
)

// CombineScores merges vector and keyword scores into the weighted combined
// score. No normalization is applied; the weights are caller-controlled.
func CombineScores(vectorScore, keywordScore float64, cfg searchcfg.Config) float64 {
	return cfg.VectorWeight*vectorScore + cfg.KeywordWeight*keywordScore
}

// Qualifies reports whether all three score components meet their configured
// minimum thresholds.
func Qualifies(s domain.Scores, cfg searchcfg.Config) bool {
	return s.Vector >= cfg.MinVectorScore &&
		s.Keyword >= cfg.MinKeywordScore &&
		s.Combined >= cfg.MinCombinedScore
}

// meetsExactThresholds applies the stricter exact-match thresholds.
func meetsExactThresholds(s domain.Scores, cfg searchcfg.Config) bool {
	return s.Vector >= cfg.ExactMatchMinVectorScore &&
		s.Keyword >= cfg.ExactMatchMinKeywordScore
}
