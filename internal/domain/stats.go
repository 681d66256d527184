package domain

import "sync/atomic"

// SearchStats tracks process-wide retrieval counters. It is created once at
// process start, shared across all concurrent requests, incremented atomically
// from the request path, and never reset mid-process.
type SearchStats struct {
	totalSearches atomic.Int64
	expansions    atomic.Int64
}

// NewSearchStats creates a zeroed counter set.
func NewSearchStats() *SearchStats {
	return &SearchStats{}
}

// RecordSearch increments the total search counter.
func (s *SearchStats) RecordSearch() {
	s.totalSearches.Add(1)
}

// RecordExpansion increments the expansion counter.
func (s *SearchStats) RecordExpansion() {
	s.expansions.Add(1)
}

// TotalSearches returns the number of retrievals performed.
func (s *SearchStats) TotalSearches() int64 {
	return s.totalSearches.Load()
}

// Expansions returns the number of retrievals that triggered expansion.
func (s *SearchStats) Expansions() int64 {
	return s.expansions.Load()
}

// ExpansionRate returns the percentage of searches that required expansion.
func (s *SearchStats) ExpansionRate() float64 {
	total := s.totalSearches.Load()
	if total == 0 {
		return 0
	}
	return float64(s.expansions.Load()) / float64(total) * 100
}
