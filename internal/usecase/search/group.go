package search

import "github.com/kailas-cloud/crosslink/internal/domain"

// unknownGroup buckets results missing the grouping field.
const unknownGroup = "unknown"

// GroupResults partitions qualifying results by the grouping field,
// preserving retrieval order within each group and first-appearance order
// across groups. Candidates matching the query's own id or the query's own
// group are dropped: self and same-category matches are never informative
// cross-category relationships.
func GroupResults(
	results []domain.ScoredResult, groupField, selfID, selfGroup string,
) domain.GroupedResults {
	grouped := domain.GroupedResults{
		Groups: make(map[string][]domain.ScoredResult),
		Counts: make(map[string]int),
	}

	for _, res := range results {
		if selfID != "" && res.ID == selfID {
			continue
		}

		group := res.Metadata[groupField]
		if group == "" {
			group = unknownGroup
		}
		if selfGroup != "" && group == selfGroup {
			continue
		}

		res.Group = group
		if _, seen := grouped.Groups[group]; !seen {
			grouped.Order = append(grouped.Order, group)
		}
		grouped.Groups[group] = append(grouped.Groups[group], res)
		grouped.Counts[group]++
	}

	return grouped
}

// Flatten returns the grouped results as one ordered sequence: groups in
// first-appearance order, retrieval order within each group.
func Flatten(g domain.GroupedResults) []domain.ScoredResult {
	total := 0
	for _, members := range g.Groups {
		total += len(members)
	}

	flat := make([]domain.ScoredResult, 0, total)
	for _, group := range g.Order {
		flat = append(flat, g.Groups[group]...)
	}
	return flat
}
