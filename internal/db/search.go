package db

// KNNQuery is the input for vector similarity search. ExcludeField and
// ExcludeValue, when both set, pre-filter the search to documents whose tag
// field does not equal the given value.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ExcludeField string
	ExcludeValue string
	ReturnFields []string
}

// SearchResult is the output of a search operation, ordered by descending
// similarity.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
