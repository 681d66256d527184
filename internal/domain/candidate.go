package domain

// Candidate is one item returned by the vector store, before scoring.
type Candidate struct {
	ID          string
	VectorScore float64
	Metadata    map[string]string
}

// Scores holds the three score components of a scored result.
type Scores struct {
	Vector   float64 `json:"vector"`
	Keyword  float64 `json:"keyword"`
	Combined float64 `json:"combined"`
}

// ScoredResult is a candidate enriched with keyword and combined scores.
// Rank is 1-based and assigned only during response assembly; Group is set
// when a grouping field is configured. Text and NormalizedText carry the
// schema-processed content needed by exact-match comparison and reranking.
type ScoredResult struct {
	ID             string            `json:"id"`
	Metadata       map[string]string `json:"metadata"`
	Scores         Scores            `json:"scores"`
	Rank           int               `json:"rank,omitempty"`
	Group          string            `json:"group,omitempty"`
	Text           string            `json:"-"`
	NormalizedText string            `json:"-"`
}

// EmbeddingResult is a query vector with provider token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// GroupedResults partitions scored results by category value, preserving
// retrieval order within each group and first-appearance order across groups.
type GroupedResults struct {
	Order  []string
	Groups map[string][]ScoredResult
	Counts map[string]int
}
