package domain

// Processed is the normalized view of one corpus entry after schema processing.
type Processed struct {
	ID             string
	Text           string
	NormalizedText string
	Fields         map[string]string
}

// Schema is the pluggable metadata strategy injected into the orchestrator.
// It owns field extraction and formatting for one corpus domain; the search
// core never depends on a specific domain's fields.
type Schema interface {
	// Process converts raw store metadata into a Processed entry.
	// It fails when required fields are missing or empty.
	Process(raw map[string]string) (Processed, error)

	// ToSearchMetadata converts a processed entry into the metadata mapping
	// exposed in search responses.
	ToSearchMetadata(p Processed) map[string]string

	// CSVHeaderFields returns the column names expected in corpus CSV files.
	CSVHeaderFields() []string

	// CSVOutputHeader returns the column names of relationship export rows.
	CSVOutputHeader() []string

	// FormatCSVRow renders one source/target relationship as a CSV row.
	FormatCSVRow(source, target Processed, rank int, scores Scores) []string

	// GroupField names the metadata attribute used to partition results and
	// exclude same-category matches. Empty means no grouping.
	GroupField() string

	// IDField names the metadata attribute holding the entry identifier.
	IDField() string
}
