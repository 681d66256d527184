// Package schema provides concrete metadata schemas for corpus domains.
package schema

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/crosslink/internal/domain"
	"github.com/kailas-cloud/crosslink/internal/textnorm"
)

// Control metadata field names as stored in the vector index.
const (
	FieldControlID      = "control_id"
	FieldFramework      = "framework"
	FieldTitle          = "title"
	FieldText           = "text"
	FieldNormalizedText = "normalized_text"
)

// ControlSchema maps security/compliance control metadata. Entries are
// grouped by framework so that search surfaces cross-framework
// relationships between controls.
type ControlSchema struct{}

var _ domain.Schema = ControlSchema{}

// NewControlSchema creates the control metadata schema.
func NewControlSchema() ControlSchema {
	return ControlSchema{}
}

// Process validates raw store metadata and fills in the normalized text
// when the stored copy is absent.
func (ControlSchema) Process(raw map[string]string) (domain.Processed, error) {
	id := raw[FieldControlID]
	if id == "" {
		return domain.Processed{}, fmt.Errorf("missing required field %q", FieldControlID)
	}
	text := raw[FieldText]
	if text == "" {
		return domain.Processed{}, fmt.Errorf("missing required field %q", FieldText)
	}
	framework := raw[FieldFramework]
	if framework == "" {
		return domain.Processed{}, fmt.Errorf("missing required field %q", FieldFramework)
	}

	normalized := raw[FieldNormalizedText]
	if normalized == "" {
		normalized = textnorm.Normalize(text)
	}

	return domain.Processed{
		ID:             id,
		Text:           text,
		NormalizedText: normalized,
		Fields: map[string]string{
			FieldControlID: id,
			FieldFramework: framework,
			FieldTitle:     raw[FieldTitle],
		},
	}, nil
}

// ToSearchMetadata exposes the response-facing metadata mapping.
func (ControlSchema) ToSearchMetadata(p domain.Processed) map[string]string {
	return map[string]string{
		FieldControlID: p.ID,
		FieldFramework: p.Fields[FieldFramework],
		FieldTitle:     p.Fields[FieldTitle],
		FieldText:      p.Text,
	}
}

// CSVHeaderFields returns the corpus CSV column layout.
func (ControlSchema) CSVHeaderFields() []string {
	return []string{FieldControlID, FieldFramework, FieldTitle, FieldText}
}

// CSVOutputHeader returns the mapping export column layout.
func (ControlSchema) CSVOutputHeader() []string {
	return []string{
		"source_id", "source_framework",
		"target_id", "target_framework", "target_title",
		"rank", "vector_score", "keyword_score", "combined_score",
	}
}

// FormatCSVRow renders one source/target control relationship.
func (ControlSchema) FormatCSVRow(
	source, target domain.Processed, rank int, scores domain.Scores,
) []string {
	return []string{
		source.ID,
		source.Fields[FieldFramework],
		target.ID,
		target.Fields[FieldFramework],
		target.Fields[FieldTitle],
		strconv.Itoa(rank),
		strconv.FormatFloat(scores.Vector, 'f', 4, 64),
		strconv.FormatFloat(scores.Keyword, 'f', 4, 64),
		strconv.FormatFloat(scores.Combined, 'f', 4, 64),
	}
}

// GroupField groups results by framework.
func (ControlSchema) GroupField() string { return FieldFramework }

// IDField names the control identifier attribute.
func (ControlSchema) IDField() string { return FieldControlID }
