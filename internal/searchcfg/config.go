// Package searchcfg holds the runtime-tunable hybrid search configuration:
// scoring weights, qualification thresholds, candidate pool sizes, the
// expansion threshold, and the rerank toggle. The configuration is validated
// as a raw document, installed as an immutable value, and persisted to YAML.
package searchcfg

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/crosslink/internal/domain"
)

// Config is the immutable per-request-cycle search configuration.
type Config struct {
	VectorWeight  float64 `yaml:"vector_weight"`
	KeywordWeight float64 `yaml:"keyword_weight"`

	MinVectorScore   float64 `yaml:"min_vector_score"`
	MinKeywordScore  float64 `yaml:"min_keyword_score"`
	MinCombinedScore float64 `yaml:"min_combined_score"`

	ExactMatchMinVectorScore  float64 `yaml:"exact_match_min_vector_score"`
	ExactMatchMinKeywordScore float64 `yaml:"exact_match_min_keyword_score"`

	InitialCandidates           int     `yaml:"initial_candidates"`
	MaxCandidates               int     `yaml:"max_candidates"`
	CandidateExpansionThreshold float64 `yaml:"candidate_expansion_threshold"`

	EnableReranking bool `yaml:"enable_reranking"`
}

// requiredFields is the exact key set of a valid configuration document.
var requiredFields = []string{
	"vector_weight",
	"keyword_weight",
	"min_vector_score",
	"min_keyword_score",
	"min_combined_score",
	"exact_match_min_vector_score",
	"exact_match_min_keyword_score",
	"initial_candidates",
	"max_candidates",
	"candidate_expansion_threshold",
	"enable_reranking",
}

// Default returns the factory configuration.
func Default() Config {
	return Config{
		VectorWeight:                0.7,
		KeywordWeight:               0.3,
		MinVectorScore:              0.75,
		MinKeywordScore:             0.3,
		MinCombinedScore:            0.6,
		ExactMatchMinVectorScore:    0.9,
		ExactMatchMinKeywordScore:   0.8,
		InitialCandidates:           50,
		MaxCandidates:               100,
		CandidateExpansionThreshold: 0.85,
		EnableReranking:             false,
	}
}

// ToRaw converts the config to a raw document keyed by field name.
func (c Config) ToRaw() map[string]any {
	return map[string]any{
		"vector_weight":                 c.VectorWeight,
		"keyword_weight":                c.KeywordWeight,
		"min_vector_score":              c.MinVectorScore,
		"min_keyword_score":             c.MinKeywordScore,
		"min_combined_score":            c.MinCombinedScore,
		"exact_match_min_vector_score":  c.ExactMatchMinVectorScore,
		"exact_match_min_keyword_score": c.ExactMatchMinKeywordScore,
		"initial_candidates":            c.InitialCandidates,
		"max_candidates":                c.MaxCandidates,
		"candidate_expansion_threshold": c.CandidateExpansionThreshold,
		"enable_reranking":              c.EnableReranking,
	}
}

// Validate checks a full raw document: every required field must be present,
// weight/score fields must be numbers in [0,1], candidate counts must be
// positive integers with max_candidates >= initial_candidates, and unknown
// keys are rejected. All issues are reported together.
func Validate(raw map[string]any) error {
	if len(raw) == 0 {
		return domain.NewValidationError("config", "no configuration data provided")
	}

	var issues []domain.FieldIssue

	known := make(map[string]bool, len(requiredFields))
	for _, f := range requiredFields {
		known[f] = true
		if _, ok := raw[f]; !ok {
			issues = append(issues, domain.FieldIssue{Field: f, Reason: "required field missing"})
		}
	}

	unknown := make([]string, 0)
	for k := range raw {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		issues = append(issues, domain.FieldIssue{Field: k, Reason: "unknown configuration key"})
	}

	for _, f := range requiredFields {
		v, ok := raw[f]
		if !ok {
			continue
		}
		if issue := checkFieldValue(f, v); issue != nil {
			issues = append(issues, *issue)
		}
	}

	if issue := checkCandidateOrdering(raw); issue != nil {
		issues = append(issues, *issue)
	}

	if len(issues) > 0 {
		return &domain.ValidationError{Issues: issues}
	}
	return nil
}

// FromRaw validates a full raw document and builds the typed config.
func FromRaw(raw map[string]any) (Config, error) {
	if err := Validate(raw); err != nil {
		return Config{}, err
	}

	c := Config{}
	c.VectorWeight, _ = coerceFloat(raw["vector_weight"])
	c.KeywordWeight, _ = coerceFloat(raw["keyword_weight"])
	c.MinVectorScore, _ = coerceFloat(raw["min_vector_score"])
	c.MinKeywordScore, _ = coerceFloat(raw["min_keyword_score"])
	c.MinCombinedScore, _ = coerceFloat(raw["min_combined_score"])
	c.ExactMatchMinVectorScore, _ = coerceFloat(raw["exact_match_min_vector_score"])
	c.ExactMatchMinKeywordScore, _ = coerceFloat(raw["exact_match_min_keyword_score"])
	c.InitialCandidates, _ = coerceInt(raw["initial_candidates"])
	c.MaxCandidates, _ = coerceInt(raw["max_candidates"])
	c.CandidateExpansionThreshold, _ = coerceFloat(raw["candidate_expansion_threshold"])
	c.EnableReranking = coerceBool(raw["enable_reranking"])
	return c, nil
}

// checkFieldValue applies the name-pattern coercion rules to one field.
func checkFieldValue(field string, value any) *domain.FieldIssue {
	switch {
	case strings.Contains(field, "weight") || strings.Contains(field, "score") ||
		field == "candidate_expansion_threshold":
		f, ok := coerceFloat(value)
		if !ok {
			return &domain.FieldIssue{Field: field, Reason: "must be a number"}
		}
		if f < 0 || f > 1 {
			return &domain.FieldIssue{Field: field, Reason: "must be between 0 and 1"}
		}
	case field == "initial_candidates" || field == "max_candidates":
		n, ok := coerceInt(value)
		if !ok {
			return &domain.FieldIssue{Field: field, Reason: "must be an integer"}
		}
		if n <= 0 {
			return &domain.FieldIssue{Field: field, Reason: "must be positive"}
		}
	case field == "enable_reranking":
		if _, isBool := value.(bool); !isBool {
			if _, ok := coerceInt(value); !ok {
				return &domain.FieldIssue{Field: field, Reason: "must be a boolean"}
			}
		}
	}
	return nil
}

// checkCandidateOrdering enforces max_candidates >= initial_candidates when
// both values are usable.
func checkCandidateOrdering(raw map[string]any) *domain.FieldIssue {
	initial, okI := coerceInt(raw["initial_candidates"])
	maxC, okM := coerceInt(raw["max_candidates"])
	if okI && okM && initial > 0 && maxC > 0 && maxC < initial {
		return &domain.FieldIssue{
			Field:  "max_candidates",
			Reason: fmt.Sprintf("must be >= initial_candidates (%d)", initial),
		}
	}
	return nil
}

func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		// JSON numbers arrive as float64; accept only whole values.
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}

func coerceBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	default:
		return false
	}
}
