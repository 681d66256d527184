package search

import (
	"math"
	"strings"
	"testing"
)

func TestKeywordScore_FractionOfQueryTokens(t *testing.T) {
	query := strings.Fields("access control policy")
	doc := strings.Fields("control policy for remote workers")

	got := KeywordScore(query, doc)
	want := 2.0 / 3.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("KeywordScore = %v, want %v", got, want)
	}
}

func TestKeywordScore_ExactPhraseSubstring(t *testing.T) {
	query := strings.Fields("access control")
	doc := strings.Fields("logical access control requirements")

	if got := KeywordScore(query, doc); got != 1.0 {
		t.Errorf("KeywordScore = %v, want 1.0 for verbatim phrase", got)
	}
}

func TestKeywordScore_ExtraDocumentTermsIgnored(t *testing.T) {
	query := strings.Fields("encryption")
	doc := strings.Fields("encryption of data at rest and in transit with key rotation")

	if got := KeywordScore(query, doc); got != 1.0 {
		t.Errorf("KeywordScore = %v, want 1.0", got)
	}
}

func TestKeywordScore_NoOverlap(t *testing.T) {
	query := strings.Fields("incident response")
	doc := strings.Fields("physical perimeter security")

	if got := KeywordScore(query, doc); got != 0 {
		t.Errorf("KeywordScore = %v, want 0", got)
	}
}

func TestKeywordScore_EmptySides(t *testing.T) {
	if got := KeywordScore(nil, strings.Fields("some doc")); got != 0 {
		t.Errorf("empty query: got %v, want 0", got)
	}
	if got := KeywordScore(strings.Fields("some query"), nil); got != 0 {
		t.Errorf("empty doc: got %v, want 0", got)
	}
	if got := KeywordScore(nil, nil); got != 0 {
		t.Errorf("both empty: got %v, want 0", got)
	}
}

func TestKeywordScore_DuplicateQueryTokens(t *testing.T) {
	// Distinct tokens only: "data data protection" has 2 distinct tokens.
	query := strings.Fields("data data protection")
	doc := strings.Fields("protection profile")

	got := KeywordScore(query, doc)
	want := 0.5
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("KeywordScore = %v, want %v", got, want)
	}
}
