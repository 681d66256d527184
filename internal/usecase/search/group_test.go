package search

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/crosslink/internal/domain"
)

func scoredInGroup(id, framework string) domain.ScoredResult {
	return domain.ScoredResult{
		ID:       id,
		Metadata: map[string]string{"control_id": id, "framework": framework},
	}
}

func TestGroupResults(t *testing.T) {
	results := []domain.ScoredResult{
		scoredInGroup("A-1", "nist"),
		scoredInGroup("B-1", "iso"),
		scoredInGroup("A-2", "nist"),
		scoredInGroup("C-1", "soc2"),
	}

	g := GroupResults(results, "framework", "", "")

	wantOrder := []string{"nist", "iso", "soc2"}
	if !reflect.DeepEqual(g.Order, wantOrder) {
		t.Errorf("Order = %v, want %v", g.Order, wantOrder)
	}
	if g.Counts["nist"] != 2 || g.Counts["iso"] != 1 || g.Counts["soc2"] != 1 {
		t.Errorf("Counts = %v", g.Counts)
	}
	if g.Groups["nist"][0].ID != "A-1" || g.Groups["nist"][1].ID != "A-2" {
		t.Errorf("retrieval order not preserved within group: %v", g.Groups["nist"])
	}
	for group, members := range g.Groups {
		for _, m := range members {
			if m.Group != group {
				t.Errorf("member %s has Group=%q, want %q", m.ID, m.Group, group)
			}
		}
	}
}

func TestGroupResults_ExcludesSelfAndOwnGroup(t *testing.T) {
	results := []domain.ScoredResult{
		scoredInGroup("A-1", "nist"), // the query entry itself
		scoredInGroup("A-2", "nist"), // same group
		scoredInGroup("B-1", "iso"),
	}

	g := GroupResults(results, "framework", "A-1", "nist")

	if len(g.Groups["nist"]) != 0 {
		t.Errorf("own-group results must be dropped, got %v", g.Groups["nist"])
	}
	if len(g.Groups["iso"]) != 1 {
		t.Errorf("cross-group result must survive, got %v", g.Groups["iso"])
	}
	if !reflect.DeepEqual(g.Order, []string{"iso"}) {
		t.Errorf("Order = %v, want [iso]", g.Order)
	}
}

func TestGroupResults_MissingGroupField(t *testing.T) {
	results := []domain.ScoredResult{
		{ID: "X-1", Metadata: map[string]string{"control_id": "X-1"}},
	}

	g := GroupResults(results, "framework", "", "")
	if len(g.Groups["unknown"]) != 1 {
		t.Errorf("expected unknown bucket, got %v", g.Groups)
	}
}

func TestFlatten(t *testing.T) {
	results := []domain.ScoredResult{
		scoredInGroup("A-1", "nist"),
		scoredInGroup("B-1", "iso"),
		scoredInGroup("A-2", "nist"),
	}

	flat := Flatten(GroupResults(results, "framework", "", ""))

	wantIDs := []string{"A-1", "A-2", "B-1"}
	gotIDs := make([]string, len(flat))
	for i, r := range flat {
		gotIDs[i] = r.ID
	}
	if !reflect.DeepEqual(gotIDs, wantIDs) {
		t.Errorf("flat order = %v, want %v", gotIDs, wantIDs)
	}
}

func TestFlatten_Empty(t *testing.T) {
	if flat := Flatten(GroupResults(nil, "framework", "", "")); len(flat) != 0 {
		t.Errorf("expected empty flat sequence, got %v", flat)
	}
}
