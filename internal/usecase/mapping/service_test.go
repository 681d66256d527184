package mapping

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crosslink/internal/domain"
	"github.com/kailas-cloud/crosslink/internal/schema"
	searchuc "github.com/kailas-cloud/crosslink/internal/usecase/search"
)

type fakeSearcher struct {
	byQuery map[string]*searchuc.Response
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, req searchuc.Request) (*searchuc.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	if resp, ok := f.byQuery[req.Query]; ok {
		return resp, nil
	}
	return &searchuc.Response{}, nil
}

func match(id, framework, title string, rank int) domain.ScoredResult {
	return domain.ScoredResult{
		ID:   id,
		Rank: rank,
		Metadata: map[string]string{
			"control_id": id,
			"framework":  framework,
			"title":      title,
			"text":       title + " text",
		},
		Scores: domain.Scores{Vector: 0.9, Keyword: 0.5, Combined: 0.78},
	}
}

const corpus = `control_id,framework,title,text
AC-1,nist,Access Control Policy,"Access control policy text."
AU-6,nist,Audit Review,"Audit review text."
`

func TestMapCSV(t *testing.T) {
	searcher := &fakeSearcher{byQuery: map[string]*searchuc.Response{
		"Access control policy text.": {Matches: []domain.ScoredResult{
			match("A.9.1", "iso", "Access Control", 1),
			match("CC6.1", "soc2", "Logical Access", 2),
		}},
		"Audit review text.": {Matches: []domain.ScoredResult{
			match("A.12.4", "iso", "Logging and Monitoring", 1),
		}},
	}}
	svc := New(searcher, schema.NewControlSchema(), zap.NewNop())

	var out strings.Builder
	rows, err := svc.MapCSV(context.Background(), strings.NewReader(corpus), &out)
	if err != nil {
		t.Fatalf("MapCSV failed: %v", err)
	}
	if rows != 3 {
		t.Fatalf("rows = %d, want 3", rows)
	}

	records, err := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("output has %d records, want header + 3 rows", len(records))
	}
	if records[0][0] != "source_id" || records[0][2] != "target_id" {
		t.Errorf("header = %v", records[0])
	}

	first := records[1]
	if first[0] != "AC-1" || first[1] != "nist" {
		t.Errorf("source columns = %v", first[:2])
	}
	if first[2] != "A.9.1" || first[3] != "iso" || first[4] != "Access Control" {
		t.Errorf("target columns = %v", first[2:5])
	}
	if first[5] != "1" {
		t.Errorf("rank column = %q", first[5])
	}
	if first[6] != "0.9000" || first[8] != "0.7800" {
		t.Errorf("score columns = %v", first[6:])
	}
}

func TestMapCSV_SearchFailureSkipsEntry(t *testing.T) {
	svc := New(&fakeSearcher{err: errors.New("embedding quota exceeded")},
		schema.NewControlSchema(), zap.NewNop())

	var out strings.Builder
	rows, err := svc.MapCSV(context.Background(), strings.NewReader(corpus), &out)
	if err != nil {
		t.Fatalf("per-entry failures must not abort the batch: %v", err)
	}
	if rows != 0 {
		t.Errorf("rows = %d, want 0", rows)
	}

	records, _ := csv.NewReader(strings.NewReader(out.String())).ReadAll()
	if len(records) != 1 {
		t.Errorf("output should hold only the header, got %d records", len(records))
	}
}

func TestMapCSV_InvalidMatchMetadataSkipped(t *testing.T) {
	searcher := &fakeSearcher{byQuery: map[string]*searchuc.Response{
		"Access control policy text.": {Matches: []domain.ScoredResult{
			{ID: "bad", Rank: 1, Metadata: map[string]string{"framework": "iso"}},
			match("A.9.1", "iso", "Access Control", 2),
		}},
	}}
	svc := New(searcher, schema.NewControlSchema(), zap.NewNop())

	var out strings.Builder
	rows, err := svc.MapCSV(context.Background(), strings.NewReader(corpus), &out)
	if err != nil {
		t.Fatalf("MapCSV failed: %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}
}

func TestMapCSV_MalformedCorpus(t *testing.T) {
	svc := New(&fakeSearcher{}, schema.NewControlSchema(), zap.NewNop())

	var out strings.Builder
	_, err := svc.MapCSV(context.Background(),
		strings.NewReader("control_id,framework\nAC-1,nist\n"), &out)
	if err == nil {
		t.Fatal("expected error for corpus missing required columns")
	}
	if out.Len() != 0 {
		t.Error("nothing should be written for a rejected corpus")
	}
}
