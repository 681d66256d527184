package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crosslink/internal/domain"
	"github.com/kailas-cloud/crosslink/internal/repository/vector"
	"github.com/kailas-cloud/crosslink/internal/schema"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type fakeUpserter struct {
	mu      sync.Mutex
	docs    []vector.Document
	batches int
	err     error
}

func (f *fakeUpserter) Upsert(_ context.Context, docs []vector.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, docs...)
	f.batches++
	return nil
}

func newTestService(emb *fakeEmbedder, repo *fakeUpserter) *Service {
	return New(emb, repo, schema.NewControlSchema(), zap.NewNop())
}

const validCSV = `control_id,framework,title,text
AC-1,nist,Access Control Policy,"The organization develops an access control policy."
A.9.1,iso,Access Control,"Business requirements of access control."
`

func TestLoadCSV(t *testing.T) {
	emb := &fakeEmbedder{}
	repo := &fakeUpserter{}
	svc := newTestService(emb, repo)

	n, err := svc.LoadCSV(context.Background(), strings.NewReader(validCSV))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("ingested %d entries, want 2", n)
	}
	if len(repo.docs) != 2 {
		t.Fatalf("upserted %d docs, want 2", len(repo.docs))
	}

	byID := make(map[string]vector.Document, len(repo.docs))
	for _, d := range repo.docs {
		byID[d.ID] = d
	}
	doc, ok := byID["AC-1"]
	if !ok {
		t.Fatal("AC-1 not upserted")
	}
	if doc.Fields["framework"] != "nist" {
		t.Errorf("framework = %q", doc.Fields["framework"])
	}
	if doc.Fields["title"] != "Access Control Policy" {
		t.Errorf("title = %q", doc.Fields["title"])
	}
	if doc.Fields["text"] != "The organization develops an access control policy." {
		t.Errorf("text = %q", doc.Fields["text"])
	}
	if doc.Fields["normalized_text"] != "the organization develops an access control policy" {
		t.Errorf("normalized_text = %q", doc.Fields["normalized_text"])
	}
	if len(doc.Vector) != 2 {
		t.Errorf("vector = %v", doc.Vector)
	}

	// The normalized text is what gets embedded, not the raw text.
	for _, text := range emb.texts {
		if text != strings.ToLower(text) {
			t.Errorf("embedded raw text %q", text)
		}
	}
}

func TestLoadCSV_ColumnOrderIsFree(t *testing.T) {
	csvData := `text,title,control_id,framework
"Audit records are reviewed weekly.",Audit Review,AU-6,nist
`
	repo := &fakeUpserter{}
	svc := newTestService(&fakeEmbedder{}, repo)

	n, err := svc.LoadCSV(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("ingested %d entries, want 1", n)
	}
	if repo.docs[0].ID != "AU-6" {
		t.Errorf("ID = %q, want AU-6", repo.docs[0].ID)
	}
}

func TestLoadCSV_MissingHeaderColumn(t *testing.T) {
	csvData := `control_id,framework,title
AC-1,nist,Access Control Policy
`
	emb := &fakeEmbedder{}
	svc := newTestService(emb, &fakeUpserter{})

	_, err := svc.LoadCSV(context.Background(), strings.NewReader(csvData))
	if err == nil {
		t.Fatal("expected error for missing text column")
	}
	if !strings.Contains(err.Error(), `"text"`) {
		t.Errorf("error should name the missing column, got %v", err)
	}
	if len(emb.texts) != 0 {
		t.Error("no embedding should happen for a rejected file")
	}
}

func TestLoadCSV_RowErrorNamesLine(t *testing.T) {
	csvData := `control_id,framework,title,text
AC-1,nist,Access Control Policy,"The policy."
,iso,Broken Row,"Missing its id."
`
	emb := &fakeEmbedder{}
	svc := newTestService(emb, &fakeUpserter{})

	_, err := svc.LoadCSV(context.Background(), strings.NewReader(csvData))
	if err == nil {
		t.Fatal("expected error for row without control_id")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error should name the failing line, got %v", err)
	}
	if len(emb.texts) != 0 {
		t.Error("no embedding should happen for a rejected file")
	}
}

func TestLoadCSV_EmptyFile(t *testing.T) {
	repo := &fakeUpserter{}
	svc := newTestService(&fakeEmbedder{}, repo)

	n, err := svc.LoadCSV(context.Background(),
		strings.NewReader("control_id,framework,title,text\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("ingested %d entries, want 0", n)
	}
	if repo.batches != 0 {
		t.Error("no upsert should happen for an empty file")
	}
}

func TestLoadCSV_EmbeddingFailureAborts(t *testing.T) {
	repo := &fakeUpserter{}
	svc := newTestService(&fakeEmbedder{err: errors.New("quota exceeded")}, repo)

	_, err := svc.LoadCSV(context.Background(), strings.NewReader(validCSV))
	if err == nil {
		t.Fatal("expected embedding error")
	}
	if repo.batches != 0 {
		t.Error("nothing should be upserted after an embedding failure")
	}
}

func TestLoadCSV_BatchesUpserts(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("control_id,framework,title,text\n")
	for i := 0; i < defaultBatchSize+1; i++ {
		fmt.Fprintf(&sb, "C-%d,nist,Title,Some control text.\n", i)
	}

	repo := &fakeUpserter{}
	svc := newTestService(&fakeEmbedder{}, repo)

	n, err := svc.LoadCSV(context.Background(), strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if n != defaultBatchSize+1 {
		t.Fatalf("ingested %d entries, want %d", n, defaultBatchSize+1)
	}
	if repo.batches != 2 {
		t.Errorf("upsert batches = %d, want 2", repo.batches)
	}
}
