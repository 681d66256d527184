// Package vector adapts the db layer to the corpus vector index used by the
// search pipeline and the ingestion tooling.
package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/crosslink/internal/db"
	"github.com/kailas-cloud/crosslink/internal/domain"
)

// vectorField is the hash field holding the packed float32 embedding.
const vectorField = "__vector"

// store is the consumer interface for corpus operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	IndexStats(ctx context.Context, name string) (db.IndexStats, error)
}

// Document is one corpus entry to upsert.
type Document struct {
	ID     string
	Vector []float32
	Fields map[string]string
}

// HNSWConfig tunes the vector index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo provides query and admin access to the single corpus index.
type Repo struct {
	store        store
	keyPrefix    string
	returnFields []string
	hnsw         HNSWConfig
}

// New creates a corpus repository. keyPrefix namespaces all keys (e.g.
// "crosslink:corpus:"); returnFields lists the metadata fields fetched per
// search hit.
func New(s store, keyPrefix string, returnFields []string) *Repo {
	fields := make([]string, 0, len(returnFields)+1)
	fields = append(fields, returnFields...)
	fields = append(fields, "__vector_score")
	return &Repo{store: s, keyPrefix: keyPrefix, returnFields: fields}
}

// WithHNSW overrides the HNSW build parameters for EnsureIndex.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// IndexName returns the FT index name for the corpus.
func (r *Repo) IndexName() string {
	return r.keyPrefix + "idx"
}

// Query runs a KNN search, optionally excluding documents whose tag field
// equals excludeValue. Results are ordered by descending similarity.
func (r *Repo) Query(
	ctx context.Context, vector []float32, topK int, excludeField, excludeValue string,
) ([]domain.Candidate, error) {
	q := &db.KNNQuery{
		IndexName:    r.IndexName(),
		Vector:       vector,
		K:            topK,
		ExcludeField: excludeField,
		ExcludeValue: excludeValue,
		ReturnFields: r.returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: search knn: %w", domain.ErrRetrieval, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	candidates := make([]domain.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		candidates = append(candidates, domain.Candidate{
			ID:          strings.TrimPrefix(entry.Key, r.keyPrefix),
			VectorScore: entry.Score,
			Metadata:    entry.Fields,
		})
	}
	return candidates, nil
}

// Upsert writes documents and their embeddings as hashes under the corpus
// key prefix in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("document id is required")
		}
		fields := make(map[string]string, len(doc.Fields)+1)
		for k, v := range doc.Fields {
			fields[k] = v
		}
		fields[vectorField] = packVector(doc.Vector)
		items = append(items, db.HashSetItem{Key: r.keyPrefix + doc.ID, Fields: fields})
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d documents: %w", len(docs), err)
	}
	return nil
}

// Delete removes one corpus entry.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	if err := r.store.Del(ctx, r.keyPrefix+id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// EnsureIndex creates the corpus HNSW index if it does not exist yet.
// tagFields become TAG fields; textFields become TEXT fields.
func (r *Repo) EnsureIndex(
	ctx context.Context, dim int, metric db.DistanceMetric, tagFields, textFields []string,
) error {
	exists, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return err
	}
	if exists {
		return db.ErrIndexExists
	}

	fields := make([]db.IndexField, 0, len(tagFields)+len(textFields)+1)
	for _, name := range tagFields {
		fields = append(fields, db.IndexField{Name: name, Type: db.IndexFieldTag})
	}
	for _, name := range textFields {
		fields = append(fields, db.IndexField{Name: name, Type: db.IndexFieldText})
	}
	fields = append(fields, db.IndexField{
		Name:              vectorField,
		Alias:             "vector",
		Type:              db.IndexFieldVector,
		VectorDim:         dim,
		VectorDistance:    metric,
		VectorM:           r.hnsw.M,
		VectorEFConstruct: r.hnsw.EFConstruct,
	})

	def := &db.IndexDefinition{
		Name:     r.IndexName(),
		Prefixes: []string{r.keyPrefix},
		Fields:   fields,
	}
	return r.store.CreateIndex(ctx, def)
}

// DropIndex removes the corpus index.
func (r *Repo) DropIndex(ctx context.Context) error {
	return r.store.DropIndex(ctx, r.IndexName())
}

// Stats returns administrative index statistics.
func (r *Repo) Stats(ctx context.Context) (db.IndexStats, error) {
	return r.store.IndexStats(ctx, r.IndexName())
}

func packVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
