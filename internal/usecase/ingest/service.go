// Package ingest loads corpus entries from CSV files into the vector store:
// schema validation, text normalization, bounded concurrent embedding, and
// pipelined upserts.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/crosslink/internal/domain"
	"github.com/kailas-cloud/crosslink/internal/repository/vector"
	"github.com/kailas-cloud/crosslink/internal/schema"
)

const (
	defaultEmbedConcurrency = 8
	defaultBatchSize        = 64
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Upserter writes documents into the vector store.
type Upserter interface {
	Upsert(ctx context.Context, docs []vector.Document) error
}

// Service ingests corpus CSV files.
type Service struct {
	embed       Embedder
	repo        Upserter
	schema      domain.Schema
	concurrency int
	batchSize   int
	logger      *zap.Logger
}

// New creates an ingestion service.
func New(embed Embedder, repo Upserter, sch domain.Schema, logger *zap.Logger) *Service {
	return &Service{
		embed:       embed,
		repo:        repo,
		schema:      sch,
		concurrency: defaultEmbedConcurrency,
		batchSize:   defaultBatchSize,
		logger:      logger,
	}
}

// WithConcurrency bounds the number of parallel embedding calls.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// LoadCSV reads corpus entries from r, embeds their normalized text, and
// upserts them. The header row must contain every column the schema expects;
// column order is free. Returns the number of ingested entries.
func (s *Service) LoadCSV(ctx context.Context, r io.Reader) (int, error) {
	entries, err := ParseCSV(r, s.schema)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	docs := make([]vector.Document, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			res, err := s.embed.Embed(gctx, entry.NormalizedText)
			if err != nil {
				return fmt.Errorf("embed entry %q: %w", entry.ID, err)
			}

			fields := make(map[string]string, len(entry.Fields)+2)
			for k, v := range entry.Fields {
				fields[k] = v
			}
			fields[schema.FieldText] = entry.Text
			fields[schema.FieldNormalizedText] = entry.NormalizedText

			docs[i] = vector.Document{
				ID:     entry.ID,
				Vector: res.Embedding,
				Fields: fields,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for start := 0; start < len(docs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := s.repo.Upsert(ctx, docs[start:end]); err != nil {
			return 0, fmt.Errorf("upsert batch starting at %d: %w", start, err)
		}
	}

	s.logger.Info("corpus loaded", zap.Int("entries", len(docs)))
	return len(docs), nil
}

// ParseCSV reads and validates all corpus rows up front, so a malformed file
// is rejected before any embedding spend. The header row must contain every
// column sch expects; column order is free.
func ParseCSV(r io.Reader, sch domain.Schema) ([]domain.Processed, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	for _, required := range sch.CSVHeaderFields() {
		if _, ok := colIdx[required]; !ok {
			return nil, fmt.Errorf("csv header missing required column %q", required)
		}
	}

	var entries []domain.Processed
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line+1, err)
		}
		line++

		raw := make(map[string]string, len(colIdx))
		for name, idx := range colIdx {
			if idx < len(record) {
				raw[name] = record[idx]
			}
		}
		entry, err := sch.Process(raw)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
