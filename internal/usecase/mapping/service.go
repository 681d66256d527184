// Package mapping exports cross-category relationships for a whole corpus:
// every entry is searched against the index and each qualifying match becomes
// one CSV row.
package mapping

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/kailas-cloud/crosslink/internal/domain"
	"github.com/kailas-cloud/crosslink/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/crosslink/internal/usecase/search"
)

// Searcher runs one hybrid search.
type Searcher interface {
	Search(ctx context.Context, req searchuc.Request) (*searchuc.Response, error)
}

// Service maps a corpus file to its cross-category relationships.
type Service struct {
	search Searcher
	schema domain.Schema
	logger *zap.Logger
}

// New creates a mapping service.
func New(search Searcher, sch domain.Schema, logger *zap.Logger) *Service {
	return &Service{search: search, schema: sch, logger: logger}
}

// MapCSV reads a corpus CSV from r, searches the index for each entry, and
// writes one relationship row per qualifying match to w. A failed search or
// an unprocessable match is logged and skipped; the batch continues. Returns
// the number of relationship rows written.
func (s *Service) MapCSV(ctx context.Context, r io.Reader, w io.Writer) (int, error) {
	entries, err := ingest.ParseCSV(r, s.schema)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(s.schema.CSVOutputHeader()); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	rows := 0
	for _, src := range entries {
		if err := ctx.Err(); err != nil {
			return rows, err
		}

		resp, err := s.search.Search(ctx, searchuc.Request{Query: src.Text})
		if err != nil {
			s.logger.Warn("skipping entry, search failed",
				zap.String("id", src.ID), zap.Error(err))
			continue
		}

		for _, m := range resp.Matches {
			target, err := s.schema.Process(m.Metadata)
			if err != nil {
				s.logger.Warn("skipping match with invalid metadata",
					zap.String("source", src.ID), zap.Error(err))
				continue
			}
			if err := cw.Write(s.schema.FormatCSVRow(src, target, m.Rank, m.Scores)); err != nil {
				return rows, fmt.Errorf("write csv row: %w", err)
			}
			rows++
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush csv: %w", err)
	}

	s.logger.Info("mapping exported",
		zap.Int("entries", len(entries)), zap.Int("relationships", rows))
	return rows, nil
}
