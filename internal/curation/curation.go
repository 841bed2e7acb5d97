package curation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/curator/internal/batch"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/schema"
	"github.com/lehigh-university-libraries/curator/internal/session"
	"github.com/lehigh-university-libraries/curator/internal/storage"
	"github.com/lehigh-university-libraries/curator/internal/validation"
)

// BatchReportType labels inconsistency reports written by batch runs.
const BatchReportType = "batch"

// Extractor produces a candidate record from document text.
type Extractor interface {
	Extract(ctx context.Context, text, fileName string) (models.Record, error)
}

// Input is one document to curate.
type Input struct {
	Name string `json:"file_name"`
	Text string `json:"text"`
}

// Outcome is the result of curating a single document.
type Outcome struct {
	RecordID   int64             `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	FileName   string            `json:"file_name" yaml:"file_name"`
	SchemaType schema.Type       `json:"schema_type" yaml:"schema_type"`
	Record     models.Record     `json:"metadata" yaml:"metadata"`
	Report     validation.Report `json:"validation" yaml:"validation"`
	Session    *session.Stats    `json:"session,omitempty" yaml:"session,omitempty"`
}

// Pipeline runs documents through the oracle and the validator and
// persists the results. A nil store skips persistence.
type Pipeline struct {
	extractor   Extractor
	store       *storage.Store
	concurrency int
}

func New(extractor Extractor, store *storage.Store, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		extractor:   extractor,
		store:       store,
		concurrency: concurrency,
	}
}

// Process extracts, validates and stores one document. Oracle failures are
// returned unchanged so callers can match them with errors.Is. sess may be
// nil.
func (p *Pipeline) Process(ctx context.Context, sess *session.Session, in Input, schemaType schema.Type) (Outcome, error) {
	s, err := schema.Get(schemaType)
	if err != nil {
		return Outcome{}, err
	}

	rec, err := p.extractor.Extract(ctx, in.Text, in.Name)
	if err != nil {
		return Outcome{}, err
	}

	return p.record(ctx, sess, in.Name, rec, s)
}

// Ingest validates and stores a record that was extracted elsewhere.
func (p *Pipeline) Ingest(ctx context.Context, sess *session.Session, name string, rec models.Record, schemaType schema.Type) (Outcome, error) {
	s, err := schema.Get(schemaType)
	if err != nil {
		return Outcome{}, err
	}
	return p.record(ctx, sess, name, validation.Annotate(rec), s)
}

func (p *Pipeline) record(ctx context.Context, sess *session.Session, name string, rec models.Record, s schema.Schema) (Outcome, error) {
	out := Outcome{
		FileName:   name,
		SchemaType: s.Type,
		Record:     rec,
		Report:     validation.Validate(rec, s),
	}

	if p.store != nil {
		id, err := p.store.SaveRecord(ctx, name, rec, s.Type)
		if err != nil {
			return out, fmt.Errorf("failed to save record: %w", err)
		}
		out.RecordID = id
		if _, err := p.store.SaveValidation(ctx, id, out.Report); err != nil {
			return out, fmt.Errorf("failed to save validation: %w", err)
		}
	}

	if sess != nil {
		sess.Observe(out.Report.CompletenessScore)
		stats := sess.Stats()
		out.Session = &stats
	}

	slog.Info("Curated record",
		"file", name,
		"record_id", out.RecordID,
		"schema", s.Type,
		"valid", out.Report.IsValid,
		"completeness", out.Report.CompletenessScore)
	return out, nil
}

// ProcessBatch curates inputs with bounded concurrency. Per-document
// failures are recorded in the matching result and do not stop the batch.
// Results keep input order. When a store is configured, an inconsistency
// report covering the stored records is saved.
func (p *Pipeline) ProcessBatch(ctx context.Context, sess *session.Session, inputs []Input, schemaType schema.Type) (*batch.Summary, error) {
	return p.run(ctx, len(inputs), schemaType, func(ctx context.Context, i int) (Outcome, error) {
		return p.Process(ctx, sess, inputs[i], schemaType)
	}, func(i int) string {
		return inputs[i].Name
	})
}

// IngestBatch is ProcessBatch for records that are already extracted.
func (p *Pipeline) IngestBatch(ctx context.Context, sess *session.Session, items []batch.Item, schemaType schema.Type) (*batch.Summary, error) {
	return p.run(ctx, len(items), schemaType, func(ctx context.Context, i int) (Outcome, error) {
		return p.Ingest(ctx, sess, items[i].Name, items[i].Record, schemaType)
	}, func(i int) string {
		return items[i].Name
	})
}

func (p *Pipeline) run(ctx context.Context, n int, schemaType schema.Type, work func(context.Context, int) (Outcome, error), name func(int) string) (*batch.Summary, error) {
	if _, err := schema.Get(schemaType); err != nil {
		return nil, err
	}

	results := make([]batch.Result, n)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			out, err := work(gCtx, i)
			results[i] = batch.Result{
				Name:           name(i),
				RecordID:       out.RecordID,
				Record:         out.Record,
				Report:         out.Report,
				ProcessingTime: time.Since(start),
			}
			if err != nil {
				slog.Warn("Batch item failed", "file", name(i), "error", err)
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := batch.Summarize(results, schemaType)

	if p.store != nil {
		var ids []int64
		for _, r := range results {
			if r.Error == "" && r.RecordID > 0 {
				ids = append(ids, r.RecordID)
			}
		}
		if len(ids) > 0 {
			if _, err := p.store.SaveInconsistencyReport(ctx, BatchReportType, sum.Inconsistencies, ids); err != nil {
				return sum, fmt.Errorf("failed to save inconsistency report: %w", err)
			}
		}
	}

	slog.Info("Batch complete",
		"total", sum.TotalRecords,
		"valid", sum.ValidCount,
		"invalid", sum.InvalidCount,
		"failed", sum.FailureCount)
	return sum, nil
}
