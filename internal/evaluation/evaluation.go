package evaluation

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/curator/internal/batch"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/schema"
	"github.com/lehigh-university-libraries/curator/internal/validation"
)

// Extractor produces a candidate record from document text.
type Extractor interface {
	Extract(ctx context.Context, text, fileName string) (models.Record, error)
}

// Result is the evaluation of one dataset item.
type Result struct {
	Name           string            `json:"file_name" yaml:"file_name"`
	Comparison     *Comparison       `json:"comparison,omitempty" yaml:"comparison,omitempty"`
	Validation     validation.Report `json:"validation" yaml:"validation"`
	Confidence     float64           `json:"confidence_score" yaml:"confidence_score"`
	ProcessingTime time.Duration     `json:"processing_time" yaml:"processing_time"`
	Error          string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Run extracts every item's text and compares the result with the item's
// reference record. Items without text are reported as failures. Results
// keep dataset order.
func Run(ctx context.Context, ex Extractor, items []batch.Item, s schema.Schema, concurrency int) ([]Result, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, item := range items {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = evaluate(gCtx, ex, item, s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func evaluate(ctx context.Context, ex Extractor, item batch.Item, s schema.Schema) Result {
	start := time.Now()
	result := Result{Name: item.Name}

	if item.Text == "" {
		result.Error = "no source text"
		return result
	}

	rec, err := ex.Extract(ctx, item.Text, item.Name)
	result.ProcessingTime = time.Since(start)
	if err != nil {
		slog.Warn("Evaluation extraction failed", "file", item.Name, "error", err)
		result.Error = err.Error()
		return result
	}

	cmp := Compare(item.Record.Section(s.Type), rec.Section(s.Type), s)
	result.Comparison = &cmp
	result.Validation = validation.Validate(rec, s)
	result.Confidence = rec.ConfidenceScore

	slog.Debug("Evaluated record", "file", item.Name, "score", cmp.OverallScore, "duration", result.ProcessingTime)
	return result
}

// FieldStats aggregates the comparisons of one field across a dataset.
type FieldStats struct {
	Field         string  `json:"field" yaml:"field"`
	ExactMatches  int     `json:"exact_matches" yaml:"exact_matches"`
	FuzzyMatches  int     `json:"fuzzy_matches" yaml:"fuzzy_matches"`
	NoMatches     int     `json:"no_matches" yaml:"no_matches"`
	MissingFields int     `json:"missing_fields" yaml:"missing_fields"`
	Unexpected    int     `json:"unexpected" yaml:"unexpected"`
	AverageScore  float64 `json:"average_score" yaml:"average_score"`

	scores []float64
}

// Summary aggregates evaluation results.
type Summary struct {
	SchemaType   schema.Type `json:"schema_type" yaml:"schema_type"`
	Provider     string      `json:"provider" yaml:"provider"`
	Model        string      `json:"model" yaml:"model"`
	TotalRecords int         `json:"total_records" yaml:"total_records"`
	SuccessCount int         `json:"success_count" yaml:"success_count"`
	FailureCount int         `json:"failure_count" yaml:"failure_count"`

	// Fields lists per-field statistics in schema order, for fields that
	// appeared in at least one comparison.
	Fields []FieldStats `json:"fields" yaml:"fields"`

	OverallAccuracy       float64       `json:"overall_accuracy" yaml:"overall_accuracy"`
	AverageCompleteness   float64       `json:"average_completeness" yaml:"average_completeness"`
	AverageConfidence     float64       `json:"average_confidence" yaml:"average_confidence"`
	AverageProcessingTime time.Duration `json:"average_processing_time" yaml:"average_processing_time"`
	TotalProcessingTime   time.Duration `json:"total_processing_time" yaml:"total_processing_time"`
	EvaluatedAt           time.Time     `json:"evaluated_at" yaml:"evaluated_at"`

	Results []Result `json:"results" yaml:"results"`
}

// Summarize aggregates results. Failed items count towards the total and
// the processing time only.
func Summarize(results []Result, s schema.Schema, provider, model string) *Summary {
	sum := &Summary{
		SchemaType:   s.Type,
		Provider:     provider,
		Model:        model,
		TotalRecords: len(results),
		Fields:       []FieldStats{},
		EvaluatedAt:  time.Now(),
		Results:      results,
	}

	stats := make(map[string]*FieldStats, s.Len())
	var (
		overall, completeness, confidence float64
		successDuration                   time.Duration
	)

	for _, r := range results {
		sum.TotalProcessingTime += r.ProcessingTime
		if r.Error != "" || r.Comparison == nil {
			sum.FailureCount++
			continue
		}
		sum.SuccessCount++
		successDuration += r.ProcessingTime
		overall += r.Comparison.OverallScore
		completeness += r.Validation.CompletenessScore
		confidence += r.Confidence

		for _, fc := range r.Comparison.Fields {
			fs, ok := stats[fc.Field]
			if !ok {
				fs = &FieldStats{Field: fc.Field}
				stats[fc.Field] = fs
			}
			aggregateFieldStats(fs, fc)
		}
	}

	if sum.SuccessCount > 0 {
		n := float64(sum.SuccessCount)
		sum.OverallAccuracy = overall / n
		sum.AverageCompleteness = completeness / n
		sum.AverageConfidence = confidence / n
		sum.AverageProcessingTime = successDuration / time.Duration(sum.SuccessCount)
	}

	for _, name := range s.Names() {
		fs, ok := stats[name]
		if !ok {
			continue
		}
		fs.AverageScore = calculateAverage(fs.scores)
		sum.Fields = append(sum.Fields, *fs)
	}
	return sum
}

func aggregateFieldStats(fs *FieldStats, fc FieldComparison) {
	switch fc.Match {
	case MatchExact:
		fs.ExactMatches++
	case MatchFuzzyHigh, MatchFuzzyMedium, MatchFuzzyLow:
		fs.FuzzyMatches++
	case MatchNone:
		fs.NoMatches++
	case MatchMissing:
		fs.MissingFields++
	case MatchUnexpected:
		fs.Unexpected++
		return
	}
	fs.scores = append(fs.scores, fc.Score)
}

func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, score := range scores {
		sum += score
	}
	return sum / float64(len(scores))
}
