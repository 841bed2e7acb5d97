package batch

import (
	"sort"
	"time"

	"github.com/lehigh-university-libraries/curator/internal/inconsistency"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/quality"
	"github.com/lehigh-university-libraries/curator/internal/schema"
	"github.com/lehigh-university-libraries/curator/internal/validation"
)

// Result is the outcome of curating one item.
type Result struct {
	Name           string            `json:"file_name" yaml:"file_name"`
	RecordID       int64             `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Record         models.Record     `json:"metadata" yaml:"-"`
	Report         validation.Report `json:"validation" yaml:"validation"`
	ProcessingTime time.Duration     `json:"processing_time" yaml:"processing_time"`
	Error          string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Validate checks every item against s without calling the oracle.
func Validate(items []Item, s schema.Schema) []Result {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		start := time.Now()
		rec := validation.Annotate(item.Record)
		results = append(results, Result{
			Name:           item.Name,
			Record:         rec,
			Report:         validation.Validate(rec, s),
			ProcessingTime: time.Since(start),
		})
	}
	return results
}

// FieldCount is how often one field was missing across a batch.
type FieldCount struct {
	Field string `json:"field" yaml:"field"`
	Count int    `json:"count" yaml:"count"`
}

// Summary aggregates the results of a batch.
type Summary struct {
	SchemaType   schema.Type `json:"schema_type" yaml:"schema_type"`
	TotalRecords int         `json:"total_records" yaml:"total_records"`
	ValidCount   int         `json:"valid_count" yaml:"valid_count"`
	InvalidCount int         `json:"invalid_count" yaml:"invalid_count"`
	FailureCount int         `json:"failure_count" yaml:"failure_count"`

	AverageCompleteness float64 `json:"average_completeness" yaml:"average_completeness"`
	AverageConfidence   float64 `json:"average_confidence" yaml:"average_confidence"`
	AverageRichness     float64 `json:"average_richness" yaml:"average_richness"`

	// MissingFields is sorted by descending count, then field name.
	MissingFields []FieldCount `json:"missing_fields" yaml:"missing_fields"`
	InvalidFields int          `json:"invalid_fields" yaml:"invalid_fields"`
	Warnings      int          `json:"warnings" yaml:"warnings"`

	Consistency     quality.Consistency  `json:"consistency" yaml:"consistency"`
	Inconsistencies inconsistency.Report `json:"inconsistencies" yaml:"inconsistencies"`

	AverageProcessingTime time.Duration `json:"average_processing_time" yaml:"average_processing_time"`
	TotalProcessingTime   time.Duration `json:"total_processing_time" yaml:"total_processing_time"`
	GeneratedAt           time.Time     `json:"generated_at" yaml:"generated_at"`

	Results []Result `json:"results" yaml:"results"`
}

// Summarize aggregates results. Failed items count towards the total and
// the processing time only.
func Summarize(results []Result, schemaType schema.Type) *Summary {
	sum := &Summary{
		SchemaType:    schemaType,
		TotalRecords:  len(results),
		MissingFields: []FieldCount{},
		GeneratedAt:   time.Now(),
		Results:       results,
	}

	missing := map[string]int{}
	var (
		records         []models.Record
		successDuration time.Duration
		completeness    float64
		confidence      float64
		richness        float64
	)

	for _, r := range results {
		sum.TotalProcessingTime += r.ProcessingTime
		if r.Error != "" {
			sum.FailureCount++
			continue
		}
		successDuration += r.ProcessingTime
		records = append(records, r.Record)

		if r.Report.IsValid {
			sum.ValidCount++
		} else {
			sum.InvalidCount++
		}
		for _, f := range r.Report.MissingFields {
			missing[f]++
		}
		sum.InvalidFields += len(r.Report.InvalidFields)
		sum.Warnings += len(r.Report.Warnings)

		completeness += r.Report.CompletenessScore
		confidence += r.Record.ConfidenceScore
		if r.Record.QualityMetrics != nil {
			richness += r.Record.QualityMetrics.RichnessScore
		} else {
			richness += quality.Richness(r.Record.DublinCore)
		}
	}

	if n := len(records); n > 0 {
		sum.AverageCompleteness = completeness / float64(n)
		sum.AverageConfidence = confidence / float64(n)
		sum.AverageRichness = richness / float64(n)
		sum.AverageProcessingTime = successDuration / time.Duration(n)
	}

	for f, c := range missing {
		sum.MissingFields = append(sum.MissingFields, FieldCount{Field: f, Count: c})
	}
	sort.Slice(sum.MissingFields, func(i, j int) bool {
		a, b := sum.MissingFields[i], sum.MissingFields[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Field < b.Field
	})

	sum.Consistency = quality.CheckConsistency(records)
	sum.Inconsistencies = inconsistency.Detect(records)
	return sum
}
