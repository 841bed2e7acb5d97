package evaluation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/lehigh-university-libraries/curator/internal/batch"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/schema"
)

type fakeExtractor struct {
	records map[string]models.Record
}

func (f fakeExtractor) Extract(ctx context.Context, text, fileName string) (models.Record, error) {
	rec, ok := f.records[fileName]
	if !ok {
		return models.EmptyRecord(), errors.New("oracle unavailable")
	}
	return rec, nil
}

func dataset() ([]batch.Item, fakeExtractor) {
	items := []batch.Item{
		{Name: "a.txt", Text: "Surat A", Record: models.Record{DublinCore: models.Section{"title": "Surat A", "date": "2023"}}},
		{Name: "b.txt", Text: "Surat B", Record: models.Record{DublinCore: models.Section{"title": "Surat B", "creator": "Budi Santoso"}}},
		{Name: "c.txt", Text: "Surat C", Record: models.Record{DublinCore: models.Section{"title": "Surat C"}}},
		{Name: "d.txt", Record: models.Record{DublinCore: models.Section{"title": "Surat D"}}},
	}
	ex := fakeExtractor{records: map[string]models.Record{
		"a.txt": {DublinCore: models.Section{"title": "Surat A", "date": "2023"}, ConfidenceScore: 0.9},
		"b.txt": {DublinCore: models.Section{"title": "Surat B", "language": "id"}, ConfidenceScore: 0.5},
	}}
	return items, ex
}

func TestRun(t *testing.T) {
	items, ex := dataset()
	s := schema.MustGet(schema.DublinCore)

	results, err := Run(context.Background(), ex, items, s, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Name != items[i].Name {
			t.Errorf("Result %d is %s, want %s", i, r.Name, items[i].Name)
		}
	}

	if r := results[0]; r.Error != "" || r.Comparison == nil || r.Comparison.OverallScore != 1.0 {
		t.Errorf("Expected a perfect first result, got %+v", r)
	}
	if r := results[1]; r.Comparison == nil || r.Comparison.FieldsMissing != 1 || r.Comparison.FieldsUnexpected != 1 {
		t.Errorf("Unexpected second comparison %+v", r.Comparison)
	}
	if results[2].Error != "oracle unavailable" {
		t.Errorf("Expected extraction error, got %q", results[2].Error)
	}
	if results[3].Error != "no source text" {
		t.Errorf("Expected missing text error, got %q", results[3].Error)
	}
}

func TestRunCancelled(t *testing.T) {
	items, ex := dataset()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Run(ctx, ex, items, schema.MustGet(schema.DublinCore), 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	items, ex := dataset()
	s := schema.MustGet(schema.DublinCore)
	results, err := Run(context.Background(), ex, items, s, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	sum := Summarize(results, s, "ollama", "test-model")

	if sum.TotalRecords != 4 || sum.SuccessCount != 2 || sum.FailureCount != 2 {
		t.Errorf("Unexpected counts %+v", sum)
	}
	if sum.Provider != "ollama" || sum.Model != "test-model" || sum.SchemaType != schema.DublinCore {
		t.Errorf("Unexpected run details %+v", sum)
	}
	if math.Abs(sum.AverageConfidence-0.7) > 1e-9 {
		t.Errorf("Expected average confidence 0.7, got %f", sum.AverageConfidence)
	}
	wantAccuracy := (1.0 + 0.5) / 2
	if sum.OverallAccuracy != wantAccuracy {
		t.Errorf("Expected accuracy %f, got %f", wantAccuracy, sum.OverallAccuracy)
	}

	names := make([]string, 0, len(sum.Fields))
	for _, fs := range sum.Fields {
		names = append(names, fs.Field)
	}
	want := []string{"title", "creator", "date", "language"}
	if len(names) != len(want) {
		t.Fatalf("Expected fields %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Expected fields %v, got %v", want, names)
		}
	}

	title := sum.Fields[0]
	if title.ExactMatches != 2 || title.AverageScore != 1.0 {
		t.Errorf("Unexpected title stats %+v", title)
	}
	if creator := sum.Fields[1]; creator.MissingFields != 1 || creator.AverageScore != 0 {
		t.Errorf("Unexpected creator stats %+v", creator)
	}
	if lang := sum.Fields[3]; lang.Unexpected != 1 || lang.AverageScore != 0 {
		t.Errorf("Unexpected language stats %+v", lang)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil, schema.MustGet(schema.ISADG), "", "")
	if sum.TotalRecords != 0 || sum.OverallAccuracy != 0 || len(sum.Fields) != 0 {
		t.Errorf("Expected empty summary, got %+v", sum)
	}
}
