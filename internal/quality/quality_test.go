package quality

import (
	"math"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/schema"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCompleteness(t *testing.T) {
	dc := schema.MustGet(schema.DublinCore)

	tests := []struct {
		name    string
		section models.Section
		want    float64
	}{
		{"nil section", nil, 0},
		{"blank values do not count", models.Section{"title": "  ", "creator": "\t"}, 0},
		{"three of fifteen", models.Section{"title": "A", "creator": "B", "date": "2023"}, 3.0 / 15.0},
		{"unknown fields are ignored", models.Section{"title": "A", "shelfmark": "X"}, 1.0 / 15.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Completeness(tt.section, dc)
			if !almostEqual(got, tt.want) {
				t.Errorf("Completeness = %f, want %f", got, tt.want)
			}
		})
	}

	full := models.Section{}
	for _, name := range dc.Names() {
		full[name] = "value"
	}
	if got := Completeness(full, dc); got != 1.0 {
		t.Errorf("Expected full section to score 1.0, got %f", got)
	}
}

func TestCompletenessEmptySchema(t *testing.T) {
	got := Completeness(models.Section{"title": "A"}, schema.Schema{})
	if got != 0.0 {
		t.Errorf("Expected 0.0 for an empty schema, got %f", got)
	}
}

func TestRichness(t *testing.T) {
	tests := []struct {
		name string
		dc   models.Section
		want float64
	}{
		{
			name: "long description and all optional fields",
			dc: models.Section{
				"description": strings.Repeat("a", 250),
				"subject":     "Finance",
				"coverage":    "Jakarta",
				"relation":    "Annual report 2022",
				"rights":      "Public",
			},
			want: 1.0,
		},
		{
			name: "empty",
			dc:   models.Section{},
			want: 0.0,
		},
		{
			name: "medium description and two optional fields",
			dc: models.Section{
				"description": strings.Repeat("a", 120),
				"subject":     "Finance",
				"rights":      "Public",
			},
			want: 0.2 + 0.35,
		},
		{
			name: "short description only",
			dc:   models.Section{"description": strings.Repeat("a", 51)},
			want: 0.1,
		},
		{
			name: "description at tier boundary",
			dc:   models.Section{"description": strings.Repeat("a", 200)},
			want: 0.2,
		},
		{
			name: "multi-byte description counts characters",
			dc:   models.Section{"description": strings.Repeat("档", 60)},
			want: 0.1,
		},
		{
			name: "accented description below first tier",
			dc:   models.Section{"description": strings.Repeat("é", 50)},
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Richness(tt.dc)
			if !almostEqual(got, tt.want) {
				t.Errorf("Richness = %f, want %f", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("Richness %f out of range", got)
			}
		})
	}
}

func TestRichnessFullScoreIsExact(t *testing.T) {
	dc := models.Section{
		"description": strings.Repeat("x", 250),
		"subject":     "a",
		"coverage":    "b",
		"relation":    "c",
		"rights":      "d",
	}
	if got := Richness(dc); got != 1.0 {
		t.Errorf("Expected exactly 1.0, got %v", got)
	}
}

func record(date, language string) models.Record {
	return models.Record{DublinCore: models.Section{"date": date, "language": language}}
}

func TestCheckConsistency(t *testing.T) {
	tests := []struct {
		name    string
		records []models.Record
		want    Consistency
	}{
		{
			name:    "empty batch",
			records: nil,
			want:    Consistency{Overall: 1.0},
		},
		{
			name:    "single record",
			records: []models.Record{record("2023", "xx")},
			want:    Consistency{Overall: 1.0},
		},
		{
			name:    "uniform",
			records: []models.Record{record("2023-01-01", "id"), record("2024-05-06", "ID")},
			want:    Consistency{DateFormat: 1.0, Language: 1.0, Overall: 1.0},
		},
		{
			name:    "mixed dates",
			records: []models.Record{record("2023-01-01", "en"), record("2024", "en")},
			want:    Consistency{DateFormat: 0.5, Language: 1.0, Overall: 0.75},
		},
		{
			name:    "mixed dates and languages",
			records: []models.Record{record("2023-01-01", "en"), record("31/12/2023", "id")},
			want:    Consistency{DateFormat: 0.5, Language: 0.7, Overall: 0.6},
		},
		{
			name:    "blank values are skipped",
			records: []models.Record{record("", ""), record("2023", "en")},
			want:    Consistency{DateFormat: 1.0, Language: 1.0, Overall: 1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckConsistency(tt.records)
			if !almostEqual(got.DateFormat, tt.want.DateFormat) ||
				!almostEqual(got.Language, tt.want.Language) ||
				!almostEqual(got.Overall, tt.want.Overall) {
				t.Errorf("CheckConsistency = %+v, want %+v", got, tt.want)
			}
		})
	}
}
