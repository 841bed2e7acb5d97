package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/curator/internal/batch"
	"github.com/lehigh-university-libraries/curator/internal/inconsistency"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/quality"
	"github.com/lehigh-university-libraries/curator/internal/schema"
	"github.com/lehigh-university-libraries/curator/internal/storage"
	"github.com/lehigh-university-libraries/curator/internal/validation"
)

func sampleHistory() []storage.HistoryEntry {
	valid := false
	completeness := 0.4
	return []storage.HistoryEntry{
		{
			RecordID:        2,
			FileName:        "newer.txt",
			SchemaType:      schema.ISADG,
			ConfidenceScore: 0.9,
			CreatedAt:       time.Date(2024, 3, 1, 9, 0, 2, 0, time.UTC),
		},
		{
			RecordID:          1,
			FileName:          "older.txt",
			SchemaType:        schema.DublinCore,
			ConfidenceScore:   0.5,
			CreatedAt:         time.Date(2024, 3, 1, 9, 0, 1, 0, time.UTC),
			IsValid:           &valid,
			CompletenessScore: &completeness,
			ValidationStatus:  models.StatusNeedsRevision,
			Feedback:          "Date, creator",
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"text", FormatTable, false},
		{"md", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"csv", FormatCSV, false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteHistoryCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistory(&buf, FormatCSV, sampleHistory()); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}

	want := "id,file_name,schema_type,confidence_score,created_at,is_valid,completeness_score,validation_status,feedback\n" +
		"2,newer.txt,isad_g,0.9,2024-03-01T09:00:02Z,,,,\n" +
		"1,older.txt,dublin_core,0.5,2024-03-01T09:00:01Z,false,0.4,needs_revision,\"Date, creator\"\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteHistoryJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistory(&buf, FormatJSON, sampleHistory()); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 2 || got[1]["validation_status"] != "needs_revision" {
		t.Errorf("Unexpected JSON %v", got)
	}
	if _, ok := got[0]["is_valid"]; ok {
		t.Error("Expected is_valid to be omitted for an unvalidated record")
	}
}

func TestWriteHistoryTable(t *testing.T) {
	for _, f := range []Format{FormatTable, FormatMarkdown} {
		var buf bytes.Buffer
		if err := WriteHistory(&buf, f, sampleHistory()); err != nil {
			t.Fatalf("WriteHistory(%s): %v", f, err)
		}
		out := strings.ToLower(buf.String())
		for _, want := range []string{"older.txt", "needs_revision", "40.0%", "2 rows"} {
			if !strings.Contains(out, want) {
				t.Errorf("%s output missing %q:\n%s", f, want, out)
			}
		}
	}
}

func TestWriteHistoryParquet(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistoryParquet(&buf, sampleHistory()); err != nil {
		t.Fatalf("WriteHistoryParquet: %v", err)
	}

	rows, err := parquet.Read[HistoryRow](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("parquet.Read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].IsValid != nil || rows[0].CompletenessScore != nil {
		t.Errorf("Expected null validation columns, got %+v", rows[0])
	}
	if rows[1].FileName != "older.txt" || rows[1].CompletenessScore == nil || *rows[1].CompletenessScore != 0.4 {
		t.Errorf("Unexpected second row %+v", rows[1])
	}
}

func TestWriteStatistics(t *testing.T) {
	stats := storage.Statistics{
		TotalRecords:           3,
		AverageConfidence:      0.6,
		AverageCompleteness:    0.333,
		SchemaDistribution:     map[string]int{"isad_g": 1, "dublin_core": 2},
		ValidationDistribution: map[string]int{"approved": 2},
	}

	var buf bytes.Buffer
	if err := WriteStatistics(&buf, FormatCSV, stats); err != nil {
		t.Fatalf("WriteStatistics: %v", err)
	}
	want := "metric,value\n" +
		"total_records,3\n" +
		"average_confidence,0.600\n" +
		"average_completeness,0.333\n" +
		"schema.dublin_core,2\n" +
		"schema.isad_g,1\n" +
		"review.approved,2\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := WriteStatistics(&buf, FormatYAML, stats); err != nil {
		t.Fatalf("WriteStatistics: %v", err)
	}
	var decoded storage.Statistics
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if diff := cmp.Diff(stats, decoded); diff != "" {
		t.Errorf("YAML mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteValidation(t *testing.T) {
	r := validation.Validate(models.Record{DublinCore: models.Section{
		"title":    "Surat",
		"date":     "someday",
		"language": "xx",
	}}, schema.MustGet(schema.DublinCore))

	var buf bytes.Buffer
	if err := WriteValidation(&buf, FormatTable, r); err != nil {
		t.Fatalf("WriteValidation: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Dublin Core", "invalid", "Field rights is required but empty", "Invalid fields:", "date: Date format not recognized", "Recommendations:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteValidation(&buf, FormatCSV, r); err != nil {
		t.Fatalf("WriteValidation: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 16 {
		t.Errorf("Expected header plus 15 field rows, got %d", len(lines))
	}
	if lines[1] != "title,valid," {
		t.Errorf("Unexpected first row %q", lines[1])
	}
}

func TestWriteInconsistencies(t *testing.T) {
	records := []models.Record{
		{DublinCore: models.Section{"date": "2023-01-01", "creator": "ANRI"}},
		{DublinCore: models.Section{"date": "2023", "creator": "ANRI"}},
	}
	r := inconsistency.Detect(records)
	c := quality.CheckConsistency(records)

	var buf bytes.Buffer
	if err := WriteInconsistencies(&buf, FormatCSV, r, c); err != nil {
		t.Fatalf("WriteInconsistencies: %v", err)
	}
	want := "category,finding\n" +
		"date_format_issues,\"Found 2 different date formats (ISO, YYYY)\"\n" +
		"naming_inconsistencies,Found creator name variants that may refer to the same entity\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := WriteInconsistencies(&buf, FormatTable, inconsistency.Detect(nil), quality.CheckConsistency(nil)); err != nil {
		t.Fatalf("WriteInconsistencies: %v", err)
	}
	if !strings.Contains(buf.String(), "No inconsistencies found.") {
		t.Errorf("Expected empty report message, got:\n%s", buf.String())
	}
}

func TestWriteSummary(t *testing.T) {
	items := []batch.Item{
		{Name: "a.json", Record: models.Record{DublinCore: models.Section{"title": "A", "date": "2020"}}},
		{Name: "b.json", Record: models.EmptyRecord()},
	}
	sum := batch.Summarize(batch.Validate(items, schema.MustGet(schema.DublinCore)), schema.DublinCore)

	var buf bytes.Buffer
	if err := WriteSummary(&buf, FormatMarkdown, sum); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"a.json", "b.json", "| Records | 2 |", "| creator | 2 |"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteSummary(&buf, FormatCSV, sum); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 3 {
		t.Errorf("Expected header plus 2 rows, got %d", len(lines))
	}
}
