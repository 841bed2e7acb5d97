package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/curator/internal/storage"
)

var historyHeader = []string{
	"id", "file_name", "schema_type", "confidence_score", "created_at",
	"is_valid", "completeness_score", "validation_status", "feedback",
}

// WriteHistory writes store history rows in format f.
func WriteHistory(w io.Writer, f Format, entries []storage.HistoryEntry) error {
	if ok, err := encoded(w, f, entries); ok {
		return err
	}

	if f == FormatCSV {
		return writeHistoryCSV(w, entries)
	}

	t := newTable(f)
	t.AppendHeader(table.Row{"ID", "File", "Schema", "Confidence", "Created", "Valid", "Completeness", "Review", "Feedback"})
	for _, e := range entries {
		valid, completeness := "-", "-"
		if e.IsValid != nil {
			valid = strconv.FormatBool(*e.IsValid)
		}
		if e.CompletenessScore != nil {
			completeness = percent(*e.CompletenessScore)
		}
		t.AppendRow(table.Row{
			e.RecordID,
			e.FileName,
			e.SchemaType,
			score(e.ConfidenceScore),
			e.CreatedAt.Format(time.DateTime),
			valid,
			completeness,
			string(e.ValidationStatus),
			truncate(e.Feedback, 40),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d rows", len(entries))})
	return render(w, t, f)
}

func writeHistoryCSV(w io.Writer, entries []storage.HistoryEntry) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(historyHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := HistoryRowFrom(e)
		if err := writer.Write([]string{
			strconv.FormatInt(row.ID, 10),
			row.FileName,
			row.SchemaType,
			strconv.FormatFloat(row.ConfidenceScore, 'f', -1, 64),
			row.CreatedAt,
			optionalBool(e.IsValid),
			optionalFloat(e.CompletenessScore),
			row.ValidationStatus,
			row.Feedback,
		}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// HistoryRow is the flat form of a history entry used for Parquet export.
type HistoryRow struct {
	ID                int64    `parquet:"id"`
	FileName          string   `parquet:"file_name"`
	SchemaType        string   `parquet:"schema_type"`
	ConfidenceScore   float64  `parquet:"confidence_score"`
	CreatedAt         string   `parquet:"created_at"`
	IsValid           *bool    `parquet:"is_valid,optional"`
	CompletenessScore *float64 `parquet:"completeness_score,optional"`
	ValidationStatus  string   `parquet:"validation_status"`
	Feedback          string   `parquet:"feedback"`
}

func HistoryRowFrom(e storage.HistoryEntry) HistoryRow {
	return HistoryRow{
		ID:                e.RecordID,
		FileName:          e.FileName,
		SchemaType:        string(e.SchemaType),
		ConfidenceScore:   e.ConfidenceScore,
		CreatedAt:         e.CreatedAt.UTC().Format(time.RFC3339),
		IsValid:           e.IsValid,
		CompletenessScore: e.CompletenessScore,
		ValidationStatus:  string(e.ValidationStatus),
		Feedback:          e.Feedback,
	}
}

// WriteHistoryParquet writes entries as a Parquet file.
func WriteHistoryParquet(w io.Writer, entries []storage.HistoryEntry) error {
	rows := make([]HistoryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, HistoryRowFrom(e))
	}

	writer := parquet.NewGenericWriter[HistoryRow](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write history rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

func optionalBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func optionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
