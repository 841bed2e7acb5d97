package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/curator/internal/models"
)

// Row is the Parquet layout of a record. Sections are stored as JSON text so
// that the schema stays flat.
type Row struct {
	FileName        string  `parquet:"file_name"`
	Text            string  `parquet:"text"`
	DublinCore      string  `parquet:"dublin_core"`
	ISADG           string  `parquet:"isad_g"`
	ConfidenceScore float64 `parquet:"confidence_score"`
	Suggestions     string  `parquet:"suggestions"`
}

// NewRow flattens a record into a Row.
func NewRow(name string, rec models.Record) (Row, error) {
	row := Row{FileName: name, ConfidenceScore: rec.ConfidenceScore}
	for _, f := range []struct {
		dst *string
		v   any
	}{
		{&row.DublinCore, orEmptySection(rec.DublinCore)},
		{&row.ISADG, orEmptySection(rec.ISADG)},
		{&row.Suggestions, orEmptyList(rec.Suggestions)},
	} {
		b, err := json.Marshal(f.v)
		if err != nil {
			return Row{}, err
		}
		*f.dst = string(b)
	}
	return row, nil
}

// Item rebuilds the record held in r.
func (r Row) Item() Item {
	doc := map[string]json.RawMessage{
		"confidence_score": json.RawMessage(fmt.Sprintf("%g", r.ConfidenceScore)),
	}
	if r.DublinCore != "" {
		doc["dublin_core"] = json.RawMessage(r.DublinCore)
	}
	if r.ISADG != "" {
		doc["isad_g"] = json.RawMessage(r.ISADG)
	}
	if r.Suggestions != "" {
		doc["suggestions"] = json.RawMessage(r.Suggestions)
	}

	item := Item{Name: r.FileName, Record: models.EmptyRecord()}
	raw, err := json.Marshal(doc)
	if err != nil {
		slog.Warn("Substituting empty record for malformed Parquet row", "name", r.FileName, "error", err)
		return item
	}
	item = decodeItem(raw, r.FileName)
	item.Text = r.Text
	return item
}

func (l *Loader) loadParquet(limit int) ([]Item, error) {
	slog.Debug("Opening Parquet file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	var items []Item
	rows := make([]Row, 128)
	for limit <= 0 || len(items) < limit {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			items = append(items, row.Item())
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_records", len(items))
	return items, nil
}

// WriteParquet writes items to w in the Row layout.
func WriteParquet(w io.Writer, items []Item) error {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		row, err := NewRow(item.Name, item.Record)
		if err != nil {
			return fmt.Errorf("failed to flatten %s: %w", item.Name, err)
		}
		row.Text = item.Text
		rows = append(rows, row)
	}

	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

func orEmptySection(s models.Section) models.Section {
	if s == nil {
		return models.Section{}
	}
	return s
}

func orEmptyList(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
