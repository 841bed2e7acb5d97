package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/lehigh-university-libraries/curator/internal/evaluation"
)

// WriteEvaluation writes an evaluation run: headline metrics, per-field
// accuracy and per-record scores. CSV output has one row per record.
func WriteEvaluation(w io.Writer, f Format, sum *evaluation.Summary) error {
	if ok, err := encoded(w, f, sum); ok {
		return err
	}

	if f == FormatCSV {
		writer := csv.NewWriter(w)
		if err := writer.Write([]string{"file_name", "overall_score", "fields_matched", "fields_missing", "fields_incorrect", "fields_unexpected", "processing_ms", "error"}); err != nil {
			return err
		}
		for _, r := range sum.Results {
			row := []string{r.Name, "", "", "", "", "", strconv.FormatInt(r.ProcessingTime.Milliseconds(), 10), r.Error}
			if c := r.Comparison; c != nil {
				row[1] = score(c.OverallScore)
				row[2] = strconv.Itoa(c.FieldsMatched)
				row[3] = strconv.Itoa(c.FieldsMissing)
				row[4] = strconv.Itoa(c.FieldsIncorrect)
				row[5] = strconv.Itoa(c.FieldsUnexpected)
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	}

	overview := newTable(f)
	overview.SetTitle(fmt.Sprintf("Evaluation: %s with %s", sum.Provider, sum.Model))
	overview.AppendHeader(table.Row{"Metric", "Value"})
	overview.AppendRows([]table.Row{
		{"Schema", sum.SchemaType},
		{"Records", sum.TotalRecords},
		{"Succeeded", sum.SuccessCount},
		{"Failed", sum.FailureCount},
		{"Overall accuracy", percent(sum.OverallAccuracy)},
		{"Average completeness", percent(sum.AverageCompleteness)},
		{"Average confidence", score(sum.AverageConfidence)},
		{"Average processing time", sum.AverageProcessingTime.Round(time.Millisecond).String()},
	})
	if err := render(w, overview, f); err != nil {
		return err
	}

	if len(sum.Fields) > 0 {
		fields := newTable(f)
		fields.SetTitle("Field accuracy")
		fields.AppendHeader(table.Row{"Field", "Exact", "Fuzzy", "No match", "Missing", "Unexpected", "Average"})
		for _, fs := range sum.Fields {
			fields.AppendRow(table.Row{fs.Field, fs.ExactMatches, fs.FuzzyMatches, fs.NoMatches, fs.MissingFields, fs.Unexpected, score(fs.AverageScore)})
		}
		if err := render(w, fields, f); err != nil {
			return err
		}
	}

	records := newTable(f)
	records.SetTitle("Records")
	records.AppendHeader(table.Row{"File", "Score", "Matched", "Missing", "Incorrect", "Error"})
	for _, r := range sum.Results {
		if r.Comparison == nil {
			records.AppendRow(table.Row{r.Name, "-", "-", "-", "-", truncate(r.Error, 60)})
			continue
		}
		c := r.Comparison
		records.AppendRow(table.Row{r.Name, score(c.OverallScore), c.FieldsMatched, c.FieldsMissing, c.FieldsIncorrect, ""})
	}
	return render(w, records, f)
}
