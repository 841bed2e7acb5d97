package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/lehigh-university-libraries/curator/internal/batch"
	"github.com/lehigh-university-libraries/curator/internal/inconsistency"
	"github.com/lehigh-university-libraries/curator/internal/quality"
	"github.com/lehigh-university-libraries/curator/internal/schema"
	"github.com/lehigh-university-libraries/curator/internal/validation"
)

// WriteValidation writes a single validation report. Table and Markdown
// output list one row per schema field in schema order.
func WriteValidation(w io.Writer, f Format, r validation.Report) error {
	if ok, err := encoded(w, f, r); ok {
		return err
	}

	s, err := schema.Get(r.SchemaType)
	if err != nil {
		return err
	}

	if f == FormatCSV {
		writer := csv.NewWriter(w)
		if err := writer.Write([]string{"field", "status", "message"}); err != nil {
			return err
		}
		for _, name := range s.Names() {
			fv := r.FieldValidations[name]
			if err := writer.Write([]string{name, string(fv.Status), fv.Message}); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	}

	t := newTable(f)
	t.SetTitle(fmt.Sprintf("%s validation: %s, completeness %s", s.Label, validity(r.IsValid), percent(r.CompletenessScore)))
	t.AppendHeader(table.Row{"Field", "Status", "Detail"})
	for _, name := range s.Names() {
		fv := r.FieldValidations[name]
		t.AppendRow(table.Row{name, fv.Status, fieldDetail(fv)})
	}
	if err := render(w, t, f); err != nil {
		return err
	}

	return writeNotes(w, f, []section{
		{"Invalid fields", r.InvalidFields},
		{"Warnings", r.Warnings},
		{"Recommendations", r.Recommendations},
	})
}

func fieldDetail(fv validation.FieldValidation) string {
	switch {
	case fv.Message != "":
		return fv.Message
	case fv.Date != nil && fv.Date.Standardized != "":
		return fmt.Sprintf("%s -> %s", fv.Date.Format, fv.Date.Standardized)
	case fv.Date != nil && len(fv.Date.Errors) > 0:
		return strings.Join(fv.Date.Errors, "; ")
	case fv.Language != nil:
		return fv.Language.LanguageName
	case fv.Creator != nil && fv.Creator.Standardized != "":
		return fv.Creator.Standardized
	default:
		return ""
	}
}

// WriteInconsistencies writes a cross-record report with its consistency
// scores.
func WriteInconsistencies(w io.Writer, f Format, r inconsistency.Report, c quality.Consistency) error {
	v := struct {
		Inconsistencies inconsistency.Report `json:"inconsistencies" yaml:"inconsistencies"`
		Consistency     quality.Consistency  `json:"consistency" yaml:"consistency"`
	}{r, c}
	if ok, err := encoded(w, f, v); ok {
		return err
	}

	if f == FormatCSV {
		writer := csv.NewWriter(w)
		if err := writer.Write([]string{"category", "finding"}); err != nil {
			return err
		}
		for _, row := range findingRows(r) {
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	}

	t := newTable(f)
	t.SetTitle("Consistency")
	t.AppendHeader(table.Row{"Dimension", "Score"})
	t.AppendRow(table.Row{"date_format", score(c.DateFormat)})
	t.AppendRow(table.Row{"language", score(c.Language)})
	t.AppendFooter(table.Row{"overall", score(c.Overall)})
	if err := render(w, t, f); err != nil {
		return err
	}

	if r.Empty() {
		_, err := fmt.Fprintln(w, "No inconsistencies found.")
		return err
	}
	ft := newTable(f)
	ft.AppendHeader(table.Row{"Category", "Finding"})
	for _, row := range findingRows(r) {
		ft.AppendRow(table.Row{row[0], row[1]})
	}
	return render(w, ft, f)
}

func findingRows(r inconsistency.Report) [][]string {
	var rows [][]string
	for _, f := range r.Findings() {
		category, finding, _ := strings.Cut(f, ": ")
		rows = append(rows, []string{category, finding})
	}
	return rows
}

// WriteSummary writes a batch summary. CSV output has one row per item.
func WriteSummary(w io.Writer, f Format, sum *batch.Summary) error {
	if ok, err := encoded(w, f, sum); ok {
		return err
	}

	if f == FormatCSV {
		writer := csv.NewWriter(w)
		header := []string{"file_name", "record_id", "is_valid", "completeness_score", "missing_fields", "invalid_fields", "warnings", "processing_ms", "error"}
		if err := writer.Write(header); err != nil {
			return err
		}
		for _, r := range sum.Results {
			row := []string{
				r.Name,
				strconv.FormatInt(r.RecordID, 10),
				strconv.FormatBool(r.Report.IsValid),
				strconv.FormatFloat(r.Report.CompletenessScore, 'f', 4, 64),
				strconv.Itoa(len(r.Report.MissingFields)),
				strconv.Itoa(len(r.Report.InvalidFields)),
				strconv.Itoa(len(r.Report.Warnings)),
				strconv.FormatInt(r.ProcessingTime.Milliseconds(), 10),
				r.Error,
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	}

	t := newTable(f)
	t.SetTitle(fmt.Sprintf("Batch summary (%s)", sum.SchemaType))
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Records", sum.TotalRecords},
		{"Valid", sum.ValidCount},
		{"Invalid", sum.InvalidCount},
		{"Failed", sum.FailureCount},
		{"Average completeness", percent(sum.AverageCompleteness)},
		{"Average confidence", score(sum.AverageConfidence)},
		{"Average richness", score(sum.AverageRichness)},
		{"Invalid fields", sum.InvalidFields},
		{"Warnings", sum.Warnings},
		{"Consistency", score(sum.Consistency.Overall)},
		{"Average processing time", sum.AverageProcessingTime.String()},
	})
	if err := render(w, t, f); err != nil {
		return err
	}

	if len(sum.MissingFields) > 0 {
		mt := newTable(f)
		mt.SetTitle("Most often missing")
		mt.AppendHeader(table.Row{"Field", "Records"})
		for _, fc := range sum.MissingFields {
			mt.AppendRow(table.Row{fc.Field, fc.Count})
		}
		if err := render(w, mt, f); err != nil {
			return err
		}
	}

	it := newTable(f)
	it.AppendHeader(table.Row{"File", "ID", "Valid", "Completeness", "Error"})
	for _, r := range sum.Results {
		valid := validity(r.Report.IsValid)
		if r.Error != "" {
			valid = "failed"
		}
		it.AppendRow(table.Row{r.Name, r.RecordID, valid, percent(r.Report.CompletenessScore), truncate(r.Error, 50)})
	}
	if err := render(w, it, f); err != nil {
		return err
	}

	return writeNotes(w, f, []section{{"Inconsistencies", sum.Inconsistencies.Findings()}})
}

type section struct {
	title string
	items []string
}

// writeNotes prints non-empty bullet lists under a heading.
func writeNotes(w io.Writer, f Format, sections []section) error {
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		heading := s.title + ":"
		if f == FormatMarkdown {
			heading = "### " + s.title
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", heading); err != nil {
			return err
		}
		for _, it := range s.items {
			if _, err := fmt.Fprintf(w, "- %s\n", it); err != nil {
				return err
			}
		}
	}
	return nil
}

func validity(ok bool) string {
	if ok {
		return "valid"
	}
	return "invalid"
}
