package report

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/lehigh-university-libraries/curator/internal/storage"
)

// WriteStatistics writes the store dashboard. CSV output is one metric per
// row.
func WriteStatistics(w io.Writer, f Format, stats storage.Statistics) error {
	if ok, err := encoded(w, f, stats); ok {
		return err
	}

	rows := [][]string{
		{"total_records", strconv.Itoa(stats.TotalRecords)},
		{"average_confidence", score(stats.AverageConfidence)},
		{"average_completeness", score(stats.AverageCompleteness)},
	}
	for _, k := range sortedKeys(stats.SchemaDistribution) {
		rows = append(rows, []string{"schema." + k, strconv.Itoa(stats.SchemaDistribution[k])})
	}
	for _, k := range sortedKeys(stats.ValidationDistribution) {
		rows = append(rows, []string{"review." + k, strconv.Itoa(stats.ValidationDistribution[k])})
	}

	if f == FormatCSV {
		writer := csv.NewWriter(w)
		if err := writer.Write([]string{"metric", "value"}); err != nil {
			return err
		}
		if err := writer.WriteAll(rows); err != nil {
			return err
		}
		return writer.Error()
	}

	t := newTable(f)
	t.SetTitle("Curation statistics")
	t.AppendHeader(table.Row{"Metric", "Value"})
	for _, r := range rows {
		t.AppendRow(table.Row{r[0], r[1]})
	}
	return render(w, t, f)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
