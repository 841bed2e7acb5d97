package inconsistency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/curator/internal/fields"
	"github.com/lehigh-university-libraries/curator/internal/models"
)

// Report groups advisory findings over a collection of records. All four
// categories are always present, possibly empty.
type Report struct {
	DateFormatIssues      []string `json:"date_format_issues" yaml:"date_format_issues"`
	NamingInconsistencies []string `json:"naming_inconsistencies" yaml:"naming_inconsistencies"`
	MissingPatterns       []string `json:"missing_patterns" yaml:"missing_patterns"`
	FormatInconsistencies []string `json:"format_inconsistencies" yaml:"format_inconsistencies"`
}

// Empty reports whether no findings were made.
func (r Report) Empty() bool {
	return len(r.DateFormatIssues) == 0 &&
		len(r.NamingInconsistencies) == 0 &&
		len(r.MissingPatterns) == 0 &&
		len(r.FormatInconsistencies) == 0
}

// Findings returns every finding prefixed with its category, in a stable order.
func (r Report) Findings() []string {
	var out []string
	add := func(category string, items []string) {
		for _, item := range items {
			out = append(out, category+": "+item)
		}
	}
	add("date_format_issues", r.DateFormatIssues)
	add("naming_inconsistencies", r.NamingInconsistencies)
	add("missing_patterns", r.MissingPatterns)
	add("format_inconsistencies", r.FormatInconsistencies)
	return out
}

// Detect compares the Dublin Core sections of records. It flags batches that
// mix date formats, and batches where the same creator string occurs more
// than once. Creator matching is exact; spelling variants of one name are not
// recognized.
func Detect(records []models.Record) Report {
	report := Report{
		DateFormatIssues:      []string{},
		NamingInconsistencies: []string{},
		MissingPatterns:       []string{},
		FormatInconsistencies: []string{},
	}

	formats := make(map[string]struct{})
	var creators []string
	for _, r := range records {
		if date := r.DublinCore.Get("date"); strings.TrimSpace(date) != "" {
			formats[fields.DetectDateFormat(date)] = struct{}{}
		}
		if creator := r.DublinCore.Get("creator"); strings.TrimSpace(creator) != "" {
			creators = append(creators, creator)
		}
	}

	if len(formats) > 1 {
		names := make([]string, 0, len(formats))
		for f := range formats {
			names = append(names, f)
		}
		sort.Strings(names)
		report.DateFormatIssues = append(report.DateFormatIssues,
			fmt.Sprintf("Found %d different date formats (%s)", len(formats), strings.Join(names, ", ")))
	}

	unique := make(map[string]struct{}, len(creators))
	for _, c := range creators {
		unique[c] = struct{}{}
	}
	if len(unique) != len(creators) {
		report.NamingInconsistencies = append(report.NamingInconsistencies,
			"Found creator name variants that may refer to the same entity")
	}

	return report
}
