package quality

import (
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/curator/internal/fields"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/schema"
)

// richnessFields are the optional Dublin Core elements rewarded by Richness.
var richnessFields = []string{"subject", "coverage", "relation", "rights"}

// Completeness returns the fraction of schema fields holding a non-blank
// value in section. An empty schema scores 0.
func Completeness(section models.Section, s schema.Schema) float64 {
	if s.Len() == 0 {
		return 0.0
	}

	filled := 0
	for _, f := range s.Fields {
		if strings.TrimSpace(section.Get(f.Name)) != "" {
			filled++
		}
	}
	return float64(filled) / float64(s.Len())
}

// Richness scores how descriptive a Dublin Core section is: up to 0.3 for the
// description length in characters and up to 0.7 for the optional enrichment fields.
func Richness(dc models.Section) float64 {
	score := 0.0

	switch n := utf8.RuneCountInString(dc.Get("description")); {
	case n > 200:
		score += 0.3
	case n > 100:
		score += 0.2
	case n > 50:
		score += 0.1
	}

	present := 0
	for _, f := range richnessFields {
		if dc.Get(f) != "" {
			present++
		}
	}
	score += float64(present) / float64(len(richnessFields)) * 0.7

	return min(score, 1.0)
}

// Consistency holds per-dimension agreement scores for a batch of records.
type Consistency struct {
	DateFormat float64 `json:"date_format,omitempty" yaml:"date_format,omitempty"`
	Language   float64 `json:"language,omitempty" yaml:"language,omitempty"`
	Overall    float64 `json:"overall" yaml:"overall"`
}

// CheckConsistency compares the Dublin Core date formats and languages of a
// batch. Batches with fewer than two records are trivially consistent.
func CheckConsistency(records []models.Record) Consistency {
	if len(records) < 2 {
		return Consistency{Overall: 1.0}
	}

	formats := make(map[string]struct{})
	langs := make(map[string]struct{})
	for _, r := range records {
		if date := r.DublinCore.Get("date"); date != "" {
			formats[fields.DetectDateFormat(date)] = struct{}{}
		}
		if lang := strings.ToLower(strings.TrimSpace(r.DublinCore.Get("language"))); lang != "" {
			langs[lang] = struct{}{}
		}
	}

	c := Consistency{DateFormat: 1.0, Language: 1.0}
	if len(formats) > 1 {
		c.DateFormat = 0.5
	}
	if len(langs) > 1 {
		c.Language = 0.7
	}
	c.Overall = (c.DateFormat + c.Language) / 2
	return c
}
