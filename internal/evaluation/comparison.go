// Package evaluation measures extraction accuracy against reference records.
package evaluation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/schema"
)

// Match classifies how an extracted value relates to its reference.
type Match string

const (
	MatchExact       Match = "exact"
	MatchFuzzyHigh   Match = "fuzzy_high"
	MatchFuzzyMedium Match = "fuzzy_medium"
	MatchFuzzyLow    Match = "fuzzy_low"
	MatchNone        Match = "no_match"
	MatchMissing     Match = "missing"
	MatchUnexpected  Match = "no_reference"
)

// FieldComparison compares one field of an extracted record with the
// reference value.
type FieldComparison struct {
	Field    string  `json:"field" yaml:"field"`
	Expected string  `json:"expected" yaml:"expected"`
	Actual   string  `json:"actual" yaml:"actual"`
	Score    float64 `json:"score" yaml:"score"`
	Distance int     `json:"distance" yaml:"distance"`
	Match    Match   `json:"match" yaml:"match"`
}

// Comparison is the field-by-field comparison of one record section.
// Only fields with a reference value are scored; fields the oracle filled
// without a reference are listed with MatchUnexpected.
type Comparison struct {
	Fields           []FieldComparison `json:"fields" yaml:"fields"`
	OverallScore     float64           `json:"overall_score" yaml:"overall_score"`
	FieldsMatched    int               `json:"fields_matched" yaml:"fields_matched"`
	FieldsMissing    int               `json:"fields_missing" yaml:"fields_missing"`
	FieldsIncorrect  int               `json:"fields_incorrect" yaml:"fields_incorrect"`
	FieldsUnexpected int               `json:"fields_unexpected" yaml:"fields_unexpected"`
	LevenshteinTotal int               `json:"levenshtein_total" yaml:"levenshtein_total"`
}

// Compare scores the extracted section against the reference section over
// the fields of s, in schema order.
func Compare(reference, extracted models.Section, s schema.Schema) Comparison {
	c := Comparison{Fields: []FieldComparison{}}

	total := 0.0
	scored := 0
	for _, f := range s.Fields {
		fc := CompareField(f.Name, reference.Get(f.Name), extracted.Get(f.Name))
		if fc.Match == "" {
			continue
		}
		c.Fields = append(c.Fields, fc)

		switch fc.Match {
		case MatchUnexpected:
			c.FieldsUnexpected++
			continue
		case MatchMissing:
			c.FieldsMissing++
		case MatchExact, MatchFuzzyHigh:
			c.FieldsMatched++
		default:
			c.FieldsIncorrect++
		}
		total += fc.Score
		c.LevenshteinTotal += fc.Distance
		scored++
	}

	if scored > 0 {
		c.OverallScore = total / float64(scored)
	}
	return c
}

// CompareField compares two values after normalization. The score is one
// minus the Levenshtein distance over the longer length. When both values
// are blank the returned comparison has no Match.
func CompareField(field, expected, actual string) FieldComparison {
	fc := FieldComparison{
		Field:    field,
		Expected: expected,
		Actual:   actual,
	}

	exp := normalizeText(expected)
	act := normalizeText(actual)

	switch {
	case exp == "" && act == "":
		return fc
	case exp == "":
		fc.Match = MatchUnexpected
		fc.Distance = utf8.RuneCountInString(act)
		return fc
	case act == "":
		fc.Match = MatchMissing
		fc.Distance = utf8.RuneCountInString(exp)
		return fc
	case exp == act:
		fc.Match = MatchExact
		fc.Score = 1.0
		return fc
	}

	fc.Distance = levenshteinDistance(exp, act)
	longest := max(utf8.RuneCountInString(exp), utf8.RuneCountInString(act))
	fc.Score = 1.0 - float64(fc.Distance)/float64(longest)

	switch {
	case fc.Score > 0.9:
		fc.Match = MatchFuzzyHigh
	case fc.Score > 0.7:
		fc.Match = MatchFuzzyMedium
	case fc.Score > 0.5:
		fc.Match = MatchFuzzyLow
	default:
		fc.Match = MatchNone
	}
	return fc
}

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// normalizeText lowercases, drops punctuation and collapses whitespace.
func normalizeText(text string) string {
	text = strings.ToLower(text)
	text = punctuation.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// levenshteinDistance counts rune edits between s1 and s2.
func levenshteinDistance(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
