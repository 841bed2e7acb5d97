package fields

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Date format labels reported by ValidateDate and DetectDateFormat.
const (
	FormatISO       = "ISO"
	FormatDaySlash  = "DD/MM/YYYY"
	FormatYear      = "YYYY"
	FormatDayDash   = "DD-MM-YYYY"
	FormatUnknown   = "unknown"
	dateNotMatched  = "Date format not recognized"
	languageAdvice  = "Use ISO 639-1 language codes (e.g., 'id' for Indonesian, 'en' for English)"
	unknownLanguage = "Unknown"
)

type datePattern struct {
	name string
	re   *regexp.Regexp
}

// datePatterns are tried in order; the first match wins. MM/DD/YYYY has the
// same shape as DD/MM/YYYY and is always reported as DD/MM/YYYY.
var datePatterns = []datePattern{
	{FormatISO, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)},
	{FormatDaySlash, regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)},
	{FormatYear, regexp.MustCompile(`^\d{4}$`)},
	{FormatDayDash, regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)},
}

// DateResult is the outcome of ValidateDate.
type DateResult struct {
	IsValid      bool     `json:"is_valid"`
	Format       string   `json:"format"`
	Standardized string   `json:"standardized"`
	Errors       []string `json:"errors"`
}

// DetectDateFormat returns the label of the first matching date pattern, or
// FormatUnknown. It does not attempt normalization.
func DetectDateFormat(value string) string {
	v := strings.TrimSpace(value)
	for _, p := range datePatterns {
		if p.re.MatchString(v) {
			return p.name
		}
	}
	return FormatUnknown
}

// ValidateDate detects the format of value and normalizes it to ISO where a
// conversion is defined.
func ValidateDate(value string) DateResult {
	v := strings.TrimSpace(value)
	result := DateResult{
		Format: DetectDateFormat(v),
		Errors: []string{},
	}

	switch result.Format {
	case FormatUnknown:
		result.Errors = append(result.Errors, dateNotMatched)
		return result
	case FormatISO:
		result.Standardized = v
	case FormatDaySlash:
		t, err := time.Parse("02/01/2006", v)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid date: %v", err))
			return result
		}
		result.Standardized = t.Format("2006-01-02")
	case FormatYear:
		result.Standardized = v + "-01-01"
	case FormatDayDash:
		// recognized, no conversion defined
	}

	result.IsValid = true
	return result
}

var languages = map[string]string{
	"id": "Indonesian",
	"en": "English",
	"ms": "Malay",
	"zh": "Chinese",
	"ar": "Arabic",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"ja": "Japanese",
	"ko": "Korean",
}

// LanguageResult is the outcome of ValidateLanguageCode.
type LanguageResult struct {
	IsValid      bool   `json:"is_valid"`
	Code         string `json:"code"`
	LanguageName string `json:"language_name"`
	Suggestion   string `json:"suggestion"`
}

// ValidateLanguageCode checks value against the supported ISO 639-1 codes,
// ignoring case and surrounding whitespace.
func ValidateLanguageCode(value string) LanguageResult {
	code := strings.ToLower(strings.TrimSpace(value))
	name, ok := languages[code]
	if !ok {
		name = unknownLanguage
	}
	return LanguageResult{
		IsValid:      ok,
		Code:         code,
		LanguageName: name,
		Suggestion:   languageAdvice,
	}
}

var organizationKeywords = []string{
	"dept", "department", "ministry", "agency", "office", "bureau", "center", "institute",
}

// CreatorResult is the outcome of ValidateCreator.
type CreatorResult struct {
	IsValid      bool     `json:"is_valid"`
	Suggestions  []string `json:"suggestions"`
	Standardized string   `json:"standardized"`
}

// ValidateCreator applies naming heuristics to a creator value. Only an
// empty value is invalid; everything else produces advisory suggestions.
func ValidateCreator(value string) CreatorResult {
	v := strings.TrimSpace(value)
	result := CreatorResult{
		IsValid:      true,
		Suggestions:  []string{},
		Standardized: v,
	}

	if v == "" {
		result.IsValid = false
		result.Suggestions = append(result.Suggestions, "Creator field cannot be empty")
		return result
	}

	if strings.ToLower(v) == v {
		result.Suggestions = append(result.Suggestions, "Consider proper capitalization for names")
	}

	if len(strings.Fields(v)) == 1 && !isUpper(v) {
		result.Suggestions = append(result.Suggestions, "Consider adding full name or organization")
	}

	lower := strings.ToLower(v)
	for _, kw := range organizationKeywords {
		if strings.Contains(lower, kw) {
			result.Suggestions = append(result.Suggestions, "Detected organization - ensure consistent naming")
			break
		}
	}

	return result
}

// isUpper reports whether s has at least one cased letter and no lowercase
// letters.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}
