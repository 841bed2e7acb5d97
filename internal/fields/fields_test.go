package fields

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidateDate(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		valid        bool
		format       string
		standardized string
	}{
		{"iso", "2023-12-31", true, FormatISO, "2023-12-31"},
		{"iso with whitespace", "  2023-12-31 ", true, FormatISO, "2023-12-31"},
		{"day slash", "31/12/2023", true, FormatDaySlash, "2023-12-31"},
		{"year only", "2023", true, FormatYear, "2023-01-01"},
		{"day dash", "31-12-2023", true, FormatDayDash, ""},
		{"month first is read as day first", "12/31/2023", false, FormatDaySlash, ""},
		{"impossible day", "31/02/2023", false, FormatDaySlash, ""},
		{"free text", "not-a-date", false, FormatUnknown, ""},
		{"year month", "2024-01", false, FormatUnknown, ""},
		{"empty", "", false, FormatUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateDate(tt.value)
			if got.IsValid != tt.valid {
				t.Errorf("IsValid = %v, want %v (errors: %v)", got.IsValid, tt.valid, got.Errors)
			}
			if got.Format != tt.format {
				t.Errorf("Format = %q, want %q", got.Format, tt.format)
			}
			if got.Standardized != tt.standardized {
				t.Errorf("Standardized = %q, want %q", got.Standardized, tt.standardized)
			}
			if !got.IsValid && len(got.Errors) == 0 {
				t.Error("Expected an error message for an invalid date")
			}
		})
	}
}

func TestValidateDateErrors(t *testing.T) {
	got := ValidateDate("not-a-date")
	if diff := cmp.Diff([]string{"Date format not recognized"}, got.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}

	got = ValidateDate("31/02/2023")
	if len(got.Errors) != 1 || !strings.HasPrefix(got.Errors[0], "Invalid date:") {
		t.Errorf("Expected a single parse error, got %v", got.Errors)
	}
}

func TestDetectDateFormat(t *testing.T) {
	tests := map[string]string{
		"2023-12-31": FormatISO,
		"31/12/2023": FormatDaySlash,
		"1999":       FormatYear,
		"01-02-2003": FormatDayDash,
		"2024-01":    FormatUnknown,
		"31/02/2023": FormatDaySlash,
	}
	for in, want := range tests {
		if got := DetectDateFormat(in); got != want {
			t.Errorf("DetectDateFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateLanguageCode(t *testing.T) {
	tests := []struct {
		value string
		valid bool
		name  string
	}{
		{"ID", true, "Indonesian"},
		{"en", true, "English"},
		{" ko ", true, "Korean"},
		{"xx", false, "Unknown"},
		{"english", false, "Unknown"},
	}

	for _, tt := range tests {
		got := ValidateLanguageCode(tt.value)
		if got.IsValid != tt.valid {
			t.Errorf("ValidateLanguageCode(%q).IsValid = %v, want %v", tt.value, got.IsValid, tt.valid)
		}
		if got.LanguageName != tt.name {
			t.Errorf("ValidateLanguageCode(%q).LanguageName = %q, want %q", tt.value, got.LanguageName, tt.name)
		}
		if got.Suggestion == "" {
			t.Errorf("ValidateLanguageCode(%q): expected a suggestion", tt.value)
		}
	}
}

func TestValidateCreator(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		valid       bool
		suggestions []string
	}{
		{
			name:        "empty",
			value:       "   ",
			valid:       false,
			suggestions: []string{"Creator field cannot be empty"},
		},
		{
			name:        "well formed person",
			value:       "Budi Santoso",
			valid:       true,
			suggestions: []string{},
		},
		{
			name:  "lowercase single token",
			value: "budi",
			valid: true,
			suggestions: []string{
				"Consider proper capitalization for names",
				"Consider adding full name or organization",
			},
		},
		{
			name:        "uppercase acronym",
			value:       "UNESCO",
			valid:       true,
			suggestions: []string{},
		},
		{
			name:        "organization",
			value:       "Department of Finance",
			valid:       true,
			suggestions: []string{"Detected organization - ensure consistent naming"},
		},
		{
			name:  "lowercase organization",
			value: "ministry of finance",
			valid: true,
			suggestions: []string{
				"Consider proper capitalization for names",
				"Detected organization - ensure consistent naming",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateCreator(tt.value)
			if got.IsValid != tt.valid {
				t.Errorf("IsValid = %v, want %v", got.IsValid, tt.valid)
			}
			if diff := cmp.Diff(tt.suggestions, got.Suggestions); diff != "" {
				t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
