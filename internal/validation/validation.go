package validation

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/curator/internal/fields"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/quality"
	"github.com/lehigh-university-libraries/curator/internal/schema"
)

// completenessTarget is the score below which a record is considered sparse.
const completenessTarget = 0.7

const (
	recommendMoreFields = "Consider filling more metadata fields to improve discoverability"
	recommendFixFormats = "Fix invalid field formats for better data quality"
)

// FieldStatus is the per-field outcome of a validation pass.
type FieldStatus string

const (
	FieldMissing FieldStatus = "missing"
	FieldValid   FieldStatus = "valid"
	FieldWarning FieldStatus = "warning"
)

// FieldValidation describes how one field fared. At most one of the detail
// results is set, depending on the field's validator kind.
type FieldValidation struct {
	Status   FieldStatus            `json:"status" yaml:"status"`
	Message  string                 `json:"message,omitempty" yaml:"message,omitempty"`
	Date     *fields.DateResult     `json:"date,omitempty" yaml:"date,omitempty"`
	Language *fields.LanguageResult `json:"language,omitempty" yaml:"language,omitempty"`
	Creator  *fields.CreatorResult  `json:"creator,omitempty" yaml:"creator,omitempty"`
}

// Report is the result of validating one record section against a schema.
// IsValid holds exactly when MissingFields and InvalidFields are both empty.
type Report struct {
	SchemaType        schema.Type                `json:"schema_type" yaml:"schema_type"`
	IsValid           bool                       `json:"is_valid" yaml:"is_valid"`
	MissingFields     []string                   `json:"missing_fields" yaml:"missing_fields"`
	InvalidFields     []string                   `json:"invalid_fields" yaml:"invalid_fields"`
	Warnings          []string                   `json:"warnings" yaml:"warnings"`
	FieldValidations  map[string]FieldValidation `json:"field_validations" yaml:"field_validations"`
	CompletenessScore float64                    `json:"completeness_score" yaml:"completeness_score"`
	Recommendations   []string                   `json:"recommendations" yaml:"recommendations"`
}

// Validate checks the section of record matching s.Type against s. Fields
// absent from the record are treated as empty. The result depends only on
// its inputs.
func Validate(record models.Record, s schema.Schema) Report {
	section := record.Section(s.Type)

	report := Report{
		SchemaType:       s.Type,
		MissingFields:    []string{},
		InvalidFields:    []string{},
		Warnings:         []string{},
		FieldValidations: make(map[string]FieldValidation, s.Len()),
		Recommendations:  []string{},
	}

	for _, f := range s.Fields {
		value := section.Get(f.Name)
		if strings.TrimSpace(value) == "" {
			report.MissingFields = append(report.MissingFields, f.Name)
			report.FieldValidations[f.Name] = FieldValidation{
				Status:  FieldMissing,
				Message: fmt.Sprintf("Field %s is required but empty", f.Name),
			}
			continue
		}
		report.FieldValidations[f.Name] = report.checkField(f, value)
	}

	report.CompletenessScore = quality.Completeness(section, s)

	if report.CompletenessScore < completenessTarget {
		report.Recommendations = append(report.Recommendations, recommendMoreFields)
	}
	if len(report.InvalidFields) > 0 {
		report.Recommendations = append(report.Recommendations, recommendFixFormats)
	}

	report.IsValid = len(report.MissingFields) == 0 && len(report.InvalidFields) == 0
	return report
}

// checkField runs the validator for f's kind on a non-blank value, recording
// errors and advice on the report as it goes.
func (r *Report) checkField(f schema.Field, value string) FieldValidation {
	switch f.Kind {
	case schema.Date:
		res := fields.ValidateDate(value)
		fv := FieldValidation{Status: FieldValid, Date: &res}
		if !res.IsValid {
			fv.Status = FieldWarning
			for _, e := range res.Errors {
				r.InvalidFields = append(r.InvalidFields, fmt.Sprintf("%s: %s", f.Name, e))
			}
			fv.Message = strings.Join(res.Errors, "; ")
		}
		return fv

	case schema.LanguageCode:
		res := fields.ValidateLanguageCode(value)
		fv := FieldValidation{Status: FieldValid, Language: &res}
		if !res.IsValid {
			fv.Status = FieldWarning
			fv.Message = fmt.Sprintf("Language code '%s' may not be standard. %s", strings.TrimSpace(value), res.Suggestion)
			r.Warnings = append(r.Warnings, fv.Message)
		}
		return fv

	case schema.CreatorName:
		res := fields.ValidateCreator(value)
		fv := FieldValidation{Status: FieldValid, Creator: &res}
		if len(res.Suggestions) > 0 {
			fv.Status = FieldWarning
			fv.Message = strings.Join(res.Suggestions, "; ")
			r.Warnings = append(r.Warnings, res.Suggestions...)
		}
		return fv
	}

	return FieldValidation{Status: FieldValid}
}

// Annotate returns a copy of record carrying quality metrics computed from
// its Dublin Core section. Existing metrics are replaced.
func Annotate(record models.Record) models.Record {
	out := record.Clone()
	out.QualityMetrics = &models.QualityMetrics{
		CompletenessScore: quality.Completeness(record.DublinCore, schema.MustGet(schema.DublinCore)),
		RichnessScore:     quality.Richness(record.DublinCore),
	}
	return out
}
