package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/curator/internal/schema"
)

// Section maps schema field names to free-text values.
type Section map[string]string

// Get returns the value for field, or "" when absent.
func (s Section) Get(field string) string {
	if s == nil {
		return ""
	}
	return s[field]
}

// QualityMetrics are attached to a record after extraction and supersede
// any earlier values.
type QualityMetrics struct {
	CompletenessScore float64 `json:"completeness_score"`
	RichnessScore     float64 `json:"richness_score"`
}

// Record is one candidate metadata record produced from a source document
type Record struct {
	DublinCore      Section         `json:"dublin_core"`
	ISADG           Section         `json:"isad_g"`
	ConfidenceScore float64         `json:"confidence_score"`
	Suggestions     []string        `json:"suggestions,omitempty"`
	ExtractionNotes []string        `json:"extraction_notes,omitempty"`
	QualityMetrics  *QualityMetrics `json:"quality_metrics,omitempty"`
}

// Section returns the section matching a schema type.
func (r Record) Section(t schema.Type) Section {
	switch t {
	case schema.DublinCore:
		return r.DublinCore
	case schema.ISADG:
		return r.ISADG
	default:
		return nil
	}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := Record{
		DublinCore:      cloneSection(r.DublinCore),
		ISADG:           cloneSection(r.ISADG),
		ConfidenceScore: r.ConfidenceScore,
		Suggestions:     append([]string(nil), r.Suggestions...),
		ExtractionNotes: append([]string(nil), r.ExtractionNotes...),
	}
	if r.QualityMetrics != nil {
		qm := *r.QualityMetrics
		out.QualityMetrics = &qm
	}
	return out
}

func cloneSection(s Section) Section {
	if s == nil {
		return nil
	}
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// EmptyRecord is the well-formed default substituted for unusable oracle
// output: every schema field present with an empty value.
func EmptyRecord() Record {
	return Record{
		DublinCore:      emptySection(schema.MustGet(schema.DublinCore)),
		ISADG:           emptySection(schema.MustGet(schema.ISADG)),
		ConfidenceScore: 0.0,
		Suggestions:     []string{},
		QualityMetrics:  &QualityMetrics{},
	}
}

func emptySection(s schema.Schema) Section {
	out := make(Section, s.Len())
	for _, f := range s.Fields {
		out[f.Name] = ""
	}
	return out
}

// ValidationStatus is a reviewer's verdict on a record.
type ValidationStatus string

const (
	StatusUndetermined  ValidationStatus = "undetermined"
	StatusApproved      ValidationStatus = "approved"
	StatusNeedsRevision ValidationStatus = "needs_revision"
	StatusRejected      ValidationStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s ValidationStatus) Valid() bool {
	switch s {
	case StatusUndetermined, StatusApproved, StatusNeedsRevision, StatusRejected:
		return true
	}
	return false
}

// ParseValidationStatus normalizes user input such as "Needs Revision".
func ParseValidationStatus(s string) (ValidationStatus, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	status := ValidationStatus(norm)
	if !status.Valid() {
		return "", fmt.Errorf("invalid validation status %q (must be undetermined, approved, needs_revision or rejected)", s)
	}
	return status, nil
}

// HumanFeedback is one review action. Feedback is append-only.
type HumanFeedback struct {
	ID        int64            `json:"id,omitempty"`
	RecordID  int64            `json:"record_id"`
	Status    ValidationStatus `json:"validation_status"`
	Comment   string           `json:"feedback"`
	Reviewer  string           `json:"user_id"`
	CreatedAt time.Time        `json:"created_at"`
}
