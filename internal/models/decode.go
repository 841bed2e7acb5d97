package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/curator/internal/schema"
)

// ErrMalformedRecord is returned when a candidate record does not have the
// expected shape.
var ErrMalformedRecord = errors.New("malformed record")

// DecodeRecord parses untrusted JSON into a Record. Scalar field values of
// any JSON type are rendered as text and absent fields stay absent. When the
// document or one of its sections has the wrong shape, the empty record is
// returned together with an error wrapping ErrMalformedRecord.
func DecodeRecord(data []byte) (Record, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return EmptyRecord(), fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if top == nil {
		return EmptyRecord(), fmt.Errorf("%w: document is null", ErrMalformedRecord)
	}

	rec := Record{
		DublinCore: Section{},
		ISADG:      Section{},
	}

	for _, t := range schema.Types() {
		raw, ok := top[string(t)]
		if !ok || isNull(raw) {
			continue
		}
		section, err := decodeSection(raw)
		if err != nil {
			return EmptyRecord(), fmt.Errorf("%w: section %s: %v", ErrMalformedRecord, t, err)
		}
		switch t {
		case schema.DublinCore:
			rec.DublinCore = section
		case schema.ISADG:
			rec.ISADG = section
		}
	}

	rec.ConfidenceScore = decodeConfidence(top["confidence_score"])
	rec.Suggestions = decodeStrings(top["suggestions"])
	rec.ExtractionNotes = decodeStrings(top["extraction_notes"])

	return rec, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func decodeSection(raw json.RawMessage) (Section, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	section := make(Section, len(fields))
	for k, v := range fields {
		section[k] = stringify(v)
	}
	return section, nil
}

func decodeConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	switch {
	case f != f: // NaN
		return 0
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func decodeStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}

	switch items := v.(type) {
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(items); s != "" {
			return []string{s}
		}
	}
	return nil
}

// stringify renders a decoded JSON value as field text.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
