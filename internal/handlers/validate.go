package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lehigh-university-libraries/curator/internal/inconsistency"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/quality"
	"github.com/lehigh-university-libraries/curator/internal/schema"
	"github.com/lehigh-university-libraries/curator/internal/validation"
)

func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Record json.RawMessage `json:"record"`
		Schema string          `json:"schema"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(request.Record) == 0 {
		h.writeError(w, "record is required", http.StatusBadRequest)
		return
	}

	schemaType, ok := h.schemaOrDefault(w, request.Schema)
	if !ok {
		return
	}

	rec, err := models.DecodeRecord(request.Record)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	rec = validation.Annotate(rec)

	h.writeJSON(w, map[string]any{
		"validation":      validation.Validate(rec, schema.MustGet(schemaType)),
		"quality_metrics": rec.QualityMetrics,
	})
}

// HandleInconsistencies checks either the posted records or, when
// record_ids is given, the stored ones. Reports over stored records are
// persisted.
func (h *Handler) HandleInconsistencies(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Records   []json.RawMessage `json:"records"`
		RecordIDs []int64           `json:"record_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	records := make([]models.Record, 0, len(request.Records)+len(request.RecordIDs))
	for i, raw := range request.Records {
		rec, err := models.DecodeRecord(raw)
		if err != nil {
			h.writeError(w, fmt.Sprintf("records[%d]: %v", i, err), http.StatusBadRequest)
			return
		}
		records = append(records, rec)
	}
	for _, id := range request.RecordIDs {
		stored, err := h.store.GetRecord(r.Context(), id)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		records = append(records, stored.Record)
	}

	report := inconsistency.Detect(records)
	response := map[string]any{
		"inconsistencies": report,
		"consistency":     quality.CheckConsistency(records),
		"findings":        report.Findings(),
	}

	if len(request.RecordIDs) > 0 {
		id, err := h.store.SaveInconsistencyReport(r.Context(), "api", report, request.RecordIDs)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		response["report_id"] = id
	}

	h.writeJSON(w, response)
}
