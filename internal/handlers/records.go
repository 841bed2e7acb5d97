package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/curator/internal/linkeddata"
	"github.com/lehigh-university-libraries/curator/internal/models"
)

func (h *Handler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit, ok := h.limitParam(w, r)
	if !ok {
		return
	}

	records, err := h.store.Records(r.Context(), limit)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, records)
}

// HandleRecordDetail serves /api/records/{id} and its jsonld and feedback
// subresources.
func (h *Handler) HandleRecordDetail(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/records/"), "/")
	idPart, sub, _ := strings.Cut(path, "/")

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, "Invalid record id", http.StatusBadRequest)
		return
	}

	switch sub {
	case "":
		h.handleRecord(w, r, id)
	case "jsonld":
		h.handleRecordJSONLD(w, r, id)
	case "feedback":
		h.handleRecordFeedback(w, r, id)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec, err := h.store.GetRecord(r.Context(), id)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, rec)
}

func (h *Handler) handleRecordJSONLD(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rec, err := h.store.GetRecord(r.Context(), id)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	doc := linkeddata.FromRecord(rec.Record, fmt.Sprintf("urn:curator:record:%d", id))
	w.Header().Set("Content-Type", "application/ld+json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		h.writeError(w, "Unable to encode JSON-LD: "+err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleRecordFeedback(w http.ResponseWriter, r *http.Request, id int64) {
	switch r.Method {
	case "GET":
		feedback, err := h.store.Feedback(r.Context(), id)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		h.writeJSON(w, feedback)
	case "POST":
		var req struct {
			Status   string `json:"validation_status"`
			Comment  string `json:"feedback"`
			Reviewer string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		status, err := models.ParseValidationStatus(req.Status)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		fb := models.HumanFeedback{RecordID: id, Status: status, Comment: req.Comment, Reviewer: req.Reviewer}

		saved, err := h.store.SaveFeedback(r.Context(), fb)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		h.writeJSONStatus(w, http.StatusCreated, saved)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit, ok := h.limitParam(w, r)
	if !ok {
		return
	}

	entries, err := h.store.History(r.Context(), limit)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, entries)
}

func (h *Handler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.store.Statistics(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, stats)
}
