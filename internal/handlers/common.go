package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lehigh-university-libraries/curator/internal/curation"
	"github.com/lehigh-university-libraries/curator/internal/document"
	"github.com/lehigh-university-libraries/curator/internal/extraction"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/schema"
	"github.com/lehigh-university-libraries/curator/internal/session"
	"github.com/lehigh-university-libraries/curator/internal/storage"
)

const (
	maxUploadSize   = 10 * 1024 * 1024
	defaultPageSize = 50
	sessionHeader   = "X-Session-ID"
)

type Handler struct {
	pipeline      *curation.Pipeline
	store         *storage.Store
	sessions      *session.Store
	defaultSchema schema.Type
}

func New(pipeline *curation.Pipeline, store *storage.Store, sessions *session.Store, defaultSchema schema.Type) *Handler {
	return &Handler{
		pipeline:      pipeline,
		store:         store,
		sessions:      sessions,
		defaultSchema: defaultSchema,
	}
}

// Register installs the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/extract", h.HandleExtract)
	mux.HandleFunc("/api/validate", h.HandleValidate)
	mux.HandleFunc("/api/inconsistencies", h.HandleInconsistencies)
	mux.HandleFunc("/api/records", h.HandleRecords)
	mux.HandleFunc("/api/records/", h.HandleRecordDetail)
	mux.HandleFunc("/api/history", h.HandleHistory)
	mux.HandleFunc("/api/statistics", h.HandleStatistics)
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("/api/sessions/", h.HandleSessionDetail)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "status", code)
	}
	http.Error(w, message, code)
}

// writeFailure maps domain errors onto HTTP status codes.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, storage.ErrInvalidStatus), errors.Is(err, models.ErrMalformedRecord):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, document.ErrUnsupported):
		h.writeError(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, extraction.ErrOracle):
		h.writeError(w, err.Error(), http.StatusBadGateway)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// schemaOrDefault parses a schema parameter, falling back to the server
// default when it is empty.
func (h *Handler) schemaOrDefault(w http.ResponseWriter, value string) (schema.Type, bool) {
	if value == "" {
		return h.defaultSchema, true
	}
	t, err := schema.ParseType(value)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return t, true
}

// limitParam reads ?limit=N, defaulting to defaultPageSize.
func (h *Handler) limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultPageSize, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		h.writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
