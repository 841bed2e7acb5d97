package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/curator/internal/curation"
	"github.com/lehigh-university-libraries/curator/internal/document"
)

func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleTextExtract(w, r)
		return
	}

	h.handleFileExtract(w, r)
}

func (h *Handler) handleTextExtract(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Text      string `json:"text"`
		FileName  string `json:"file_name"`
		Schema    string `json:"schema"`
		SessionID string `json:"session_id"`
	}

	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadSize)).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(request.Text) == "" {
		h.writeError(w, "text is required", http.StatusBadRequest)
		return
	}
	if request.FileName == "" {
		request.FileName = "document.txt"
	}
	if request.SessionID == "" {
		request.SessionID = r.Header.Get(sessionHeader)
	}

	h.extract(w, r, curation.Input{Name: request.FileName, Text: request.Text}, request.Schema, request.SessionID)
}

func (h *Handler) handleFileExtract(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("files")
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(data) >= maxUploadSize {
		h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
		return
	}

	doc, err := document.Decode(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		sessionID = r.Header.Get(sessionHeader)
	}

	h.extract(w, r, curation.Input{Name: doc.Name, Text: doc.Text}, r.FormValue("schema"), sessionID)
}

func (h *Handler) extract(w http.ResponseWriter, r *http.Request, in curation.Input, schemaName, sessionID string) {
	schemaType, ok := h.schemaOrDefault(w, schemaName)
	if !ok {
		return
	}

	sess := h.sessions.GetOrCreate(sessionID)
	w.Header().Set(sessionHeader, sess.ID)

	out, err := h.pipeline.Process(r.Context(), sess, in, schemaType)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSONStatus(w, http.StatusCreated, out)
}
