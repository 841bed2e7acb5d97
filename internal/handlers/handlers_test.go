package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/curator/internal/curation"
	"github.com/lehigh-university-libraries/curator/internal/extraction"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/schema"
	"github.com/lehigh-university-libraries/curator/internal/session"
	"github.com/lehigh-university-libraries/curator/internal/storage"
)

type fakeExtractor struct{}

func (fakeExtractor) Extract(ctx context.Context, text, fileName string) (models.Record, error) {
	if strings.Contains(text, "FAIL") {
		return models.EmptyRecord(), fmt.Errorf("%w: connection refused", extraction.ErrOracle)
	}
	return models.Record{
		DublinCore: models.Section{
			"title":    strings.TrimSpace(text),
			"creator":  "Arsip Nasional Republik Indonesia",
			"date":     "1945-08-17",
			"language": "id",
		},
		ConfidenceScore: 0.9,
		ExtractionNotes: []string{"Letterhead read from the first line"},
		QualityMetrics:  &models.QualityMetrics{CompletenessScore: 4.0 / 15.0},
	}, nil
}

func setupServer(t *testing.T) (*httptest.Server, *storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "curator.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	h := New(curation.New(fakeExtractor{}, store, 2), store, session.NewStore(), schema.DublinCore)
	mux := http.NewServeMux()
	h.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestHealthcheck(t *testing.T) {
	srv, _ := setupServer(t)

	resp := get(t, srv.URL+"/healthcheck")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestExtractJSON(t *testing.T) {
	srv, _ := setupServer(t)

	resp := postJSON(t, srv.URL+"/api/extract", map[string]string{"text": "Proklamasi", "file_name": "proklamasi.txt"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	sessionID := resp.Header.Get("X-Session-ID")
	if sessionID == "" {
		t.Fatal("Expected a session id header")
	}

	out := decode[curation.Outcome](t, resp)
	if out.RecordID <= 0 || out.Record.DublinCore.Get("title") != "Proklamasi" {
		t.Errorf("Unexpected outcome %+v", out)
	}
	if out.Session == nil || out.Session.ID != sessionID {
		t.Errorf("Expected session stats for %s, got %+v", sessionID, out.Session)
	}

	// a second request in the same session accumulates
	resp = postJSON(t, srv.URL+"/api/extract", map[string]string{"text": "Dekrit", "session_id": sessionID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	stats := decode[session.Stats](t, get(t, srv.URL+"/api/sessions/"+sessionID))
	if stats.ProcessedFiles != 2 {
		t.Errorf("Expected 2 processed files, got %d", stats.ProcessedFiles)
	}
}

func TestExtractErrors(t *testing.T) {
	srv, _ := setupServer(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing text", map[string]string{"file_name": "a.txt"}, http.StatusBadRequest},
		{"unknown schema", map[string]string{"text": "x", "schema": "mods"}, http.StatusBadRequest},
		{"oracle failure", map[string]string{"text": "FAIL"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := postJSON(t, srv.URL+"/api/extract", tt.body); resp.StatusCode != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}

	resp := get(t, srv.URL+"/api/extract")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", resp.StatusCode)
	}
}

func uploadFile(t *testing.T, url, name, content, schemaName string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if schemaName != "" {
		if err := mw.WriteField("schema", schemaName); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestExtractUpload(t *testing.T) {
	srv, _ := setupServer(t)

	resp := uploadFile(t, srv.URL+"/api/extract", "surat.txt", "Surat Keputusan", "isad_g")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	out := decode[curation.Outcome](t, resp)
	if out.FileName != "surat.txt" || out.SchemaType != schema.ISADG {
		t.Errorf("Unexpected outcome %+v", out)
	}

	resp = uploadFile(t, srv.URL+"/api/extract", "scan.pdf", "%PDF-1.7", "")
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("Expected 415 for a PDF upload, got %d", resp.StatusCode)
	}
}

func TestValidate(t *testing.T) {
	srv, _ := setupServer(t)

	resp := postJSON(t, srv.URL+"/api/validate", map[string]any{
		"record": map[string]any{"dublin_core": map[string]string{"title": "Arsip", "date": "1945"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	got := decode[struct {
		Validation struct {
			IsValid           bool     `json:"is_valid"`
			MissingFields     []string `json:"missing_fields"`
			CompletenessScore float64  `json:"completeness_score"`
		} `json:"validation"`
		QualityMetrics *models.QualityMetrics `json:"quality_metrics"`
	}](t, resp)

	if got.Validation.IsValid || len(got.Validation.MissingFields) != 13 {
		t.Errorf("Unexpected validation %+v", got.Validation)
	}
	if got.QualityMetrics == nil || got.QualityMetrics.CompletenessScore != got.Validation.CompletenessScore {
		t.Errorf("Unexpected quality metrics %+v", got.QualityMetrics)
	}

	resp = postJSON(t, srv.URL+"/api/validate", map[string]any{"record": map[string]any{"dublin_core": []string{"title"}}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed record, got %d", resp.StatusCode)
	}
}

func TestInconsistencies(t *testing.T) {
	srv, store := setupServer(t)

	resp := postJSON(t, srv.URL+"/api/inconsistencies", map[string]any{
		"records": []map[string]any{
			{"dublin_core": map[string]string{"date": "2023-01-01"}},
			{"dublin_core": map[string]string{"date": "01/02/2023"}},
			{"dublin_core": map[string]string{"date": "2023"}},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	got := decode[struct {
		Findings []string `json:"findings"`
	}](t, resp)
	if len(got.Findings) != 1 || !strings.Contains(got.Findings[0], "Found 3 different date formats") {
		t.Errorf("Unexpected findings %v", got.Findings)
	}

	id, err := store.SaveRecord(context.Background(), "a.txt", models.EmptyRecord(), schema.DublinCore)
	if err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	resp = postJSON(t, srv.URL+"/api/inconsistencies", map[string]any{"record_ids": []int64{id}})
	saved := decode[struct {
		ReportID int64 `json:"report_id"`
	}](t, resp)
	if saved.ReportID <= 0 {
		t.Errorf("Expected a stored report id, got %d", saved.ReportID)
	}

	resp = postJSON(t, srv.URL+"/api/inconsistencies", map[string]any{"record_ids": []int64{999}})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown record, got %d", resp.StatusCode)
	}
}

func TestRecordLifecycle(t *testing.T) {
	srv, _ := setupServer(t)

	out := decode[curation.Outcome](t, postJSON(t, srv.URL+"/api/extract", map[string]string{"text": "Piagam"}))
	base := fmt.Sprintf("%s/api/records/%d", srv.URL, out.RecordID)

	rec := decode[storage.StoredRecord](t, get(t, base))
	if rec.ID != out.RecordID || rec.Record.DublinCore.Get("title") != "Piagam" {
		t.Errorf("Unexpected stored record %+v", rec)
	}
	if rec.Record.QualityMetrics == nil || rec.Record.QualityMetrics.CompletenessScore != 4.0/15.0 || len(rec.Record.ExtractionNotes) != 1 {
		t.Errorf("Expected stored quality metrics and notes, got %+v", rec.Record)
	}

	resp := get(t, base+"/jsonld")
	if ct := resp.Header.Get("Content-Type"); ct != "application/ld+json" {
		t.Errorf("Unexpected content type %q", ct)
	}
	doc := decode[map[string]any](t, resp)
	if doc["dc:title"] != "Piagam" || doc["@id"] != fmt.Sprintf("urn:curator:record:%d", out.RecordID) {
		t.Errorf("Unexpected JSON-LD %v", doc)
	}

	resp = postJSON(t, base+"/feedback", map[string]string{"validation_status": "approved", "feedback": "Looks right"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	resp = postJSON(t, base+"/feedback", map[string]string{"validation_status": "maybe"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown status, got %d", resp.StatusCode)
	}

	feedback := decode[[]models.HumanFeedback](t, get(t, base+"/feedback"))
	if len(feedback) != 1 || feedback[0].Status != models.StatusApproved || feedback[0].Reviewer != "user" {
		t.Errorf("Unexpected feedback %+v", feedback)
	}

	history := decode[[]storage.HistoryEntry](t, get(t, srv.URL+"/api/history?limit=5"))
	if len(history) != 1 || history[0].ValidationStatus != models.StatusApproved {
		t.Errorf("Unexpected history %+v", history)
	}

	stats := decode[storage.Statistics](t, get(t, srv.URL+"/api/statistics"))
	if stats.TotalRecords != 1 || stats.ValidationDistribution["approved"] != 1 {
		t.Errorf("Unexpected statistics %+v", stats)
	}
}

func TestFeedbackStatusSpelling(t *testing.T) {
	srv, _ := setupServer(t)

	out := decode[curation.Outcome](t, postJSON(t, srv.URL+"/api/extract", map[string]string{"text": "Piagam"}))
	base := fmt.Sprintf("%s/api/records/%d/feedback", srv.URL, out.RecordID)

	for _, status := range []string{"Approved", "Needs Revision", " needs-revision "} {
		if resp := postJSON(t, base, map[string]string{"validation_status": status, "user_id": "archivist"}); resp.StatusCode != http.StatusCreated {
			t.Errorf("POST status %q: expected 201, got %d", status, resp.StatusCode)
		}
	}

	feedback := decode[[]models.HumanFeedback](t, get(t, base))
	want := []models.ValidationStatus{models.StatusApproved, models.StatusNeedsRevision, models.StatusNeedsRevision}
	if len(feedback) != len(want) {
		t.Fatalf("Expected %d feedback entries, got %+v", len(want), feedback)
	}
	for i, fb := range feedback {
		if fb.Status != want[i] || fb.Reviewer != "archivist" {
			t.Errorf("Entry %d: unexpected feedback %+v", i, fb)
		}
	}
}

func TestRecordErrors(t *testing.T) {
	srv, _ := setupServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/records/abc", http.StatusBadRequest},
		{"/api/records/42", http.StatusNotFound},
		{"/api/records/42/jsonld", http.StatusNotFound},
		{"/api/records/42/feedback", http.StatusNotFound},
		{"/api/records/42/unknown", http.StatusNotFound},
		{"/api/history?limit=-1", http.StatusBadRequest},
		{"/api/sessions/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		if resp := get(t, srv.URL+tt.path); resp.StatusCode != tt.want {
			t.Errorf("GET %s: expected %d, got %d", tt.path, tt.want, resp.StatusCode)
		}
	}
}

func TestSessions(t *testing.T) {
	srv, _ := setupServer(t)

	resp := postJSON(t, srv.URL+"/api/sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	created := decode[session.Stats](t, resp)

	list := decode[[]session.Stats](t, get(t, srv.URL+"/api/sessions"))
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("Unexpected session list %+v", list)
	}

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/"+created.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", del.StatusCode)
	}
}
