package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/lehigh-university-libraries/curator/internal/inconsistency"
	"github.com/lehigh-university-libraries/curator/internal/models"
	"github.com/lehigh-university-libraries/curator/internal/schema"
	"github.com/lehigh-university-libraries/curator/internal/validation"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const defaultReviewer = "user"

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidStatus is returned for feedback with an unknown status.
	ErrInvalidStatus = errors.New("invalid validation status")
)

// Error is returned by every failing Store operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// Store persists records, validation reports, review feedback and
// inconsistency reports in a SQLite database. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fail("open", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fail("migrate", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// StoredRecord is a record as persisted, with its identifiers.
type StoredRecord struct {
	ID         int64         `json:"id"`
	FileName   string        `json:"file_name"`
	SchemaType schema.Type   `json:"schema_type"`
	Record     models.Record `json:"metadata"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// SaveRecord inserts a record and returns its id.
func (s *Store) SaveRecord(ctx context.Context, fileName string, rec models.Record, schemaType schema.Type) (int64, error) {
	dc, err := json.Marshal(sectionOrEmpty(rec.DublinCore))
	if err != nil {
		return 0, fail("save record", err)
	}
	isad, err := json.Marshal(sectionOrEmpty(rec.ISADG))
	if err != nil {
		return 0, fail("save record", err)
	}
	suggestions, err := json.Marshal(listOrEmpty(rec.Suggestions))
	if err != nil {
		return 0, fail("save record", err)
	}
	notes, err := json.Marshal(listOrEmpty(rec.ExtractionNotes))
	if err != nil {
		return 0, fail("save record", err)
	}
	metrics, err := json.Marshal(rec.QualityMetrics)
	if err != nil {
		return 0, fail("save record", err)
	}

	now := s.timestamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata_records (file_name, schema_type, dublin_core, isad_g, suggestions, extraction_notes, quality_metrics, confidence_score, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fileName, string(schemaType), string(dc), string(isad), string(suggestions), string(notes), string(metrics), rec.ConfidenceScore, now, now,
	)
	if err != nil {
		return 0, fail("save record", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fail("save record", err)
	}
	return id, nil
}

// SaveValidation stores a validation report for an existing record.
func (s *Store) SaveValidation(ctx context.Context, recordID int64, report validation.Report) (int64, error) {
	if err := s.exists(ctx, recordID); err != nil {
		return 0, fail("save validation", err)
	}

	missing, err := json.Marshal(listOrEmpty(report.MissingFields))
	if err != nil {
		return 0, fail("save validation", err)
	}
	invalid, err := json.Marshal(listOrEmpty(report.InvalidFields))
	if err != nil {
		return 0, fail("save validation", err)
	}
	warnings, err := json.Marshal(listOrEmpty(report.Warnings))
	if err != nil {
		return 0, fail("save validation", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO validation_results (metadata_id, is_valid, completeness_score, missing_fields, invalid_fields, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		recordID, report.IsValid, report.CompletenessScore, string(missing), string(invalid), string(warnings), s.timestamp(),
	)
	if err != nil {
		return 0, fail("save validation", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fail("save validation", err)
	}
	return id, nil
}

// SaveFeedback appends a review to a record's history and returns it as
// stored. An empty reviewer is recorded as "user".
func (s *Store) SaveFeedback(ctx context.Context, fb models.HumanFeedback) (models.HumanFeedback, error) {
	if !fb.Status.Valid() {
		return models.HumanFeedback{}, fail("save feedback", fmt.Errorf("%w: %q", ErrInvalidStatus, fb.Status))
	}
	if err := s.exists(ctx, fb.RecordID); err != nil {
		return models.HumanFeedback{}, fail("save feedback", err)
	}
	if fb.Reviewer == "" {
		fb.Reviewer = defaultReviewer
	}

	now := s.timestamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO human_feedback (metadata_id, validation_status, feedback, user_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		fb.RecordID, string(fb.Status), fb.Comment, fb.Reviewer, now,
	)
	if err != nil {
		return models.HumanFeedback{}, fail("save feedback", err)
	}
	if fb.ID, err = res.LastInsertId(); err != nil {
		return models.HumanFeedback{}, fail("save feedback", err)
	}
	fb.CreatedAt = parseTime(now)
	return fb, nil
}

// SaveInconsistencyReport stores an advisory report together with the ids of
// the records it covers.
func (s *Store) SaveInconsistencyReport(ctx context.Context, reportType string, report inconsistency.Report, recordIDs []int64) (int64, error) {
	issues, err := json.Marshal(report)
	if err != nil {
		return 0, fail("save inconsistency report", err)
	}
	if recordIDs == nil {
		recordIDs = []int64{}
	}
	ids, err := json.Marshal(recordIDs)
	if err != nil {
		return 0, fail("save inconsistency report", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO inconsistency_reports (report_type, issues, metadata_ids, created_at) VALUES (?, ?, ?, ?)`,
		reportType, string(issues), string(ids), s.timestamp(),
	)
	if err != nil {
		return 0, fail("save inconsistency report", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fail("save inconsistency report", err)
	}
	return id, nil
}

func (s *Store) exists(ctx context.Context, recordID int64) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM metadata_records WHERE id = ?`, recordID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", ErrNotFound, recordID)
	}
	return err
}

const recordColumns = `id, file_name, schema_type, dublin_core, isad_g, suggestions, extraction_notes, quality_metrics, confidence_score, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (StoredRecord, error) {
	var (
		sr                    StoredRecord
		schemaType            string
		dc, isad, suggestions string
		notes, metrics        string
		createdAt, updatedAt  string
	)
	if err := row.Scan(&sr.ID, &sr.FileName, &schemaType, &dc, &isad, &suggestions, &notes, &metrics, &sr.Record.ConfidenceScore, &createdAt, &updatedAt); err != nil {
		return StoredRecord{}, err
	}
	sr.SchemaType = schema.Type(schemaType)
	if err := json.Unmarshal([]byte(dc), &sr.Record.DublinCore); err != nil {
		return StoredRecord{}, fmt.Errorf("decode dublin_core: %w", err)
	}
	if err := json.Unmarshal([]byte(isad), &sr.Record.ISADG); err != nil {
		return StoredRecord{}, fmt.Errorf("decode isad_g: %w", err)
	}
	if err := json.Unmarshal([]byte(suggestions), &sr.Record.Suggestions); err != nil {
		return StoredRecord{}, fmt.Errorf("decode suggestions: %w", err)
	}
	if err := json.Unmarshal([]byte(notes), &sr.Record.ExtractionNotes); err != nil {
		return StoredRecord{}, fmt.Errorf("decode extraction_notes: %w", err)
	}
	if len(sr.Record.ExtractionNotes) == 0 {
		sr.Record.ExtractionNotes = nil
	}
	if err := json.Unmarshal([]byte(metrics), &sr.Record.QualityMetrics); err != nil {
		return StoredRecord{}, fmt.Errorf("decode quality_metrics: %w", err)
	}
	sr.CreatedAt = parseTime(createdAt)
	sr.UpdatedAt = parseTime(updatedAt)
	return sr, nil
}

// GetRecord loads one record by id.
func (s *Store) GetRecord(ctx context.Context, id int64) (StoredRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM metadata_records WHERE id = ?`, id)
	sr, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredRecord{}, fail("get record", fmt.Errorf("%w: %d", ErrNotFound, id))
	}
	if err != nil {
		return StoredRecord{}, fail("get record", err)
	}
	return sr, nil
}

// Records returns up to limit records, most recent first. A limit of zero or
// less returns every record.
func (s *Store) Records(ctx context.Context, limit int) ([]StoredRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM metadata_records ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fail("list records", err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		sr, err := scanRecord(rows)
		if err != nil {
			return nil, fail("list records", err)
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("list records", err)
	}
	return out, nil
}

// Feedback returns the review history of a record, oldest first.
func (s *Store) Feedback(ctx context.Context, recordID int64) ([]models.HumanFeedback, error) {
	if err := s.exists(ctx, recordID); err != nil {
		return nil, fail("list feedback", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, metadata_id, validation_status, feedback, user_id, created_at
		 FROM human_feedback WHERE metadata_id = ? ORDER BY created_at, id`, recordID)
	if err != nil {
		return nil, fail("list feedback", err)
	}
	defer rows.Close()

	out := []models.HumanFeedback{}
	for rows.Next() {
		var (
			fb        models.HumanFeedback
			status    string
			createdAt string
		)
		if err := rows.Scan(&fb.ID, &fb.RecordID, &status, &fb.Comment, &fb.Reviewer, &createdAt); err != nil {
			return nil, fail("list feedback", err)
		}
		fb.Status = models.ValidationStatus(status)
		fb.CreatedAt = parseTime(createdAt)
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("list feedback", err)
	}
	return out, nil
}

// HistoryEntry is one row of the record/validation/feedback join. Validation
// and feedback columns are nil or empty when the record has none.
type HistoryEntry struct {
	RecordID          int64                   `json:"id" yaml:"id"`
	FileName          string                  `json:"file_name" yaml:"file_name"`
	SchemaType        schema.Type             `json:"schema_type" yaml:"schema_type"`
	ConfidenceScore   float64                 `json:"confidence_score" yaml:"confidence_score"`
	CreatedAt         time.Time               `json:"created_at" yaml:"created_at"`
	IsValid           *bool                   `json:"is_valid,omitempty" yaml:"is_valid,omitempty"`
	CompletenessScore *float64                `json:"completeness_score,omitempty" yaml:"completeness_score,omitempty"`
	ValidationStatus  models.ValidationStatus `json:"validation_status,omitempty" yaml:"validation_status,omitempty"`
	Feedback          string                  `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// History joins records with their validation results and feedback, most
// recent record first. A record with several validations or reviews appears
// once per combination.
func (s *Store) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.file_name, m.schema_type, m.confidence_score, m.created_at,
		       v.is_valid, v.completeness_score, h.validation_status, h.feedback
		FROM metadata_records m
		LEFT JOIN validation_results v ON m.id = v.metadata_id
		LEFT JOIN human_feedback h ON m.id = h.metadata_id
		ORDER BY m.created_at DESC, m.id DESC, v.id DESC, h.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fail("history", err)
	}
	defer rows.Close()

	out := []HistoryEntry{}
	for rows.Next() {
		var (
			e            HistoryEntry
			schemaType   string
			createdAt    string
			isValid      sql.NullBool
			completeness sql.NullFloat64
			status       sql.NullString
			feedback     sql.NullString
		)
		if err := rows.Scan(&e.RecordID, &e.FileName, &schemaType, &e.ConfidenceScore, &createdAt,
			&isValid, &completeness, &status, &feedback); err != nil {
			return nil, fail("history", err)
		}
		e.SchemaType = schema.Type(schemaType)
		e.CreatedAt = parseTime(createdAt)
		if isValid.Valid {
			e.IsValid = &isValid.Bool
		}
		if completeness.Valid {
			e.CompletenessScore = &completeness.Float64
		}
		e.ValidationStatus = models.ValidationStatus(status.String)
		e.Feedback = feedback.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fail("history", err)
	}
	return out, nil
}

// Statistics summarizes the store. Averages are rounded to three decimals
// and are zero for an empty store.
type Statistics struct {
	TotalRecords           int            `json:"total_records" yaml:"total_records"`
	AverageConfidence      float64        `json:"average_confidence" yaml:"average_confidence"`
	AverageCompleteness    float64        `json:"average_completeness" yaml:"average_completeness"`
	SchemaDistribution     map[string]int `json:"schema_distribution" yaml:"schema_distribution"`
	ValidationDistribution map[string]int `json:"validation_distribution" yaml:"validation_distribution"`
}

// Statistics computes record counts, averages and distributions.
func (s *Store) Statistics(ctx context.Context) (Statistics, error) {
	stats := Statistics{
		SchemaDistribution:     map[string]int{},
		ValidationDistribution: map[string]int{},
	}

	var avgConfidence, avgCompleteness sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(confidence_score) FROM metadata_records`,
	).Scan(&stats.TotalRecords, &avgConfidence); err != nil {
		return Statistics{}, fail("statistics", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT AVG(completeness_score) FROM validation_results`,
	).Scan(&avgCompleteness); err != nil {
		return Statistics{}, fail("statistics", err)
	}
	stats.AverageConfidence = round3(avgConfidence.Float64)
	stats.AverageCompleteness = round3(avgCompleteness.Float64)

	if err := s.countBy(ctx, `SELECT schema_type, COUNT(*) FROM metadata_records GROUP BY schema_type`, stats.SchemaDistribution); err != nil {
		return Statistics{}, fail("statistics", err)
	}
	if err := s.countBy(ctx, `SELECT validation_status, COUNT(*) FROM human_feedback GROUP BY validation_status`, stats.ValidationDistribution); err != nil {
		return Statistics{}, fail("statistics", err)
	}
	return stats, nil
}

func (s *Store) countBy(ctx context.Context, query string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func sectionOrEmpty(s models.Section) models.Section {
	if s == nil {
		return models.Section{}
	}
	return s
}

func listOrEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
