package storage

// Schema creates the four curator tables. Every row carries created_at as a
// fixed-width UTC timestamp so that text ordering matches time ordering.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata_records (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    file_name        TEXT NOT NULL,
    schema_type      TEXT NOT NULL,
    dublin_core      TEXT NOT NULL DEFAULT '{}',
    isad_g           TEXT NOT NULL DEFAULT '{}',
    suggestions      TEXT NOT NULL DEFAULT '[]',
    extraction_notes TEXT NOT NULL DEFAULT '[]',
    quality_metrics  TEXT NOT NULL DEFAULT 'null',
    confidence_score REAL NOT NULL DEFAULT 0,
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS validation_results (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    metadata_id        INTEGER NOT NULL REFERENCES metadata_records(id),
    is_valid           INTEGER NOT NULL,
    completeness_score REAL NOT NULL,
    missing_fields     TEXT NOT NULL DEFAULT '[]',
    invalid_fields     TEXT NOT NULL DEFAULT '[]',
    warnings           TEXT NOT NULL DEFAULT '[]',
    created_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS human_feedback (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    metadata_id       INTEGER NOT NULL REFERENCES metadata_records(id),
    validation_status TEXT NOT NULL
                      CHECK(validation_status IN ('undetermined', 'approved', 'needs_revision', 'rejected')),
    feedback          TEXT NOT NULL DEFAULT '',
    user_id           TEXT NOT NULL DEFAULT 'user',
    created_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS inconsistency_reports (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    report_type  TEXT NOT NULL,
    issues       TEXT NOT NULL,
    metadata_ids TEXT NOT NULL DEFAULT '[]',
    created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_created ON metadata_records(created_at);
CREATE INDEX IF NOT EXISTS idx_validation_record ON validation_results(metadata_id);
CREATE INDEX IF NOT EXISTS idx_feedback_record ON human_feedback(metadata_id);
`
