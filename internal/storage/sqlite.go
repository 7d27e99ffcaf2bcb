/**
 * SQLite record store
 *
 * Local, single-file persistence for CLI runs. Uses the pure-Go modernc
 * driver so no cgo toolchain is needed beyond the recognition engine.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS extractions (
	job_id          TEXT PRIMARY KEY,
	run_id          TEXT NOT NULL,
	source_path     TEXT NOT NULL,
	document_type   TEXT NOT NULL,
	fields          TEXT NOT NULL,
	flat_text       TEXT NOT NULL,
	total_pages     INTEGER NOT NULL,
	fragment_count  INTEGER NOT NULL,
	mean_confidence REAL NOT NULL,
	languages       TEXT NOT NULL,
	processing_ms   INTEGER NOT NULL,
	created_at      TEXT NOT NULL
);
`

// SQLiteStore persists extraction records to a local database file
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	// WAL lets the worker and the CLI share one file
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// SaveRecord inserts or replaces the extraction for entry.JobID
func (s *SQLiteStore) SaveRecord(ctx context.Context, entry *RecordEntry) error {
	if entry == nil || entry.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	fieldsJSON, err := json.Marshal(entry.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields: %w", err)
	}
	languages := entry.Languages
	if languages == nil {
		languages = []string{}
	}
	languagesJSON, err := json.Marshal(languages)
	if err != nil {
		return fmt.Errorf("marshaling languages: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extractions (
			job_id, run_id, source_path, document_type, fields, flat_text,
			total_pages, fragment_count, mean_confidence, languages,
			processing_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			run_id = excluded.run_id,
			source_path = excluded.source_path,
			document_type = excluded.document_type,
			fields = excluded.fields,
			flat_text = excluded.flat_text,
			total_pages = excluded.total_pages,
			fragment_count = excluded.fragment_count,
			mean_confidence = excluded.mean_confidence,
			languages = excluded.languages,
			processing_ms = excluded.processing_ms,
			created_at = excluded.created_at
	`,
		entry.JobID,
		entry.RunID,
		entry.SourcePath,
		entry.DocumentType,
		string(fieldsJSON),
		entry.Text,
		entry.TotalPages,
		entry.FragmentCount,
		sanitizeConfidence(entry.MeanConfidence),
		string(languagesJSON),
		entry.ProcessingMs,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving extraction (job=%s): %w", entry.JobID, err)
	}
	return nil
}

// GetRecord retrieves the extraction stored for jobID
func (s *SQLiteStore) GetRecord(ctx context.Context, jobID string) (*RecordEntry, error) {
	var entry RecordEntry
	var fieldsJSON, languagesJSON, createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT job_id, run_id, source_path, document_type, fields, flat_text,
			total_pages, fragment_count, mean_confidence, languages,
			processing_ms, created_at
		FROM extractions WHERE job_id = ?
	`, jobID).Scan(
		&entry.JobID, &entry.RunID, &entry.SourcePath, &entry.DocumentType,
		&fieldsJSON, &entry.Text, &entry.TotalPages, &entry.FragmentCount,
		&entry.MeanConfidence, &languagesJSON, &entry.ProcessingMs, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("extraction not found: %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &entry.Fields); err != nil {
		return nil, fmt.Errorf("unmarshaling fields: %w", err)
	}
	if err := json.Unmarshal([]byte(languagesJSON), &entry.Languages); err != nil {
		return nil, fmt.Errorf("unmarshaling languages: %w", err)
	}
	if entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &entry, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
