/**
 * PostgreSQL store for the land-record worker
 *
 * Persists job status and extraction records in the landrecord schema.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const postgresSchema = `
CREATE SCHEMA IF NOT EXISTS landrecord;

CREATE TABLE IF NOT EXISTS landrecord.jobs (
	id                 TEXT PRIMARY KEY,
	source_path        TEXT NOT NULL DEFAULT '',
	mode               TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL,
	processing_time_ms BIGINT,
	error_code         TEXT,
	error_message      TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS landrecord.extractions (
	job_id          TEXT PRIMARY KEY,
	run_id          TEXT NOT NULL,
	source_path     TEXT NOT NULL,
	document_type   TEXT NOT NULL,
	fields          JSONB NOT NULL,
	flat_text       TEXT NOT NULL,
	total_pages     INTEGER NOT NULL,
	fragment_count  INTEGER NOT NULL,
	mean_confidence NUMERIC(5,4) NOT NULL,
	languages       TEXT[] NOT NULL DEFAULT '{}',
	processing_ms   BIGINT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
`

// JobUpdate represents a job status update
type JobUpdate struct {
	JobID            string
	SourcePath       string
	Mode             string
	Status           string
	ProcessingTimeMs int64
	ErrorCode        string
	ErrorMessage     string
}

// PostgresStore handles database operations
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to databaseURL and creates the schema if needed
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// UpdateJobStatus upserts the job row. Empty fields keep their stored value.
func (p *PostgresStore) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	if update.JobID == "" {
		return fmt.Errorf("job ID is required")
	}
	if update.Status == "" {
		return fmt.Errorf("status is required")
	}

	query := `
		INSERT INTO landrecord.jobs (
			id, source_path, mode, status, processing_time_ms,
			error_code, error_message, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, NULLIF($5, 0),
			NULLIF($6, ''), NULLIF($7, ''), NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			source_path = COALESCE(NULLIF(EXCLUDED.source_path, ''), landrecord.jobs.source_path),
			mode = COALESCE(NULLIF(EXCLUDED.mode, ''), landrecord.jobs.mode),
			processing_time_ms = COALESCE(EXCLUDED.processing_time_ms, landrecord.jobs.processing_time_ms),
			error_code = EXCLUDED.error_code,
			error_message = EXCLUDED.error_message,
			updated_at = NOW()
	`

	_, err := p.db.ExecContext(ctx, query,
		update.JobID,            // $1
		update.SourcePath,       // $2
		update.Mode,             // $3
		update.Status,           // $4
		update.ProcessingTimeMs, // $5
		update.ErrorCode,        // $6
		update.ErrorMessage,     // $7
	)
	if err != nil {
		return fmt.Errorf("failed to update job status (job=%s, status=%s): %w",
			update.JobID, update.Status, err)
	}
	return nil
}

// SaveRecord upserts the extraction for entry.JobID
func (p *PostgresStore) SaveRecord(ctx context.Context, entry *RecordEntry) error {
	if entry == nil || entry.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	fieldsJSON, err := json.Marshal(entry.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	query := `
		INSERT INTO landrecord.extractions (
			job_id, run_id, source_path, document_type, fields, flat_text,
			total_pages, fragment_count, mean_confidence, languages,
			processing_ms, created_at
		) VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9::NUMERIC(5,4), $10, $11, $12)
		ON CONFLICT (job_id) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			source_path = EXCLUDED.source_path,
			document_type = EXCLUDED.document_type,
			fields = EXCLUDED.fields,
			flat_text = EXCLUDED.flat_text,
			total_pages = EXCLUDED.total_pages,
			fragment_count = EXCLUDED.fragment_count,
			mean_confidence = EXCLUDED.mean_confidence,
			languages = EXCLUDED.languages,
			processing_ms = EXCLUDED.processing_ms,
			created_at = EXCLUDED.created_at
	`

	_, err = p.db.ExecContext(ctx, query,
		entry.JobID,
		entry.RunID,
		entry.SourcePath,
		entry.DocumentType,
		fieldsJSON,
		entry.Text,
		entry.TotalPages,
		entry.FragmentCount,
		sanitizeConfidence(entry.MeanConfidence),
		pq.Array(entry.Languages),
		entry.ProcessingMs,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store extraction (job=%s): %w", entry.JobID, err)
	}
	return nil
}

// GetRecord retrieves the extraction stored for jobID
func (p *PostgresStore) GetRecord(ctx context.Context, jobID string) (*RecordEntry, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	query := `
		SELECT job_id, run_id, source_path, document_type, fields, flat_text,
			total_pages, fragment_count, mean_confidence, languages,
			processing_ms, created_at
		FROM landrecord.extractions
		WHERE job_id = $1
	`

	var entry RecordEntry
	var fieldsJSON []byte
	var languages pq.StringArray

	err := p.db.QueryRowContext(ctx, query, jobID).Scan(
		&entry.JobID, &entry.RunID, &entry.SourcePath, &entry.DocumentType,
		&fieldsJSON, &entry.Text, &entry.TotalPages, &entry.FragmentCount,
		&entry.MeanConfidence, &languages, &entry.ProcessingMs, &entry.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("extraction not found: %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extraction: %w", err)
	}

	if err := json.Unmarshal(fieldsJSON, &entry.Fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
	}
	entry.Languages = []string(languages)

	return &entry, nil
}

// Ping checks database connectivity
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresStore) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// GetStats returns connection pool statistics
func (p *PostgresStore) GetStats() sql.DBStats {
	return p.db.Stats()
}
