/**
 * PostgreSQL Client for the OCR verification worker
 *
 * Handles job status persistence and storage of document/verification
 * results.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresClient handles database operations
type PostgresClient struct {
	db *sql.DB
}

// JobUpdate represents a job status update
type JobUpdate struct {
	JobID            string
	Status           string
	Confidence       float64
	ProcessingTimeMs int64
	ErrorCode        string
	ErrorMessage     string
	Metadata         map[string]interface{}
}

// ResultRecord holds the serialized outcome of one processed document.
type ResultRecord struct {
	JobID              string
	UserID             string
	Filename           string
	PageCount          int
	Confidence         float64
	DetectedLanguage   string
	DocumentResult     interface{}
	VerificationReport interface{}
}

// sanitizeConfidence rounds confidence to 4 decimal places and clamps to
// [0,1]; float64 noise like 0.9632000000000001 otherwise trips NUMERIC
// casts on the database side.
func sanitizeConfidence(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return float64(int(confidence*10000+0.5)) / 10000
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
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
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// UpdateJobStatus upserts the job row so the worker can create it even
// when no API layer did.
func (p *PostgresClient) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	if update.JobID == "" {
		return fmt.Errorf("job ID is required")
	}
	if update.Status == "" {
		return fmt.Errorf("status is required")
	}

	metadataJSON, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO ocr.processing_jobs (
			id, status, confidence, processing_time_ms,
			error_code, error_message, metadata,
			created_at, updated_at
		) VALUES (
			$1::uuid, $2, NULLIF($3::NUMERIC(5,4), 0), NULLIF($4, 0),
			NULLIF($5, ''), NULLIF($6, ''),
			COALESCE($7::jsonb, '{}'::jsonb),
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			confidence = COALESCE(NULLIF(EXCLUDED.confidence::NUMERIC(5,4), 0), ocr.processing_jobs.confidence),
			processing_time_ms = COALESCE(NULLIF(EXCLUDED.processing_time_ms, 0), ocr.processing_jobs.processing_time_ms),
			error_code = NULLIF(EXCLUDED.error_code, ''),
			error_message = NULLIF(EXCLUDED.error_message, ''),
			metadata = COALESCE(EXCLUDED.metadata, ocr.processing_jobs.metadata),
			updated_at = NOW()
		RETURNING id
	`

	var returnedID string
	err = p.db.QueryRowContext(
		ctx,
		query,
		update.JobID,
		update.Status,
		sanitizeConfidence(update.Confidence),
		update.ProcessingTimeMs,
		update.ErrorCode,
		update.ErrorMessage,
		metadataJSON,
	).Scan(&returnedID)

	if err == sql.ErrNoRows {
		return fmt.Errorf("job not found: %s", update.JobID)
	}
	if err != nil {
		return fmt.Errorf("failed to update job status (job=%s, status=%s): %w",
			update.JobID, update.Status, err)
	}
	return nil
}

// StoreResult persists the document result and verification report as
// JSONB and returns the row id.
func (p *PostgresClient) StoreResult(ctx context.Context, rec *ResultRecord) (string, error) {
	if rec.JobID == "" {
		return "", fmt.Errorf("job ID is required")
	}

	docJSON, err := json.Marshal(rec.DocumentResult)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document result: %w", err)
	}
	var verifyJSON []byte
	if rec.VerificationReport != nil {
		verifyJSON, err = json.Marshal(rec.VerificationReport)
		if err != nil {
			return "", fmt.Errorf("failed to marshal verification report: %w", err)
		}
	}

	query := `
		INSERT INTO ocr.document_results (
			id, job_id, user_id, filename, page_count,
			confidence, detected_language,
			document_result, verification_report,
			created_at
		) VALUES (
			$1::uuid, $2::uuid, NULLIF($3, ''), NULLIF($4, ''), $5,
			$6::NUMERIC(5,4), NULLIF($7, ''),
			$8::jsonb, NULLIF($9, '')::jsonb,
			NOW()
		)
		RETURNING id
	`

	resultID := uuid.New().String()
	var returnedID string
	err = p.db.QueryRowContext(
		ctx,
		query,
		resultID,
		rec.JobID,
		rec.UserID,
		rec.Filename,
		rec.PageCount,
		sanitizeConfidence(rec.Confidence),
		rec.DetectedLanguage,
		docJSON,
		string(verifyJSON),
	).Scan(&returnedID)
	if err != nil {
		return "", fmt.Errorf("failed to store result (job=%s): %w", rec.JobID, err)
	}
	return returnedID, nil
}

// Ping checks database connectivity
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresClient) Close() error {
	return p.db.Close()
}
