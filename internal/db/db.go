// Package db provides PostgreSQL persistence for classification runs and
// their final artifacts. Persistence is optional: the pipeline runs fully
// from files when no database URL is configured.
//
// Expected schema:
//
//	CREATE TABLE classification_runs (
//	    id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
//	    input_path   TEXT NOT NULL,
//	    model        TEXT NOT NULL,
//	    status       TEXT NOT NULL,
//	    started_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    completed_at TIMESTAMPTZ
//	);
//
//	CREATE TABLE run_artifacts (
//	    run_id     UUID NOT NULL REFERENCES classification_runs(id),
//	    step       TEXT NOT NULL,
//	    content    JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (run_id, step)
//	);
package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Artifact step names for the final outputs of a run.
const (
	StepScoredParagraphs = "paragraphs_scored"
	StepDocumentSummary  = "documents_summary"
	StepRunReport        = "run_report"
)

// Run status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// CreateRun creates a new classification run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, inputPath, model string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO classification_runs (input_path, model, status)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		inputPath, model, StatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a classification run as completed or failed
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE classification_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveArtifact stores a JSON artifact for a run, overwriting any previous
// artifact for the same step
func (db *DB) SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error {
	jsonBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO run_artifacts (run_id, step, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, step) DO UPDATE SET content = $3, created_at = NOW()`,
		runID, step, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", step, err)
	}
	return nil
}

// GetArtifact loads a run artifact's raw JSON content. Returns nil content
// when no artifact exists for the step.
func (db *DB) GetArtifact(ctx context.Context, runID uuid.UUID, step string) (json.RawMessage, error) {
	var content json.RawMessage
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM run_artifacts WHERE run_id = $1 AND step = $2`,
		runID, step,
	).Scan(&content)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact %s: %w", step, err)
	}
	return content, nil
}
