// Package sqlite persists scan runs and their findings for later inspection.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/llmgate/llmgate/internal/domain"
	"github.com/llmgate/llmgate/internal/usecase/scan"
)

// Store implements the scan.RunRecorder interface using SQLite.
type Store struct {
	db *sql.DB
}

// FindingRow is a stored finding. Summary holds the fields decoded from the
// payload at save time; it stays zero for payloads that are not objects.
type FindingRow struct {
	scan.FindingRecord
	Summary domain.Finding
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Stores metadata about each scan run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		code_dir TEXT NOT NULL,
		files INTEGER NOT NULL,
		chunks INTEGER NOT NULL,
		finding_count INTEGER NOT NULL,
		verdict TEXT NOT NULL CHECK(verdict IN ('ok', 'blocked'))
	);

	-- Model-reported findings. The payload is the raw JSON the model
	-- returned; message, severity and reported_line are decoded from it for
	-- querying and stay empty when the payload is not an object.
	CREATE TABLE IF NOT EXISTS findings (
		finding_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		file TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		line_start INTEGER NOT NULL,
		line_end INTEGER NOT NULL,
		payload TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		severity TEXT NOT NULL DEFAULT '',
		reported_file TEXT NOT NULL DEFAULT '',
		reported_line TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores a run and its findings in a single transaction.
func (s *Store) SaveRun(ctx context.Context, rec scan.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, timestamp, code_dir, files, chunks, finding_count, verdict)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.RunID,
		rec.Timestamp.Unix(),
		rec.CodeDir,
		rec.Files,
		rec.Chunks,
		rec.FindingCount,
		rec.Verdict,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO findings (run_id, file, chunk_index, line_start, line_end, payload, message, severity, reported_file, reported_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, finding := range rec.Findings {
		// Payloads pass the container check only, so an element may be any
		// JSON value. Non-objects keep empty summary columns.
		summary, err := domain.DecodeFinding(finding.Payload)
		if err != nil {
			summary = domain.Finding{}
		}

		if _, err := stmt.ExecContext(ctx,
			rec.RunID,
			finding.File,
			finding.ChunkIndex,
			finding.LineStart,
			finding.LineEnd,
			string(finding.Payload),
			summary.Message,
			summary.Severity,
			summary.FilePath,
			string(summary.Line),
		); err != nil {
			return fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID, without its findings.
func (s *Store) GetRun(ctx context.Context, runID string) (scan.RunRecord, error) {
	query := `
		SELECT run_id, timestamp, code_dir, files, chunks, finding_count, verdict
		FROM runs
		WHERE run_id = ?
	`

	var rec scan.RunRecord
	var timestamp int64

	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&rec.RunID,
		&timestamp,
		&rec.CodeDir,
		&rec.Files,
		&rec.Chunks,
		&rec.FindingCount,
		&rec.Verdict,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return scan.RunRecord{}, fmt.Errorf("run not found: %s", runID)
		}
		return scan.RunRecord{}, fmt.Errorf("failed to get run: %w", err)
	}

	rec.Timestamp = time.Unix(timestamp, 0)
	return rec, nil
}

// ListRuns retrieves the most recent runs, limited by the given count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]scan.RunRecord, error) {
	query := `
		SELECT run_id, timestamp, code_dir, files, chunks, finding_count, verdict
		FROM runs
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []scan.RunRecord
	for rows.Next() {
		var rec scan.RunRecord
		var timestamp int64

		if err := rows.Scan(
			&rec.RunID,
			&timestamp,
			&rec.CodeDir,
			&rec.Files,
			&rec.Chunks,
			&rec.FindingCount,
			&rec.Verdict,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		rec.Timestamp = time.Unix(timestamp, 0)
		runs = append(runs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetFindingsByRun retrieves all findings for a given run, in insertion
// order.
func (s *Store) GetFindingsByRun(ctx context.Context, runID string) ([]FindingRow, error) {
	query := `
		SELECT file, chunk_index, line_start, line_end, payload, message, severity, reported_file, reported_line
		FROM findings
		WHERE run_id = ?
		ORDER BY finding_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get findings by run: %w", err)
	}
	defer rows.Close()

	var findings []FindingRow
	for rows.Next() {
		var finding FindingRow
		var payload string
		var line string

		if err := rows.Scan(
			&finding.File,
			&finding.ChunkIndex,
			&finding.LineStart,
			&finding.LineEnd,
			&payload,
			&finding.Summary.Message,
			&finding.Summary.Severity,
			&finding.Summary.FilePath,
			&line,
		); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}

		finding.Payload = json.RawMessage(payload)
		finding.Summary.Line = domain.LineRef(line)
		findings = append(findings, finding)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating findings: %w", err)
	}

	return findings, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
