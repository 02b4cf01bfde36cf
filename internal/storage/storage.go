// Package storage persists completed analyses so past results can be
// listed and inspected. It is a history of outcomes, not a cache: the
// analyzer never reads from here to skip work.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/repolens/repolens/internal/health"
	"github.com/repolens/repolens/internal/project"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id                     TEXT PRIMARY KEY,
	repo_url               TEXT NOT NULL,
	project_type           TEXT NOT NULL,
	readme_is_present      INTEGER NOT NULL,
	build_successful       INTEGER NOT NULL,
	tests_found_and_passed INTEGER NOT NULL,
	summary_json           TEXT NOT NULL,
	created_at             TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
`

// Record is one stored analysis.
type Record struct {
	ID          string
	RepoURL     string
	ProjectType project.Type
	Health      health.Report
	SummaryJSON string
	CreatedAt   time.Time
}

// Store is the SQLite-backed analysis history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// WAL mode for concurrent readers while an analysis writes.
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a completed analysis.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record ID is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (
			id, repo_url, project_type,
			readme_is_present, build_successful, tests_found_and_passed,
			summary_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RepoURL, string(rec.ProjectType),
		rec.Health.ReadmeIsPresent, rec.Health.BuildSuccessful, rec.Health.TestsFoundAndPassed,
		rec.SummaryJSON, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// List returns stored analyses, newest first. A limit of 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	query := `
		SELECT id, repo_url, project_type,
		       readme_is_present, build_successful, tests_found_and_passed,
		       summary_json, created_at
		FROM analyses
		ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	return records, nil
}

// Get returns one analysis by ID, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repo_url, project_type,
		       readme_is_present, build_successful, tests_found_and_passed,
		       summary_json, created_at
		FROM analyses WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRecord(rows)
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var rec Record
	var projectType string
	if err := rows.Scan(
		&rec.ID, &rec.RepoURL, &projectType,
		&rec.Health.ReadmeIsPresent, &rec.Health.BuildSuccessful, &rec.Health.TestsFoundAndPassed,
		&rec.SummaryJSON, &rec.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan analysis row: %w", err)
	}
	rec.ProjectType = project.Type(projectType)
	return &rec, nil
}
