// Package clistore persists the photoctl client's local record of submitted
// projects in a small SQLite database, so recent work survives across
// invocations without talking to the server.
package clistore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// ErrLocked is returned when another photoctl process holds the store lock.
var ErrLocked = errors.New("local store is locked by another process")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
    job_id     TEXT PRIMARY KEY,
    image_id   TEXT NOT NULL,
    title      TEXT NOT NULL DEFAULT '',
    status     TEXT NOT NULL DEFAULT 'pending',
    output     TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// Project is one locally recorded submission.
type Project struct {
	JobID     string
	ImageID   string
	Title     string
	Status    string
	Output    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store manages the local project database. A file lock guards against
// concurrent photoctl invocations writing the same database.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string
}

// Open initializes or connects to the local store under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "photoctl.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	dbPath := filepath.Join(dir, "projects.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, lock: lock, path: dbPath}, nil
}

// Close closes the database and releases the lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Add records a newly submitted project.
func (s *Store) Add(ctx context.Context, p Project) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (job_id, image_id, title, status, output, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (job_id) DO UPDATE
		SET status = excluded.status, output = excluded.output, updated_at = excluded.updated_at
	`, p.JobID, p.ImageID, p.Title, p.Status, p.Output, now, now)
	if err != nil {
		return fmt.Errorf("add project: %w", err)
	}

	return nil
}

// SetStatus updates the status and output path of a recorded project.
func (s *Store) SetStatus(ctx context.Context, jobID, status, output string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx, `
		UPDATE projects SET status = ?, output = ?, updated_at = ? WHERE job_id = ?
	`, status, output, now, jobID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}

	return nil
}

// List returns the most recently updated projects, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Project, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, image_id, title, status, output, created_at, updated_at
		FROM projects
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var created, updated string

		if err := rows.Scan(&p.JobID, &p.ImageID, &p.Title, &p.Status, &p.Output, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}

		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return projects, nil
}
