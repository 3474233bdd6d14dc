package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"photoflow/internal/model"
)

var ErrNotFound = errors.New("preferences not found")

// Repository persists per-owner preferences and recent-project records.
// Owners are opaque identifier strings; there is no referential integrity
// beyond lookup by identifier.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// GetPreferences retrieves the stored preferences for an owner.
func (r *Repository) GetPreferences(ctx context.Context, owner string) (model.Preferences, error) {
	query := `
		SELECT export_format, export_quality, auto_orient, thumbnail_size, updated_at
		FROM preferences
		WHERE owner = $1
	`

	p := model.Preferences{Owner: owner}
	err := r.db.QueryRowContext(ctx, query, owner).Scan(
		&p.ExportFormat, &p.ExportQuality, &p.AutoOrient, &p.ThumbnailSize, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Preferences{}, ErrNotFound
		}

		return model.Preferences{}, fmt.Errorf("get: failed to get preferences: %w", err)
	}

	return p, nil
}

// UpsertPreferences stores the owner's preferences, replacing any existing
// record.
func (r *Repository) UpsertPreferences(ctx context.Context, p model.Preferences) error {
	query := `
		INSERT INTO preferences (owner, export_format, export_quality, auto_orient, thumbnail_size, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (owner) DO UPDATE
		SET export_format = EXCLUDED.export_format,
		    export_quality = EXCLUDED.export_quality,
		    auto_orient = EXCLUDED.auto_orient,
		    thumbnail_size = EXCLUDED.thumbnail_size,
		    updated_at = now()
	`

	_, err := r.db.ExecContext(ctx, query, p.Owner, p.ExportFormat, p.ExportQuality, p.AutoOrient, p.ThumbnailSize)
	if err != nil {
		return fmt.Errorf("upsert: failed to save preferences: %w", err)
	}

	return nil
}

// AddRecentProject records a project for the owner and returns its UUID.
func (r *Repository) AddRecentProject(ctx context.Context, rp model.RecentProject) (uuid.UUID, error) {
	query := `
		INSERT INTO recent_projects (owner, image_id, job_id, title)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, rp.Owner, rp.ImageID, rp.JobID, rp.Title).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("add: failed to save recent project: %w", err)
	}

	return id, nil
}

// ListRecentProjects returns the owner's most recently updated projects.
func (r *Repository) ListRecentProjects(ctx context.Context, owner string, limit int) ([]model.RecentProject, error) {
	query := `
		SELECT id, image_id, job_id, title, updated_at
		FROM recent_projects
		WHERE owner = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list: failed to query recent projects: %w", err)
	}
	defer rows.Close()

	var projects []model.RecentProject
	for rows.Next() {
		rp := model.RecentProject{Owner: owner}
		if err := rows.Scan(&rp.ID, &rp.ImageID, &rp.JobID, &rp.Title, &rp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list: failed to scan recent project: %w", err)
		}
		projects = append(projects, rp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows error: %w", err)
	}

	return projects, nil
}
