package image

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"photoflow/internal/model"
)

var ErrImageNotFound = errors.New("image not found")

// Repository provides CRUD operations for uploaded images in the database.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// SaveImage inserts a new image record and returns its UUID.
func (r *Repository) SaveImage(ctx context.Context, img model.Image) (uuid.UUID, error) {
	query := `
		INSERT INTO images (filename, path, content_type, size_bytes, width, height, orientation, camera_model, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '0001-01-01 00:00:00'::timestamp))
		RETURNING id
   `

	var id uuid.UUID
	err := r.db.QueryRowContext(
		ctx, query,
		img.Filename, img.Path, img.ContentType, img.SizeBytes,
		img.Width, img.Height, img.Orientation, img.CameraModel, img.TakenAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save: failed to save image: %w", err)
	}

	return id, nil
}

// GetImage retrieves an image record by ID.
func (r *Repository) GetImage(ctx context.Context, id uuid.UUID) (model.Image, error) {
	query := `
		SELECT filename, path, content_type, size_bytes, width, height, orientation, camera_model, taken_at, created_at
		FROM images
		WHERE id = $1
    `

	var img model.Image
	var cameraModel sql.NullString
	var takenAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&img.Filename, &img.Path, &img.ContentType, &img.SizeBytes,
		&img.Width, &img.Height, &img.Orientation, &cameraModel, &takenAt, &img.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Image{}, ErrImageNotFound
		}

		return model.Image{}, fmt.Errorf("get: failed to get image: %w", err)
	}

	img.ID = id
	img.CameraModel = cameraModel.String
	if takenAt.Valid {
		img.TakenAt = takenAt.Time
	}

	return img, nil
}

// DeleteImage deletes an image record by ID.
func (r *Repository) DeleteImage(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM images WHERE id = $1
    `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: failed to delete image: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: failed to get number of rows affected: %w", err)
	}

	if n == 0 {
		return ErrImageNotFound
	}

	return nil
}
