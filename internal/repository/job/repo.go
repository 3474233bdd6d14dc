package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"photoflow/internal/model"
)

var ErrJobNotFound = errors.New("job not found")

// Repository persists durable job records: status, fractional progress and
// the result columns filled in on completion. The in-memory queue entry is
// discarded after the job finishes; this record is what clients poll.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// CreateJob inserts a pending job record with the caller-assigned ID.
func (r *Repository) CreateJob(ctx context.Context, j model.Job) error {
	query := `
		INSERT INTO jobs (id, owner, image_id, operations, priority, export_format, export_quality, thumbnail, auto_orient, status, progress)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0)
	`

	opsJSON, err := json.Marshal(j.Operations)
	if err != nil {
		return fmt.Errorf("create: failed to marshal operations: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx, query,
		j.ID, j.Owner, j.ImageID, opsJSON, j.Priority,
		j.Export.Format, j.Export.Quality, j.Thumbnail, j.AutoOrient, model.JobPending,
	)
	if err != nil {
		return fmt.Errorf("create: failed to save job: %w", err)
	}

	return nil
}

// GetJob retrieves a job record by ID, including its result when completed.
func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (model.Job, error) {
	query := `
		SELECT owner, image_id, operations, priority, export_format, export_quality, thumbnail, auto_orient,
		       status, progress, error, output_path, thumbnail_path, size_bytes,
		       width, height, elapsed_ms, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`

	j := model.Job{ID: id}
	var opsJSON []byte
	var errMsg, outputPath, thumbnailPath sql.NullString
	var sizeBytes, elapsedMS sql.NullInt64
	var width, height sql.NullInt64

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&j.Owner, &j.ImageID, &opsJSON, &j.Priority, &j.Export.Format, &j.Export.Quality, &j.Thumbnail, &j.AutoOrient,
		&j.Status, &j.Progress, &errMsg, &outputPath, &thumbnailPath, &sizeBytes,
		&width, &height, &elapsedMS, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Job{}, ErrJobNotFound
		}

		return model.Job{}, fmt.Errorf("get: failed to get job: %w", err)
	}

	if err := json.Unmarshal(opsJSON, &j.Operations); err != nil {
		return model.Job{}, fmt.Errorf("get: failed to unmarshal operations: %w", err)
	}

	j.Error = errMsg.String

	if j.Status == model.JobCompleted && outputPath.Valid {
		j.Result = &model.Result{
			OutputPath:    outputPath.String,
			ThumbnailPath: thumbnailPath.String,
			SizeBytes:     sizeBytes.Int64,
			Width:         int(width.Int64),
			Height:        int(height.Int64),
			ElapsedMS:     elapsedMS.Int64,
			Operations:    j.Operations,
		}
	}

	return j, nil
}

// ListJobs returns the most recently created jobs, newest first.
func (r *Repository) ListJobs(ctx context.Context, limit int) ([]model.Job, error) {
	query := `
		SELECT id, owner, image_id, priority, status, progress, error, created_at, updated_at
		FROM jobs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list: failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		var j model.Job
		var errMsg sql.NullString

		if err := rows.Scan(
			&j.ID, &j.Owner, &j.ImageID, &j.Priority, &j.Status, &j.Progress,
			&errMsg, &j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("list: failed to scan job: %w", err)
		}

		j.Error = errMsg.String
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows error: %w", err)
	}

	return jobs, nil
}

// MarkProcessing transitions a job from pending to processing.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, `
		UPDATE jobs SET status = $2, updated_at = now() WHERE id = $1
	`, model.JobProcessing)
}

// UpdateProgress stores the fractional progress of a running job.
func (r *Repository) UpdateProgress(ctx context.Context, id uuid.UUID, fraction float64) error {
	query := `
		UPDATE jobs SET progress = $2, updated_at = now() WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, fraction)
	if err != nil {
		return fmt.Errorf("progress: failed to update job: %w", err)
	}

	return r.checkAffected(res)
}

// Complete stores the result record and marks the job completed.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID, result *model.Result) error {
	query := `
		UPDATE jobs
		SET status = $2, progress = 1, output_path = $3, thumbnail_path = $4,
		    size_bytes = $5, width = $6, height = $7, elapsed_ms = $8, updated_at = now()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(
		ctx, query, id, model.JobCompleted,
		result.OutputPath, result.ThumbnailPath, result.SizeBytes,
		result.Width, result.Height, result.ElapsedMS,
	)
	if err != nil {
		return fmt.Errorf("complete: failed to update job: %w", err)
	}

	return r.checkAffected(res)
}

// Fail records the failure message and marks the job failed.
func (r *Repository) Fail(ctx context.Context, id uuid.UUID, msg string) error {
	query := `
		UPDATE jobs SET status = $2, error = $3, updated_at = now() WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, model.JobFailed, msg)
	if err != nil {
		return fmt.Errorf("fail: failed to update job: %w", err)
	}

	return r.checkAffected(res)
}

func (r *Repository) setStatus(ctx context.Context, id uuid.UUID, query string, status model.JobStatus) error {
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("status: failed to update job: %w", err)
	}

	return r.checkAffected(res)
}

func (r *Repository) checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get number of rows affected: %w", err)
	}

	if n == 0 {
		return ErrJobNotFound
	}

	return nil
}
