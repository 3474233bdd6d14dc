package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority is a coarse scheduling hint controlling queue insertion order.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// ParsePriority parses a priority string, defaulting empty to normal.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return Priority(s), nil
	case "":
		return PriorityNormal, nil
	default:
		return "", fmt.Errorf("unknown priority: %q", s)
	}
}

// JobStatus represents the lifecycle of a processing job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Export holds the output encoding parameters of a job.
type Export struct {
	Format  string `json:"format"`  // "jpeg" or "png"
	Quality int    `json:"quality"` // JPEG quality 1-100
}

// Job is a queued request to apply an ordered list of operations to one image.
type Job struct {
	ID         uuid.UUID   `json:"id"`
	Owner      string      `json:"owner,omitempty"`
	ImageID    uuid.UUID   `json:"image_id"`
	Operations []Operation `json:"operations"`
	Priority   Priority    `json:"priority"`
	Export     Export      `json:"export"`
	Thumbnail  bool        `json:"thumbnail"`
	AutoOrient bool        `json:"auto_orient"`

	Status    JobStatus `json:"status"`
	Progress  float64   `json:"progress"` // 0..1, advanced after each operation
	Error     string    `json:"error,omitempty"`
	Result    *Result   `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Result is the output record of a completed processing run.
type Result struct {
	SourcePath    string      `json:"source_path"`
	OutputPath    string      `json:"output_path"`
	ThumbnailPath string      `json:"thumbnail_path,omitempty"`
	SizeBytes     int64       `json:"size_bytes"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	ElapsedMS     int64       `json:"elapsed_ms"`
	Operations    []Operation `json:"operations"`
}
