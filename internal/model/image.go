package model

import (
	"time"

	"github.com/google/uuid"
)

// Image represents an uploaded source image stored in object storage.
type Image struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	Path        string    `json:"file_path"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Orientation int       `json:"orientation,omitempty"` // EXIF orientation tag, 0 when absent
	CameraModel string    `json:"camera_model,omitempty"`
	TakenAt     time.Time `json:"taken_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
