package model

import (
	"time"

	"github.com/google/uuid"
)

// Preferences is a flat per-owner settings record. Owners are opaque
// identifier strings; there is no referential integrity beyond lookup.
type Preferences struct {
	Owner         string    `json:"owner"`
	ExportFormat  string    `json:"export_format"`
	ExportQuality int       `json:"export_quality"`
	AutoOrient    bool      `json:"auto_orient"`
	ThumbnailSize int       `json:"thumbnail_size"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DefaultPreferences returns the settings applied when an owner has never
// stored any.
func DefaultPreferences(owner string) Preferences {
	return Preferences{
		Owner:         owner,
		ExportFormat:  "jpeg",
		ExportQuality: 90,
		AutoOrient:    true,
		ThumbnailSize: 256,
	}
}

// RecentProject records a processed image an owner recently worked on.
type RecentProject struct {
	ID        uuid.UUID `json:"id"`
	Owner     string    `json:"owner"`
	ImageID   uuid.UUID `json:"image_id"`
	JobID     uuid.UUID `json:"job_id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}
