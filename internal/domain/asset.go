package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Asset-specific validation errors.
var (
	ErrEmptyAssetID    = errors.New("asset ID cannot be empty")
	ErrEmptyAssetJobID = errors.New("asset job ID cannot be empty")
	ErrEmptyAssetPath  = errors.New("asset path cannot be empty")
)

// Asset is the metadata of one binary attachment of a generation job. The
// bytes live on disk under the assets root; the asset row is owned
// exclusively by its job and is deleted when the job is deleted.
type Asset struct {
	ID        uuid.UUID `json:"id"`
	JobID     uuid.UUID `json:"job_id"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mime_type"`
	ByteSize  int64     `json:"byte_size"`
	SHA256    string    `json:"sha256"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks if the Asset has valid data.
func (a *Asset) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAssetID
	}

	if a.JobID == uuid.Nil {
		return ErrEmptyAssetJobID
	}

	if a.Path == "" {
		return ErrEmptyAssetPath
	}

	return nil
}
