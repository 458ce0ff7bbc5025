// Package assets stores job attachment bytes on disk. Each job gets its
// own directory under the storage root; filenames are random with an
// extension derived from the MIME type, and a sha-256 of the content is
// recorded on the asset row.
package assets

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/domain"
	"github.com/quizgen-io/quizgen-api/internal/platform/logger"
)

// ErrUpload is returned when asset bytes cannot be written to disk.
var ErrUpload = errors.New("failed to store asset")

// extensions maps the MIME types the pipeline accepts to file extensions.
// Unknown types fall back to .bin.
var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Storage writes and removes asset files under a root directory.
type Storage struct {
	root   string
	logger *slog.Logger
}

// NewStorage creates an asset storage rooted at the given directory,
// creating it if necessary.
func NewStorage(root string, log *slog.Logger) (*Storage, error) {
	if root == "" {
		return nil, errors.New("assets root cannot be empty")
	}
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create assets root: %w", err)
	}

	return &Storage{
		root:   root,
		logger: log.With(slog.String("component", "asset_storage")),
	}, nil
}

// Save writes the given bytes under the job's directory and returns the
// asset metadata (path relative to the root, MIME type, byte size,
// sha-256). Returns ErrUpload wrapped around the underlying cause on any
// write failure.
func (s *Storage) Save(ctx context.Context, jobID uuid.UUID, data []byte, mimeType string) (*domain.Asset, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrUpload)
	}

	dir := filepath.Join(s.root, jobID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	name, err := randomName()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	ext, ok := extensions[mimeType]
	if !ok {
		ext = ".bin"
	}

	relPath := filepath.Join(jobID.String(), name+ext)
	if err := os.WriteFile(filepath.Join(s.root, relPath), data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	sum := sha256.Sum256(data)

	asset := &domain.Asset{
		ID:        uuid.New(),
		JobID:     jobID,
		Path:      relPath,
		MimeType:  mimeType,
		ByteSize:  int64(len(data)),
		SHA256:    hex.EncodeToString(sum[:]),
		CreatedAt: time.Now().UTC(),
	}

	log.Debug("asset stored",
		slog.String("job_id", jobID.String()),
		slog.String("path", relPath),
		slog.Int64("byte_size", asset.ByteSize))

	return asset, nil
}

// Read loads the bytes of a stored asset.
func (s *Storage) Read(ctx context.Context, asset *domain.Asset) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, asset.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to read asset %s: %w", asset.Path, err)
	}
	return data, nil
}

// RemoveJobFiles deletes the job's asset directory best-effort and returns
// the number of files removed. Missing or unreadable files are not errors;
// rollback must not abort halfway through a batch.
func (s *Storage) RemoveJobFiles(ctx context.Context, jobID uuid.UUID) int {
	log := logger.FromContextOrDefault(ctx, s.logger)

	dir := filepath.Join(s.root, jobID.String())
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			log.Warn("failed to remove asset file",
				slog.String("job_id", jobID.String()),
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	// Remove the directory itself if now empty; best-effort.
	_ = os.Remove(dir)

	return removed
}

// randomName returns a 32-character hex filename.
func randomName() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
