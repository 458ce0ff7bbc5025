package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/domain"
	"github.com/quizgen-io/quizgen-api/internal/platform/logger"
	"github.com/quizgen-io/quizgen-api/internal/store"
)

// AssetStore implements the store.AssetStore interface using PostgreSQL.
type AssetStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewAssetStore creates a new PostgreSQL implementation of the AssetStore
// interface. If logger is nil, a default logger is used.
func NewAssetStore(db store.DBTX, log *slog.Logger) *AssetStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &AssetStore{
		db:     db,
		logger: log.With(slog.String("component", "asset_store")),
	}
}

// Ensure AssetStore implements store.AssetStore.
var _ store.AssetStore = (*AssetStore)(nil)

// WithTx returns an AssetStore bound to the given transaction.
func (s *AssetStore) WithTx(tx *sql.Tx) store.AssetStore {
	return &AssetStore{db: tx, logger: s.logger}
}

// Create implements store.AssetStore.Create.
func (s *AssetStore) Create(ctx context.Context, asset *domain.Asset) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := asset.Validate(); err != nil {
		log.Warn("asset validation failed during create",
			slog.String("error", err.Error()),
			slog.String("asset_id", asset.ID.String()))
		return err
	}

	query := `
		INSERT INTO job_assets (id, job_id, path, mime_type, byte_size, sha256, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		asset.ID,
		asset.JobID,
		asset.Path,
		asset.MimeType,
		asset.ByteSize,
		asset.SHA256,
		asset.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create asset",
			slog.String("error", err.Error()),
			slog.String("asset_id", asset.ID.String()),
			slog.String("job_id", asset.JobID.String()))
		return MapError(err)
	}

	return nil
}

// ListByJobIDs implements store.AssetStore.ListByJobIDs.
func (s *AssetStore) ListByJobIDs(ctx context.Context, jobIDs []uuid.UUID) ([]*domain.Asset, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, job_id, path, mime_type, byte_size, sha256, created_at
		FROM job_assets
		WHERE job_id = ANY($1::uuid[])
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuidArray(jobIDs))
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var assets []*domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.ID, &a.JobID, &a.Path, &a.MimeType,
			&a.ByteSize, &a.SHA256, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		assets = append(assets, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return assets, nil
}

// DeleteByJobIDs implements store.AssetStore.DeleteByJobIDs.
func (s *AssetStore) DeleteByJobIDs(ctx context.Context, jobIDs []uuid.UUID) (int64, error) {
	if len(jobIDs) == 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM job_assets WHERE job_id = ANY($1::uuid[])`, uuidArray(jobIDs))
	if err != nil {
		return 0, MapError(err)
	}

	return result.RowsAffected()
}
