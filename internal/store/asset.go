package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/quizgen-io/quizgen-api/internal/domain"
)

// AssetStore defines the interface for job asset metadata persistence.
// The asset bytes themselves live on disk under the assets root; see
// internal/assets.
type AssetStore interface {
	// Create saves a new asset row.
	Create(ctx context.Context, asset *domain.Asset) error

	// ListByJobIDs retrieves the assets of the given jobs, ordered by
	// created_at ascending.
	ListByJobIDs(ctx context.Context, jobIDs []uuid.UUID) ([]*domain.Asset, error)

	// DeleteByJobIDs removes the asset rows of the given jobs and returns
	// the number of rows deleted.
	DeleteByJobIDs(ctx context.Context, jobIDs []uuid.UUID) (int64, error)

	// WithTx returns an AssetStore bound to the given transaction.
	WithTx(tx *sql.Tx) AssetStore
}
