package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/quizgen-io/quizgen-api/internal/domain"
)

// Due-work selection bounds. ListDue clamps the caller-supplied limit into
// this range.
const (
	MinDueBatchSize = 1
	MaxDueBatchSize = 25
)

// JobStore defines the interface for generation job persistence and the
// job state machine writes. It carries no business logic beyond state
// transitions and selection queries.
type JobStore interface {
	// Create saves a new job to the store.
	// Returns validation errors from the domain Job if data is invalid.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// ListDue retrieves jobs that are due for processing: status pending,
	// or status success with a null result ref (apply-only). Results are
	// ordered by created_at ascending. The limit is clamped to
	// [MinDueBatchSize, MaxDueBatchSize].
	ListDue(ctx context.Context, limit int) ([]*domain.Job, error)

	// ListPending retrieves pending jobs only, ordered by created_at
	// ascending, leaving apply-only jobs at rest. The limit is clamped to
	// [MinDueBatchSize, MaxDueBatchSize].
	ListPending(ctx context.Context, limit int) ([]*domain.Job, error)

	// ClaimPending conditionally moves a pending job to processing,
	// stamping started_at. Returns false without error when the job is no
	// longer pending, so a second racer loses cleanly.
	ClaimPending(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkSuccess records a successful attempt: stores the raw output,
	// moves the job to success, clears any previous error fields, and
	// stamps finished_at. It never touches the result ref; SetResultRef
	// is the only writer of that column.
	MarkSuccess(ctx context.Context, id uuid.UUID, output json.RawMessage) error

	// MarkFailed moves the job to failed with the given code and message
	// and stamps finished_at.
	MarkFailed(ctx context.Context, id uuid.UUID, code domain.JobErrorCode, message string) error

	// SetResultRef sets the result ref of a job whose ref is still null.
	// Returns ErrUpdateFailed if the job already has a result ref; the
	// ref transitions null -> non-null exactly once. Callers committing a
	// catalog item must invoke this inside the same transaction as the
	// catalog write so a lost race rolls the item back.
	SetResultRef(ctx context.Context, id uuid.UUID, ref uuid.UUID) error

	// SetOutput replaces the stored raw output. Used by the applier to
	// persist a caller-edited draft for audit.
	SetOutput(ctx context.Context, id uuid.UUID, output json.RawMessage) error

	// ListByTagPrefix retrieves jobs whose tag starts with the given
	// prefix, ordered by created_at ascending.
	ListByTagPrefix(ctx context.Context, prefix string) ([]*domain.Job, error)

	// CountOutstanding counts jobs that still need processor attention:
	// pending, processing, or success without a result ref.
	CountOutstanding(ctx context.Context) (int, error)

	// CountCreatedSince counts jobs created by the owner at or after the
	// given time. Backs the daily creation quota.
	CountCreatedSince(ctx context.Context, ownerID uuid.UUID, since time.Time) (int, error)

	// DeleteByIDs removes the given job rows and returns the number of
	// rows deleted. Asset metadata rows are removed separately, before
	// the jobs, by cleanup.
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)

	// WithTx returns a JobStore bound to the given transaction.
	WithTx(tx *sql.Tx) JobStore
}
