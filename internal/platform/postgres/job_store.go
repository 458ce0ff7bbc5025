package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/domain"
	"github.com/quizgen-io/quizgen-api/internal/platform/logger"
	"github.com/quizgen-io/quizgen-api/internal/store"
)

// jobColumns is the canonical select list shared by every job query.
const jobColumns = `id, owner_id, type, language_id, medium, tag, status, input, output,
	result_ref, error_code, error_message, created_at, started_at, finished_at, updated_at`

// JobStore implements the store.JobStore interface using PostgreSQL.
type JobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewJobStore creates a new PostgreSQL implementation of the JobStore
// interface. If logger is nil, a default logger is used.
func NewJobStore(db store.DBTX, log *slog.Logger) *JobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &JobStore{
		db:     db,
		logger: log.With(slog.String("component", "job_store")),
	}
}

// Ensure JobStore implements store.JobStore.
var _ store.JobStore = (*JobStore)(nil)

// WithTx returns a JobStore bound to the given transaction.
func (s *JobStore) WithTx(tx *sql.Tx) store.JobStore {
	return &JobStore{db: tx, logger: s.logger}
}

// Create implements store.JobStore.Create.
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return err
	}

	input, err := json.Marshal(job.Input)
	if err != nil {
		return fmt.Errorf("failed to marshal job input: %w", err)
	}

	query := `
		INSERT INTO jobs (id, owner_id, type, language_id, medium, tag, status, input,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		job.OwnerID,
		job.Type,
		job.LanguageID,
		job.Medium,
		job.Tag,
		job.Status,
		input,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create job",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return MapError(err)
	}

	log.Info("job created",
		slog.String("job_id", job.ID.String()),
		slog.String("owner_id", job.OwnerID.String()),
		slog.String("tag", job.Tag))
	return nil
}

// GetByID implements store.JobStore.GetByID.
func (s *JobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, MapError(err)
	}

	return job, nil
}

// ListDue implements store.JobStore.ListDue. The limit is clamped into
// [MinDueBatchSize, MaxDueBatchSize].
func (s *JobStore) ListDue(ctx context.Context, limit int) ([]*domain.Job, error) {
	if limit < store.MinDueBatchSize {
		limit = store.MinDueBatchSize
	}
	if limit > store.MaxDueBatchSize {
		limit = store.MaxDueBatchSize
	}

	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1 OR (status = $2 AND result_ref IS NULL)
		ORDER BY created_at ASC
		LIMIT $3
	`
	return s.queryJobs(ctx, query, domain.JobStatusPending, domain.JobStatusSuccess, limit)
}

// ListPending implements store.JobStore.ListPending.
func (s *JobStore) ListPending(ctx context.Context, limit int) ([]*domain.Job, error) {
	if limit < store.MinDueBatchSize {
		limit = store.MinDueBatchSize
	}
	if limit > store.MaxDueBatchSize {
		limit = store.MaxDueBatchSize
	}

	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	return s.queryJobs(ctx, query, domain.JobStatusPending, limit)
}

// ClaimPending implements store.JobStore.ClaimPending. The conditional
// UPDATE is the claim: a concurrent claimer matches zero rows and reports
// false.
func (s *JobStore) ClaimPending(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now().UTC()

	query := `
		UPDATE jobs
		SET status = $1, started_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusProcessing, now, id, domain.JobStatusPending)
	if err != nil {
		return false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

// MarkSuccess implements store.JobStore.MarkSuccess. The result ref is
// deliberately absent from the SET list; only SetResultRef writes it.
func (s *JobStore) MarkSuccess(ctx context.Context, id uuid.UUID, output json.RawMessage) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	query := `
		UPDATE jobs
		SET status = $1, output = $2,
			error_code = NULL, error_message = NULL,
			finished_at = $3, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusSuccess, []byte(output), now, id)
	if err != nil {
		log.Error("failed to mark job success",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return MapError(err)
	}

	return requireRow(result, store.ErrJobNotFound)
}

// MarkFailed implements store.JobStore.MarkFailed.
func (s *JobStore) MarkFailed(ctx context.Context, id uuid.UUID, code domain.JobErrorCode, message string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	query := `
		UPDATE jobs
		SET status = $1, error_code = $2, error_message = $3,
			finished_at = $4, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusFailed, string(code), message, now, id)
	if err != nil {
		log.Error("failed to mark job failed",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return MapError(err)
	}

	return requireRow(result, store.ErrJobNotFound)
}

// SetResultRef implements store.JobStore.SetResultRef. The null guard in
// the WHERE clause enforces the exactly-once transition.
func (s *JobStore) SetResultRef(ctx context.Context, id uuid.UUID, ref uuid.UUID) error {
	now := time.Now().UTC()

	query := `
		UPDATE jobs
		SET result_ref = $1, updated_at = $2
		WHERE id = $3 AND result_ref IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, ref, now, id)
	if err != nil {
		return MapError(err)
	}

	return requireRow(result, fmt.Errorf("%w: result ref already set or job missing", store.ErrUpdateFailed))
}

// SetOutput implements store.JobStore.SetOutput.
func (s *JobStore) SetOutput(ctx context.Context, id uuid.UUID, output json.RawMessage) error {
	now := time.Now().UTC()

	query := `UPDATE jobs SET output = $1, updated_at = $2 WHERE id = $3`
	result, err := s.db.ExecContext(ctx, query, []byte(output), now, id)
	if err != nil {
		return MapError(err)
	}

	return requireRow(result, store.ErrJobNotFound)
}

// ListByTagPrefix implements store.JobStore.ListByTagPrefix.
func (s *JobStore) ListByTagPrefix(ctx context.Context, prefix string) ([]*domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE tag LIKE $1 || '%'
		ORDER BY created_at ASC
	`
	return s.queryJobs(ctx, query, prefix)
}

// CountOutstanding implements store.JobStore.CountOutstanding.
func (s *JobStore) CountOutstanding(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM jobs
		WHERE status IN ($1, $2) OR (status = $3 AND result_ref IS NULL)
	`
	var count int
	err := s.db.QueryRowContext(ctx, query,
		domain.JobStatusPending, domain.JobStatusProcessing, domain.JobStatusSuccess,
	).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}

	return count, nil
}

// CountCreatedSince implements store.JobStore.CountCreatedSince.
func (s *JobStore) CountCreatedSince(ctx context.Context, ownerID uuid.UUID, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM jobs WHERE owner_id = $1 AND created_at >= $2`

	var count int
	if err := s.db.QueryRowContext(ctx, query, ownerID, since).Scan(&count); err != nil {
		return 0, MapError(err)
	}

	return count, nil
}

// DeleteByIDs implements store.JobStore.DeleteByIDs.
func (s *JobStore) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `DELETE FROM jobs WHERE id = ANY($1::uuid[])`
	result, err := s.db.ExecContext(ctx, query, uuidArray(ids))
	if err != nil {
		return 0, MapError(err)
	}

	return result.RowsAffected()
}

// queryJobs runs a job select and scans all rows.
func (s *JobStore) queryJobs(ctx context.Context, query string, args ...any) ([]*domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return jobs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanJob scans one job row into a domain.Job.
func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job          domain.Job
		status       string
		jobType      string
		input        []byte
		output       []byte
		resultRef    uuid.NullUUID
		errorCode    sql.NullString
		errorMessage sql.NullString
		startedAt    sql.NullTime
		finishedAt   sql.NullTime
	)

	err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&jobType,
		&job.LanguageID,
		&job.Medium,
		&job.Tag,
		&status,
		&input,
		&output,
		&resultRef,
		&errorCode,
		&errorMessage,
		&job.CreatedAt,
		&startedAt,
		&finishedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)

	if len(input) > 0 {
		if err := json.Unmarshal(input, &job.Input); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job input: %w", err)
		}
	}
	if len(output) > 0 {
		job.Output = json.RawMessage(output)
	}
	if resultRef.Valid {
		ref := resultRef.UUID
		job.ResultRef = &ref
	}
	if errorCode.Valid {
		job.ErrorCode = domain.JobErrorCode(errorCode.String)
	}
	job.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		job.FinishedAt = &t
	}

	return &job, nil
}

// requireRow converts a zero-row update into notFoundErr.
func requireRow(result sql.Result, notFoundErr error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFoundErr
	}
	return nil
}

// uuidArray renders ids as a Postgres array literal for ANY($1::uuid[])
// parameters. database/sql has no native uuid slice support.
func uuidArray(ids []uuid.UUID) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(id.String())
	}
	b.WriteByte('}')
	return b.String()
}
