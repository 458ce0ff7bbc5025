package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/domain"
	"github.com/quizgen-io/quizgen-api/internal/store"
)

// Jobs created through the API carry this medium unless the caller
// supplies one.
const defaultMedium = "api"

// AssetSaver writes attachment bytes to asset storage. Satisfied by
// assets.Storage.
type AssetSaver interface {
	Save(ctx context.Context, jobID uuid.UUID, data []byte, mimeType string) (*domain.Asset, error)
}

// Attachment is one uploaded image accompanying a job creation request.
type Attachment struct {
	Data     []byte
	MimeType string
}

// CreateJobParams carries a job creation request.
type CreateJobParams struct {
	Prompt         string
	QuestionCount  int
	CategoryID     *uuid.UUID
	DifficultyID   *uuid.UUID
	LanguageID     string
	Visibility     domain.Visibility
	ReviewRequired bool

	// Medium and Tag form the job's source tag; Medium defaults to "api".
	Medium string
	Tag    string

	Attachments []Attachment
}

// JobService provides job creation and lookup for the HTTP surface.
type JobService interface {
	// EnqueueJob creates a pending generation job for the owner, storing
	// any attachments, after enforcing the owner's daily creation quota.
	EnqueueJob(ctx context.Context, ownerID uuid.UUID, params CreateJobParams) (*domain.Job, error)

	// GetJob retrieves a job by ID for status polling.
	// Returns ErrJobNotFound if the job does not exist.
	GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error)
}

// jobServiceImpl implements the JobService interface.
type jobServiceImpl struct {
	logger     *slog.Logger
	jobs       store.JobStore
	assetRows  store.AssetStore
	storage    AssetSaver
	dailyQuota int
}

// NewJobService creates a JobService. The logger defaults when nil; a
// non-positive dailyQuota disables the quota check.
func NewJobService(
	log *slog.Logger,
	jobs store.JobStore,
	assetRows store.AssetStore,
	storage AssetSaver,
	dailyQuota int,
) JobService {
	if log == nil {
		log = slog.Default()
	}

	return &jobServiceImpl{
		logger:     log.With(slog.String("component", "job_service")),
		jobs:       jobs,
		assetRows:  assetRows,
		storage:    storage,
		dailyQuota: dailyQuota,
	}
}

// EnqueueJob implements JobService.EnqueueJob.
func (s *jobServiceImpl) EnqueueJob(ctx context.Context, ownerID uuid.UUID, params CreateJobParams) (*domain.Job, error) {
	if s.dailyQuota > 0 {
		startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
		created, err := s.jobs.CountCreatedSince(ctx, ownerID, startOfDay)
		if err != nil {
			return nil, &JobServiceError{
				Operation: "enqueue_job",
				Message:   "failed to check daily quota",
				Err:       err,
			}
		}
		if created >= s.dailyQuota {
			return nil, fmt.Errorf("%w: %d jobs created today", ErrQuotaExceeded, created)
		}
	}

	medium := params.Medium
	if medium == "" {
		medium = defaultMedium
	}

	input := domain.JobInput{
		Prompt:         params.Prompt,
		QuestionCount:  params.QuestionCount,
		CategoryID:     params.CategoryID,
		DifficultyID:   params.DifficultyID,
		LanguageID:     params.LanguageID,
		Visibility:     params.Visibility,
		ReviewRequired: params.ReviewRequired,
	}

	job, err := domain.NewJob(ownerID, input, params.LanguageID, medium, params.Tag)
	if err != nil {
		return nil, &JobServiceError{
			Operation: "enqueue_job",
			Message:   "invalid job",
			Err:       err,
		}
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, &JobServiceError{
			Operation: "enqueue_job",
			Message:   "failed to create job",
			Err:       err,
		}
	}

	if err := s.storeAttachments(ctx, job, params.Attachments); err != nil {
		// The job row records the failure; the caller sees the cause.
		if markErr := s.jobs.MarkFailed(ctx, job.ID, domain.JobErrUploadFailed, err.Error()); markErr != nil {
			s.logger.Error("failed to mark job failed after upload failure",
				slog.String("job_id", job.ID.String()),
				slog.String("error", markErr.Error()))
		}
		return nil, &JobServiceError{
			Operation: "enqueue_job",
			Message:   "failed to store attachment",
			Err:       err,
		}
	}

	s.logger.Info("job enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("owner_id", ownerID.String()),
		slog.Int("attachments", len(params.Attachments)))

	return job, nil
}

func (s *jobServiceImpl) storeAttachments(ctx context.Context, job *domain.Job, attachments []Attachment) error {
	for i, attachment := range attachments {
		asset, err := s.storage.Save(ctx, job.ID, attachment.Data, attachment.MimeType)
		if err != nil {
			return fmt.Errorf("attachment %d: %w", i, err)
		}
		if err := s.assetRows.Create(ctx, asset); err != nil {
			return fmt.Errorf("attachment %d: %w", i, err)
		}
	}
	return nil
}

// GetJob implements JobService.GetJob.
func (s *jobServiceImpl) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, &JobServiceError{
			Operation: "get_job",
			Message:   "failed to load job",
			Err:       err,
		}
	}
	return job, nil
}
