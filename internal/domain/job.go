package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a generation job.
type JobStatus string

// Possible job status values.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusSuccess    JobStatus = "success"
	JobStatusFailed     JobStatus = "failed"
)

// JobType discriminates the kind of work a job represents.
type JobType string

// Job type constants.
const (
	// JobTypeQuizGeneration represents the job type for generating a quiz
	// from a natural-language prompt and optional image assets.
	JobTypeQuizGeneration JobType = "quiz_generation"
)

// JobErrorCode is the closed set of machine-readable failure codes recorded
// on a job row. Callers observe failures through these codes, never through
// errors propagated past the processor/applier boundary.
type JobErrorCode string

// The closed error code taxonomy.
const (
	// JobErrAiFailed marks a generation attempt whose AI response was
	// missing or not parseable as JSON.
	JobErrAiFailed JobErrorCode = "AiFailed"

	// JobErrTestSaveFailed marks a job whose generated content was valid
	// but whose catalog write failed.
	JobErrTestSaveFailed JobErrorCode = "TestSaveFailed"

	// JobErrDraftInvalid marks content that failed structural validation.
	JobErrDraftInvalid JobErrorCode = "DraftInvalid"

	// JobErrUploadFailed marks a failure storing an attached asset.
	JobErrUploadFailed JobErrorCode = "UploadFailed"

	// JobErrNotReady marks an apply attempt on a job that has not
	// completed generation.
	JobErrNotReady JobErrorCode = "NotReady"

	// JobErrNoActiveCategory marks a build attempt with no active category
	// available to default to.
	JobErrNoActiveCategory JobErrorCode = "NoActiveCategory"
)

// Job-specific validation errors.
var (
	ErrEmptyJobID      = errors.New("job ID cannot be empty")
	ErrEmptyJobOwnerID = errors.New("job owner ID cannot be empty")
	ErrEmptyJobPrompt  = errors.New("job prompt cannot be empty")
)

// JobInput holds the structured request parameters of a generation job.
// It is stored as JSONB alongside the job row.
type JobInput struct {
	Prompt        string     `json:"prompt"`
	QuestionCount int        `json:"question_count,omitempty"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	DifficultyID  *uuid.UUID `json:"difficulty_id,omitempty"`
	LanguageID    string     `json:"language_id,omitempty"`
	Visibility    Visibility `json:"visibility,omitempty"`

	// ReviewRequired defers the catalog write: the processor validates and
	// stores the generated output but leaves the job in the apply-only
	// state for the caller to review and apply.
	ReviewRequired bool `json:"review_required,omitempty"`
}

// Job is one unit of asynchronous generation work and its lifecycle record.
//
// Lifecycle: created pending, claimed by the processor (processing), then
// terminal as failed or success. A job with status success and a nil
// ResultRef is in the apply-only resting state: its content exists in Output
// but has not been committed to the catalog yet. ResultRef transitions
// nil -> non-nil exactly once and is never cleared except by cleanup.
type Job struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Type    JobType   `json:"type"`

	// LanguageID is the caller's language hint; empty means the first
	// configured language.
	LanguageID string `json:"language_id,omitempty"`

	// Medium and Tag form the free-form source tag. Orchestrated batch
	// runs share a Tag of the form "<prefix>:<run_token>", which is the
	// sole key for cleanup.
	Medium string `json:"medium,omitempty"`
	Tag    string `json:"tag,omitempty"`

	Status JobStatus `json:"status"`
	Input  JobInput  `json:"input"`

	// Output holds the raw generated draft once an attempt has produced
	// parseable content.
	Output json.RawMessage `json:"output,omitempty"`

	// ResultRef points at the catalog quiz created from this job.
	ResultRef *uuid.UUID `json:"result_ref,omitempty"`

	ErrorCode    JobErrorCode `json:"error_code,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewJob creates a new pending quiz generation job for the given owner.
// It generates a new UUID for the job ID and stamps creation timestamps.
// Returns an error if validation fails.
func NewJob(ownerID uuid.UUID, input JobInput, languageID, medium, tag string) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Type:       JobTypeQuizGeneration,
		LanguageID: languageID,
		Medium:     medium,
		Tag:        tag,
		Status:     JobStatusPending,
		Input:      input,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the Job has valid data.
// Returns an error if any field fails validation.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.OwnerID == uuid.Nil {
		return ErrEmptyJobOwnerID
	}

	if j.Input.Prompt == "" {
		return ErrEmptyJobPrompt
	}

	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	return nil
}

// ApplyOnly reports whether the job holds generated content that has not
// been committed to the catalog. Apply-only jobs are due for re-pickup by
// the processor or for an explicit apply.
func (j *Job) ApplyOnly() bool {
	return j.Status == JobStatusSuccess && j.ResultRef == nil
}

// Terminal reports whether the job has reached a state the pipeline will
// never advance on its own: failed, or success with its result committed.
func (j *Job) Terminal() bool {
	if j.Status == JobStatusFailed {
		return true
	}
	return j.Status == JobStatusSuccess && j.ResultRef != nil
}

// isValidJobStatus checks if the given status is a valid JobStatus.
func isValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusPending, JobStatusProcessing, JobStatusSuccess, JobStatusFailed:
		return true
	default:
		return false
	}
}
