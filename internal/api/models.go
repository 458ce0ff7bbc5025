package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/domain"
)

// AttachmentRequest is one inline image accompanying a job creation
// request, base64-encoded.
type AttachmentRequest struct {
	MimeType string `json:"mime_type" validate:"required"`
	Data     string `json:"data"      validate:"required,base64"`
}

// CreateJobRequest represents the request body for creating a new
// generation job.
type CreateJobRequest struct {
	OwnerID        string              `json:"owner_id"       validate:"omitempty,uuid"`
	Prompt         string              `json:"prompt"         validate:"required,min=1"`
	QuestionCount  int                 `json:"question_count" validate:"omitempty,gte=1,lte=50"`
	CategoryID     string              `json:"category_id"    validate:"omitempty,uuid"`
	DifficultyID   string              `json:"difficulty_id"  validate:"omitempty,uuid"`
	LanguageID     string              `json:"language_id"`
	Visibility     string              `json:"visibility"     validate:"omitempty,oneof=private public"`
	ReviewRequired bool                `json:"review_required"`
	Tag            string              `json:"tag"`
	Attachments    []AttachmentRequest `json:"attachments"    validate:"omitempty,dive"`
}

// JobResponse represents a job's lifecycle record as polled by callers.
type JobResponse struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"owner_id"`
	Status       string     `json:"status"`
	Medium       string     `json:"medium,omitempty"`
	Tag          string     `json:"tag,omitempty"`
	ResultRef    *string    `json:"result_ref,omitempty"`
	ErrorCode    string     `json:"error_code,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// jobToResponse converts a domain.Job to a JobResponse.
func jobToResponse(job *domain.Job) JobResponse {
	resp := JobResponse{
		ID:           job.ID.String(),
		OwnerID:      job.OwnerID.String(),
		Status:       string(job.Status),
		Medium:       job.Medium,
		Tag:          job.Tag,
		ErrorCode:    string(job.ErrorCode),
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		FinishedAt:   job.FinishedAt,
		UpdatedAt:    job.UpdatedAt,
	}
	if job.ResultRef != nil {
		ref := job.ResultRef.String()
		resp.ResultRef = &ref
	}
	return resp
}

// ApplyJobRequest represents the request body for an explicit apply. The
// draft, when present, overrides the job's stored output.
type ApplyJobRequest struct {
	Draft map[string]interface{} `json:"draft,omitempty"`
}

// ApplyJobResponse carries the catalog quiz created (or previously
// created) from the job.
type ApplyJobResponse struct {
	QuizID uuid.UUID `json:"quiz_id"`
}

// RunBatchRequest represents the request body for an orchestrated batch
// run.
type RunBatchRequest struct {
	Count         int    `json:"count"          validate:"required,gte=1,lte=100"`
	OwnerID       string `json:"owner_id"       validate:"omitempty,uuid"`
	RunToken      string `json:"run_token"`
	LanguageID    string `json:"language_id"`
	QuestionCount int    `json:"question_count" validate:"omitempty,gte=1,lte=50"`
	EnqueueOnly   bool   `json:"enqueue_only"`
	BatchSize     int    `json:"batch_size"     validate:"omitempty,gte=1,lte=25"`
	MaxCycles     int    `json:"max_cycles"     validate:"omitempty,gte=1"`
	StallCycles   int    `json:"stall_cycles"   validate:"omitempty,gte=1"`
}

// CleanupRequest represents the request body for a tag-keyed rollback. An
// empty run token sweeps everything under the configured tag prefix.
type CleanupRequest struct {
	RunToken string `json:"run_token"`
}
