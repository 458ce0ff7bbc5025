package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/api/shared"
	"github.com/quizgen-io/quizgen-api/internal/domain"
	"github.com/quizgen-io/quizgen-api/internal/service"
)

// JobApplier is the handler's view of the applier. Satisfied by
// *task.Applier.
type JobApplier interface {
	Apply(ctx context.Context, jobID uuid.UUID, override json.RawMessage) (uuid.UUID, error)
}

// JobHandler handles job-related HTTP requests.
type JobHandler struct {
	jobService     service.JobService
	applier        JobApplier
	defaultOwnerID uuid.UUID
}

// NewJobHandler creates a new JobHandler. defaultOwnerID backs requests
// that carry no owner of their own.
func NewJobHandler(jobService service.JobService, applier JobApplier, defaultOwnerID uuid.UUID) *JobHandler {
	return &JobHandler{
		jobService:     jobService,
		applier:        applier,
		defaultOwnerID: defaultOwnerID,
	}
}

// CreateJob handles POST /api/jobs requests. The job is created pending;
// processing happens asynchronously, so the response is 202 Accepted and
// callers poll GET /api/jobs/{id}.
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	ownerID := h.defaultOwnerID
	if req.OwnerID != "" {
		parsed, err := uuid.Parse(req.OwnerID)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid owner ID")
			return
		}
		ownerID = parsed
	}

	params := service.CreateJobParams{
		Prompt:         req.Prompt,
		QuestionCount:  req.QuestionCount,
		LanguageID:     req.LanguageID,
		Visibility:     domain.Visibility(req.Visibility),
		ReviewRequired: req.ReviewRequired,
		Tag:            req.Tag,
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid category ID")
			return
		}
		params.CategoryID = &id
	}
	if req.DifficultyID != "" {
		id, err := uuid.Parse(req.DifficultyID)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid difficulty ID")
			return
		}
		params.DifficultyID = &id
	}

	for _, attachment := range req.Attachments {
		data, err := base64.StdEncoding.DecodeString(attachment.Data)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid attachment encoding")
			return
		}
		params.Attachments = append(params.Attachments, service.Attachment{
			Data:     data,
			MimeType: attachment.MimeType,
		})
	}

	job, err := h.jobService.EnqueueJob(r.Context(), ownerID, params)
	if err != nil {
		status, message := mapError(err)
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(job))
}

// GetJob handles GET /api/jobs/{id} requests, the polling endpoint.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	job, err := h.jobService.GetJob(r.Context(), jobID)
	if err != nil {
		status, message := mapError(err)
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// ApplyJob handles POST /api/jobs/{id}/apply requests. An optional draft
// in the body overrides the job's stored output.
func (h *JobHandler) ApplyJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid job ID")
		return
	}

	var override json.RawMessage
	if r.Body != nil && r.ContentLength != 0 {
		var req ApplyJobRequest
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
		if req.Draft != nil {
			raw, err := json.Marshal(req.Draft)
			if err != nil {
				shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid draft")
				return
			}
			override = raw
		}
	}

	quizID, err := h.applier.Apply(r.Context(), jobID, override)
	if err != nil {
		status, message := mapError(err)
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ApplyJobResponse{QuizID: quizID})
}
