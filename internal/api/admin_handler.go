package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/api/shared"
	"github.com/quizgen-io/quizgen-api/internal/task"
)

// BatchRunner is the handler's view of the orchestrator. Satisfied by
// *task.Orchestrator.
type BatchRunner interface {
	Run(ctx context.Context, params task.RunParams) (*task.RunReport, error)
}

// RunCleaner is the handler's view of the cleanup tool. Satisfied by
// *task.Cleaner.
type RunCleaner interface {
	Cleanup(ctx context.Context, runToken string) (*task.CleanupReport, error)
}

// AdminHandler handles the operator endpoints: orchestrated batch runs
// and tag-keyed rollback.
type AdminHandler struct {
	runner  BatchRunner
	cleaner RunCleaner
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(runner BatchRunner, cleaner RunCleaner) *AdminHandler {
	return &AdminHandler{
		runner:  runner,
		cleaner: cleaner,
	}
}

// RunBatch handles POST /api/admin/runs requests. The run is driven to
// completion synchronously; the response is the full run report including
// the cleanup command that undoes it.
func (h *AdminHandler) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req RunBatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	params := task.RunParams{
		Count:         req.Count,
		RunToken:      req.RunToken,
		LanguageID:    req.LanguageID,
		QuestionCount: req.QuestionCount,
		EnqueueOnly:   req.EnqueueOnly,
		BatchSize:     req.BatchSize,
		MaxCycles:     req.MaxCycles,
		StallCycles:   req.StallCycles,
	}
	if req.OwnerID != "" {
		ownerID, err := uuid.Parse(req.OwnerID)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid owner ID")
			return
		}
		params.OwnerID = ownerID
	}

	report, err := h.runner.Run(r.Context(), params)
	if err != nil {
		if report != nil {
			// A partial report is still worth returning; the run stopped
			// early but its jobs exist and the cleanup command stands.
			shared.RespondWithJSON(w, r, http.StatusBadGateway, report)
			return
		}
		status, message := mapError(err)
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, report)
}

// Cleanup handles POST /api/admin/cleanup requests, rolling back every
// artifact created under the given run token (or the whole tag prefix
// when the token is empty).
func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req CleanupRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
	}

	report, err := h.cleaner.Cleanup(r.Context(), req.RunToken)
	if err != nil {
		status, message := mapError(err)
		shared.RespondWithErrorAndLog(w, r, status, message, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, report)
}
