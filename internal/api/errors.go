package api

import (
	"errors"
	"net/http"

	"github.com/quizgen-io/quizgen-api/internal/draft"
	"github.com/quizgen-io/quizgen-api/internal/service"
	"github.com/quizgen-io/quizgen-api/internal/store"
	"github.com/quizgen-io/quizgen-api/internal/task"
)

// mapError translates service and pipeline errors into an HTTP status and
// a client-safe message. The raw error is logged, never exposed.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrJobNotFound), store.IsNotFoundError(err):
		return http.StatusNotFound, "Job not found"

	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "Daily job quota exceeded"

	case errors.Is(err, task.ErrNotReady):
		return http.StatusConflict, "Job has not completed generation"

	case errors.Is(err, draft.ErrDraftInvalid):
		return http.StatusUnprocessableEntity, "Draft failed validation"

	case errors.Is(err, draft.ErrNoActiveCategory),
		errors.Is(err, draft.ErrNoActiveDifficulty),
		errors.Is(err, draft.ErrNoLanguages):
		return http.StatusConflict, "Taxonomy is not configured for generation"

	default:
		return http.StatusInternalServerError, "An internal error occurred"
	}
}
