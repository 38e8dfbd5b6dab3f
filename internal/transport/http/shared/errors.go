package shared

import (
	"errors"
	"net/http"

	"appraisal/internal/domain/evaluation"
	"appraisal/internal/domain/org"
	"appraisal/internal/domain/period"
	"appraisal/internal/domain/project"
	"appraisal/internal/domain/workflow"
	"appraisal/internal/transport/http/api"
)

// FailDomain maps domain sentinel errors onto the HTTP envelope. Unmatched
// errors become an opaque 500 so internals never leak into responses.
func FailDomain(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, workflow.ErrValidation),
		errors.Is(err, evaluation.ErrValidation),
		errors.Is(err, period.ErrValidation),
		errors.Is(err, org.ErrValidation),
		errors.Is(err, project.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, workflow.ErrNotFound),
		errors.Is(err, evaluation.ErrNotFound),
		errors.Is(err, period.ErrNotFound),
		errors.Is(err, org.ErrNotFound),
		errors.Is(err, project.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, period.ErrInvalidPhaseOrder),
		errors.Is(err, period.ErrPeriodClosed),
		errors.Is(err, evaluation.ErrRevisionOpen),
		errors.Is(err, evaluation.ErrLocked):
		api.Fail(w, http.StatusConflict, "state_conflict", err.Error(), requestID)
	case errors.Is(err, workflow.ErrConcurrentModification):
		api.Fail(w, http.StatusConflict, "version_conflict", err.Error(), requestID)
	case errors.Is(err, evaluation.ErrDuplicateMapping),
		errors.Is(err, project.ErrDuplicateAssignment),
		errors.Is(err, org.ErrDuplicateEmail):
		api.Fail(w, http.StatusConflict, "duplicate", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
