package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/ehs-tracker/internal/application/service"
	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
	"github.com/garyjia/ehs-tracker/internal/infrastructure/identity"
)

// statusFor maps service and domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNotesRequired),
		errors.Is(err, workflow.ErrInvalidOutcome),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrEvidenceEmpty),
		errors.Is(err, service.ErrEvidenceTooLarge),
		errors.Is(err, service.ErrEvidenceType):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, workflow.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	status := statusFor(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
	}

	c.JSON(status, Response{Success: false, Error: msg})
}
