package api

import (
	"errors"
	"net/http"

	"alcyxob/rehab-assign/internal/logger"
	"alcyxob/rehab-assign/internal/override"
	"alcyxob/rehab-assign/internal/service"
	"alcyxob/rehab-assign/internal/wizard"

	"github.com/gin-gonic/gin"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrValidationFailed, http.StatusBadRequest},
	{service.ErrInvalidRole, http.StatusBadRequest},
	{service.ErrInvalidMode, http.StatusBadRequest},
	{service.ErrUnknownAction, http.StatusBadRequest},
	{service.ErrInvalidDateRange, http.StatusBadRequest},
	{service.ErrUnsupportedMedia, http.StatusBadRequest},
	{service.ErrUploadKeyMismatch, http.StatusBadRequest},
	{override.ErrUnknownField, http.StatusBadRequest},
	{override.ErrInvalidValue, http.StatusBadRequest},
	{override.ErrEmptyID, http.StatusBadRequest},
	{wizard.ErrNoSetSelected, http.StatusBadRequest},
	{wizard.ErrNoPatientsSelected, http.StatusBadRequest},

	{service.ErrAuthenticationFailed, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},

	{service.ErrSetAccessDenied, http.StatusForbidden},
	{service.ErrExerciseAccessDenied, http.StatusForbidden},
	{service.ErrPatientNotManaged, http.StatusForbidden},
	{service.ErrPatientNotRole, http.StatusForbidden},
	{service.ErrAssignmentAccessDenied, http.StatusForbidden},

	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrPatientNotFound, http.StatusNotFound},
	{service.ErrSetNotFound, http.StatusNotFound},
	{service.ErrExerciseNotFound, http.StatusNotFound},
	{service.ErrAssignmentNotFound, http.StatusNotFound},
	{service.ErrWizardNotFound, http.StatusNotFound},
	{wizard.ErrUnknownMapping, http.StatusNotFound},

	{service.ErrUserAlreadyExists, http.StatusConflict},
	{service.ErrPatientAlreadyAssigned, http.StatusConflict},
	{service.ErrWizardNotReady, http.StatusConflict},
	{service.ErrUploadMissing, http.StatusConflict},
}

// statusFor maps a service error to its HTTP status, 500 when unknown.
func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError aborts with the status mapped from err. Internal errors are
// logged and their detail is not sent to the client.
func respondError(c *gin.Context, log logger.Logger, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(fallback, "path", c.FullPath(), "error", err)
		abortWithError(c, status, fallback)
		return
	}
	abortWithError(c, status, err.Error())
}
