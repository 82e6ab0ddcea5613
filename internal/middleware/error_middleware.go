package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studentdesk/student-api/internal/app/models/dto"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/logger"
	"github.com/studentdesk/student-api/internal/pkg/requestctx"
)

// internalErrorMessage replaces the text of unexpected errors in responses.
const internalErrorMessage = "An unexpected error occurred"

// StatusFor maps an application error onto its HTTP status.
func StatusFor(err error) int {
	switch {
	case apperrors.Is(err, apperrors.ErrResourceNotFound,
		apperrors.ErrStudentNotFound, apperrors.ErrUserNotFound, apperrors.ErrFileNotFound):
		return http.StatusNotFound
	case apperrors.Is(err, apperrors.ErrValidationFailed,
		apperrors.ErrBadRequest, apperrors.ErrEmptyFile, apperrors.ErrPathTraversal):
		return http.StatusBadRequest
	case apperrors.Is(err, apperrors.ErrConflict,
		apperrors.ErrStudentEmailExists, apperrors.ErrUsernameAlreadyTaken):
		return http.StatusConflict
	case apperrors.Is(err, apperrors.ErrInvalidCredentials,
		apperrors.ErrTokenExpired, apperrors.ErrTokenInvalid, apperrors.ErrTokenNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, status int, message string, details map[string]string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(status, message, details))
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("requestID", requestctx.RequestID(c.Request.Context())).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error")
		AbortWithError(c, status, internalErrorMessage, nil)
		return
	}
	AbortWithError(c, status, err.Error(), apperrors.Details(err))
}

// Recovery turns panics into a 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
		AbortWithError(c, http.StatusInternalServerError, internalErrorMessage, nil)
	})
}

// NoRoute answers unknown paths with the envelope.
func NoRoute(c *gin.Context) {
	AbortWithError(c, http.StatusNotFound, "No handler for "+c.Request.Method+" "+c.Request.URL.Path, nil)
}
