package attendance

import (
	"errors"
	"net/http"
	"time"

	"smartroll-attendance-svc/src/internal/models"
	"smartroll-attendance-svc/src/internal/session"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the "error" field of failure responses.
const (
	CodeMissingFields     = "missing_fields"
	CodeInvalidRequest    = "invalid_request"
	CodeForbidden         = "forbidden"
	CodeUnknownDevice     = "unknown_device"
	CodeSessionNotFound   = "session_not_found"
	CodeSessionNotStarted = "session_not_started"
	CodeSessionEnded      = "session_ended"
	CodeDBCommitFailed    = "db_commit_failed"
	CodeDBQueryFailed     = "db_query_failed"
	CodeInternal          = "internal_error"
)

// sendError writes the structured error body for err.
func sendError(c *gin.Context, err error) {
	var windowErr *session.WindowError
	if errors.As(err, &windowErr) {
		sendWindowError(c, windowErr)
		return
	}

	switch {
	case errors.Is(err, models.ErrMissingFields):
		sendErrorResponse(c, http.StatusBadRequest, CodeMissingFields, "device_address and session_id are required")
	case errors.Is(err, models.ErrUntrustedNetwork):
		sendErrorResponse(c, http.StatusForbidden, CodeForbidden, "must be on approved network")
	case errors.Is(err, models.ErrStudentNotFound):
		sendErrorResponse(c, http.StatusNotFound, CodeUnknownDevice, "no student is registered for this device")
	case errors.Is(err, models.ErrSessionNotFound):
		sendErrorResponse(c, http.StatusNotFound, CodeSessionNotFound, "session does not exist")
	case errors.Is(err, models.ErrDatabaseInsert):
		sendErrorResponse(c, http.StatusInternalServerError, CodeDBCommitFailed, "attendance could not be recorded")
	case errors.Is(err, models.ErrDatabaseQuery):
		sendErrorResponse(c, http.StatusInternalServerError, CodeDBQueryFailed, "attendance store unavailable")
	default:
		sendErrorResponse(c, http.StatusInternalServerError, CodeInternal, "unexpected error")
	}
}

func sendWindowError(c *gin.Context, err *session.WindowError) {
	boundary := err.Boundary.UTC().Format(time.RFC3339)

	if errors.Is(err, models.ErrSessionNotStarted) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":              CodeSessionNotStarted,
			"message":            "Session has not started yet",
			"session_start_time": boundary,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"error":            CodeSessionEnded,
		"message":          "Session has already ended",
		"session_end_time": boundary,
	})
}

func sendErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, gin.H{
		"error":   code,
		"message": message,
	})
}
