package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/accolade/core"
)

var errNotConfigured = errors.New("not configured")

// statusFor maps a service error to an HTTP status. Upstream failures are
// checked before business failures so a refund error joined to a chain
// failure still reports as 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSessionCompleted):
		return http.StatusConflict
	case errors.Is(err, errNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrChainSubmissionFailed),
		errors.Is(err, core.ErrPublicationFailed),
		errors.Is(err, core.ErrChainReadFailed):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrRecordPersistenceFailed),
		errors.Is(err, core.ErrStoreOperationFailed):
		return http.StatusInternalServerError
	case errors.Is(err, core.ErrMissingField),
		errors.Is(err, core.ErrInvalidBadgeType),
		errors.Is(err, core.ErrInsufficientTokens),
		errors.Is(err, core.ErrTokenDeductionFailed),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidAddress),
		errors.Is(err, core.ErrInvalidAnswer):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed",
			"path", c.FullPath(),
			"status", status,
			"request_id", c.GetString(requestIDKey),
			"error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
