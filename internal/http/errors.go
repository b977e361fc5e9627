package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"orga/internal/service"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrDuplicateEmail, http.StatusConflict},
	{service.ErrDuplicateDomain, http.StatusConflict},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrAccessDenied, http.StatusForbidden},
	{service.ErrTenantInactive, http.StatusForbidden},
	{service.ErrUserLimitReached, http.StatusBadRequest},
	{service.ErrProtectedUser, http.StatusBadRequest},
	{service.ErrMessageLimitReached, http.StatusTooManyRequests},
	{service.ErrRateLimited, http.StatusTooManyRequests},
	{service.ErrUpstreamUnavailable, http.StatusBadGateway},
}

func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeServiceError traduce errores de servicio a HTTP. Los 500 no exponen detalle.
func writeServiceError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		requestLogger(c).Error(op+" failed", zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	requestLogger(c).Debug(op+" rejected", zap.Int("status", status), zap.Error(err))
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func writeBindError(c *gin.Context, op string, err error) {
	requestLogger(c).Warn("invalid "+op+" request", zap.Error(err))
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}
