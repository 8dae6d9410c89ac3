package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"ratings/internal/microservices/http-api/service"
)

// writeError maps service sentinels to HTTP status codes.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": service.ErrPermissionDenied.Error()})
	default:
		logger.ErrorContext(c.Request.Context(), "request_failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
