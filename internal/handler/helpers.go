package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/stride/apps/backend/internal/apperror"
	"go.uber.org/zap"
)

// dateLayout is the wire format for calendar days
const dateLayout = "2006-01-02"

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}

// userID returns the caller identity set by the user context middleware
func userID(c *gin.Context) string {
	return c.GetString("user_id")
}

// parseDate parses a YYYY-MM-DD day into midnight UTC
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// badRequest writes a VALIDATION_ERROR response
func badRequest(c *gin.Context, logger *zap.Logger, message string, err error) {
	logger.Warn("invalid request", zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    string(apperror.CodeInvalidArgument),
		Message: message,
		Details: stringPtr(err.Error()),
	})
}

// respondError maps a service error onto its HTTP status and error body
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	code := apperror.CodeOf(err)
	status := code.HTTPStatus()

	resp := ErrorResponse{Code: string(code), Message: fallback}
	var appErr *apperror.Error
	if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		resp.Message = appErr.Message
	}

	fields := []zap.Field{
		zap.Error(err),
		zap.String("user_id", userID(c)),
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
	}
	if status >= http.StatusInternalServerError {
		logger.Error(fallback, fields...)
	} else {
		logger.Warn(fallback, fields...)
	}

	c.JSON(status, resp)
}
