// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/authserver/internal/errors"
)

// ErrorBody is the payload of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// PublicError is implemented by errors whose code and message are safe to return to clients.
// The HTTP status still comes from the base error kind the error wraps.
type PublicError interface {
	error
	ErrorCode() string
	ErrorMessage() string
}

// HandleErrorGin maps domain errors to HTTP status codes and returns a JSON response using Gin.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var statusCode int
	var body ErrorBody

	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		body = ErrorBody{Code: "not_found", Message: "The requested resource was not found"}

	case apperrors.Is(err, apperrors.ErrConflict):
		statusCode = http.StatusConflict
		body = ErrorBody{Code: "conflict", Message: "A conflict occurred with existing data"}

	case apperrors.Is(err, apperrors.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		body = ErrorBody{Code: "invalid_request", Message: err.Error()}

	case apperrors.Is(err, apperrors.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		body = ErrorBody{Code: "unauthorized", Message: "Authentication is required"}

	case apperrors.Is(err, apperrors.ErrForbidden):
		statusCode = http.StatusForbidden
		body = ErrorBody{Code: "forbidden", Message: "You don't have permission to access this resource"}

	default:
		// For unknown/internal errors, don't expose details to the client
		statusCode = http.StatusInternalServerError
		body = ErrorBody{Code: "internal_error", Message: "An internal error occurred"}
	}

	if statusCode != http.StatusInternalServerError {
		var publicErr PublicError
		if apperrors.As(err, &publicErr) {
			body = ErrorBody{Code: publicErr.ErrorCode(), Message: publicErr.ErrorMessage()}
		}
	}

	// Log the full error details (including wrapped errors)
	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", body.Code),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, ErrorResponse{Error: body})
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed bodies or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorBody{Code: "invalid_request", Message: err.Error()},
	})
}

// HandleValidationErrorGin writes a 400 Bad Request response for validation errors.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorBody{Code: "invalid_request", Message: err.Error()},
	})
}
