// Package response writes the JSON envelope for responses produced outside
// the huma operation pipeline: router fallbacks and chi middleware.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/freenote/freenote-server/internal/errors"
)

// Version is the envelope format version sent in the "v" field.
const Version = 1

// Envelope provides a consistent JSON response structure.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	write(w, status, Envelope{
		Version: Version,
		Success: status < 400,
		Data:    data,
	}, logger)
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Error writes an error response carrying a machine-readable code.
func Error(w http.ResponseWriter, status int, code domainerrors.Code, message string, logger *slog.Logger) {
	write(w, status, Envelope{
		Version: Version,
		Success: false,
		Error:   message,
		Code:    string(code),
		Message: message,
	}, logger)
}

// Unauthorized writes a 401 Unauthorized response.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusUnauthorized, domainerrors.CodeUnauthorized, message, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, domainerrors.CodeNotFound, message, logger)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, domainerrors.CodeRateLimited, message, logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, domainerrors.CodeInternal, message, logger)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Domain errors keep their code and status, unknown errors become 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		Error(w, domainErr.HTTPStatus(), domainErr.Code, domainErr.Message, logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	InternalError(w, "internal server error", logger)
}

func write(w http.ResponseWriter, status int, envelope Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}
