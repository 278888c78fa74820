package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	domainerrors "github.com/freenote/freenote-server/internal/errors"
)

// APIError is the huma.StatusError every failed operation returns. The
// envelope transformer turns it into the coded error body.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler replaces huma.NewError so that domain errors keep
// their own status and code, and huma's request validation failures come out
// as 400 VALIDATION with one detail string per problem. It must run before
// any operation is registered.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}
		}

		// Huma's own request validation reports 422; the API reports every
		// malformed request as a validation failure.
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		apiErr := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		if len(errs) > 0 {
			details := make([]string, 0, len(errs))
			for _, err := range errs {
				details = append(details, err.Error())
			}
			apiErr.Details = details
		}
		return apiErr
	}
}

// codeByStatus names the error code reported for statuses raised by huma
// itself or by handlers without a domain error at hand.
var codeByStatus = map[int]domainerrors.Code{
	http.StatusBadRequest:         domainerrors.CodeValidation,
	http.StatusUnauthorized:       domainerrors.CodeUnauthorized,
	http.StatusForbidden:          domainerrors.CodeForbidden,
	http.StatusNotFound:           domainerrors.CodeNotFound,
	http.StatusConflict:           domainerrors.CodeConflict,
	http.StatusTooManyRequests:    domainerrors.CodeRateLimited,
	http.StatusServiceUnavailable: domainerrors.CodeUnavailable,
}

func statusToCode(status int) string {
	if code, ok := codeByStatus[status]; ok {
		return string(code)
	}
	return string(domainerrors.CodeInternal)
}

// asStatusError converts a service error into the huma status error that
// carries its HTTP status.
func asStatusError(err error) error {
	var se huma.StatusError
	if errors.As(err, &se) {
		return err
	}
	return huma.NewError(http.StatusInternalServerError, "unexpected error occurred", err)
}
