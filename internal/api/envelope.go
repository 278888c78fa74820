package api

import (
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/freenote/freenote-server/internal/http/response"
)

// EnvelopeVersion is the response format version clients check in "v".
const EnvelopeVersion = response.Version

// APIEnvelope wraps every successful response and every simple error.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps errors that carry a machine-readable code.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps response bodies in the
// versioned envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if strings.HasPrefix(status, "2") || strings.HasPrefix(status, "3") {
		return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
	}

	var apiErr *APIError
	if e, ok := v.(error); ok && errors.As(e, &apiErr) && apiErr.Code != "" {
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	message := "request failed"
	if e, ok := v.(error); ok {
		message = e.Error()
	}
	return APIEnvelope{Version: EnvelopeVersion, Success: false, Error: message}, nil
}
