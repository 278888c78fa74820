package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	domainerrors "github.com/freenote/freenote-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{"success response", "200", map[string]string{"key": "value"}},
		{"created response", "201", map[string]uint64{"id": 2}},
		{"plain error", "500", errors.New("internal error")},
		{"coded error", "409", &APIError{Code: "CONFLICT", Message: "document changed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			raw, err := json.Marshal(result)
			require.NoError(t, err)

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(raw, &envelope))

			assert.Equal(t, float64(EnvelopeVersion), envelope["v"])
			assert.NotContains(t, envelope, "version")
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"title": "My First Note"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")
	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_RawTreeIsEmbedded(t *testing.T) {
	tree := json.RawMessage(`{"id":1,"type":"note","title":"t","content":"c"}`)

	result, err := EnvelopeTransformer(nil, "200", tree)
	require.NoError(t, err)

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1,"success":true,"data":{"id":1,"type":"note","title":"t","content":"c"}}`, string(raw))
}

func TestEnvelopeTransformer_ErrorWithCode(t *testing.T) {
	apiErr := &APIError{
		Code:    "VALIDATION",
		Message: "validation failed",
		Details: map[string]string{"type": "must be one of: note notebook"},
	}

	result, err := EnvelopeTransformer(nil, "400", apiErr)
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok, "Expected APIErrorEnvelope type")
	assert.False(t, envelope.Success)
	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Equal(t, "validation failed", envelope.Message)
	assert.Equal(t, "validation failed", envelope.Error)
	assert.Equal(t, apiErr.Details, envelope.Details)
}

func TestEnvelopeTransformer_PlainError(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "500", errors.New("boom"))
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok)
	assert.False(t, envelope.Success)
	assert.Nil(t, envelope.Data)
	assert.Equal(t, "boom", envelope.Error)
}

func TestRegisterErrorHandler_MapsDomainErrors(t *testing.T) {
	RegisterErrorHandler()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", domainerrors.NotFound("node not found"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", domainerrors.Conflict("changed"), http.StatusConflict, "CONFLICT"},
		{"malformed", domainerrors.MalformedDocument("bad tree"), http.StatusInternalServerError, "MALFORMED_DOCUMENT"},
		{"validation", domainerrors.Validation("bad"), http.StatusBadRequest, "VALIDATION"},
		{"canceled", domainerrors.Wrap(context.Canceled, domainerrors.CodeUnavailable, "request was canceled"), http.StatusServiceUnavailable, "UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := asStatusError(tt.err)

			var apiErr *APIError
			require.ErrorAs(t, se, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.GetStatus())
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestRegisterErrorHandler_RequestValidationIsBadRequest(t *testing.T) {
	RegisterErrorHandler()

	se := huma.NewError(http.StatusUnprocessableEntity, "validation failed", &huma.ErrorDetail{
		Message:  "expected value to be one of \"note, notebook\"",
		Location: "body.type",
	})

	assert.Equal(t, http.StatusBadRequest, se.GetStatus())
	apiErr, ok := se.(*APIError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION", apiErr.Code)
	assert.Len(t, apiErr.Details, 1)
}

func TestAsStatusError_KeepsStatusErrors(t *testing.T) {
	RegisterErrorHandler()

	original := huma.Error401Unauthorized("Authentication required")
	assert.Same(t, original, asStatusError(original))
}
