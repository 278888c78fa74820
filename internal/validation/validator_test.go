package validation_test

import (
	"net/http"
	"strings"
	"testing"

	domainerrors "github.com/freenote/freenote-server/internal/errors"
	"github.com/freenote/freenote-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityRequest struct {
	UserID string `json:"user_id" validate:"required,max=255,userid"`
	Email  string `json:"email,omitempty" validate:"omitempty,email"`
}

type addRequest struct {
	Type string `json:"type" validate:"required,nodekind"`
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok, "details should be a field map")
	return details
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(identityRequest{UserID: "1234567890", Email: "a@example.com"}))
	assert.NoError(t, v.Validate(identityRequest{UserID: "1234567890"}))
	assert.NoError(t, v.Validate(addRequest{Type: "note"}))
	assert.NoError(t, v.Validate(addRequest{Type: "notebook"}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       any
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing user id",
			req:       identityRequest{Email: "a@example.com"},
			wantField: "user_id",
			wantMsg:   "is required",
		},
		{
			name:      "user id too long",
			req:       identityRequest{UserID: strings.Repeat("x", 256)},
			wantField: "user_id",
			wantMsg:   "must not exceed 255 characters",
		},
		{
			name:      "user id with control character",
			req:       identityRequest{UserID: "alice\n"},
			wantField: "user_id",
			wantMsg:   "must not contain control characters or surrounding spaces",
		},
		{
			name:      "user id with surrounding spaces",
			req:       identityRequest{UserID: " alice"},
			wantField: "user_id",
			wantMsg:   "must not contain control characters or surrounding spaces",
		},
		{
			name:      "invalid email",
			req:       identityRequest{UserID: "u", Email: "not-an-email"},
			wantField: "email",
			wantMsg:   "must be a valid email address",
		},
		{
			name:      "unknown node kind",
			req:       addRequest{Type: "folder"},
			wantField: "type",
			wantMsg:   "must be one of: note notebook",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			details := fieldErrors(t, err)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	details := fieldErrors(t, v.Validate(identityRequest{}))

	// Should use JSON tag name "user_id", not struct field name "UserID"
	assert.Contains(t, details, "user_id")
	assert.NotContains(t, details, "UserID")
}

type searchRequest struct {
	Types []string `json:"type" validate:"dive,nodekind"`
	Limit int      `json:"limit" validate:"gte=0,lte=100"`
}

func TestValidator_SliceAndRange(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(searchRequest{Types: []string{"note", "notebook"}, Limit: 100}))

	details := fieldErrors(t, v.Validate(searchRequest{Types: []string{"note", "folder"}, Limit: 101}))
	assert.Equal(t, "must be one of: note notebook", details["type[1]"])
	assert.Equal(t, "must be less than or equal to 100", details["limit"])
}
