package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "github.com/freenote/freenote-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, map[string]string{"status": "ok"}, testLogger())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	body := decode(t, w)
	assert.Equal(t, float64(Version), body["v"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"status": "ok"}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestError_Helpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unauthorized",
			write:      func(w http.ResponseWriter) { Unauthorized(w, "missing token", nil) },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "not found",
			write:      func(w http.ResponseWriter) { NotFound(w, "no route", nil) },
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "too many requests",
			write:      func(w http.ResponseWriter) { TooManyRequests(w, "slow down", nil) },
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "RATE_LIMITED",
		},
		{
			name:       "internal",
			write:      func(w http.ResponseWriter) { InternalError(w, "boom", nil) },
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantCode, body["code"])
			assert.IsType(t, "", body["error"])
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Run("domain error keeps code", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, domainerrors.Conflict("document changed"), testLogger())

		assert.Equal(t, http.StatusConflict, w.Code)
		body := decode(t, w)
		assert.Equal(t, "CONFLICT", body["code"])
		assert.Equal(t, "document changed", body["message"])
	})

	t.Run("unknown error hides details", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleError(w, errors.New("disk on fire"), testLogger())

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "internal server error", body["error"])
	})
}
