package api

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freenote/freenote-server/internal/auth"
	"github.com/freenote/freenote-server/internal/search"
	"github.com/freenote/freenote-server/internal/service"
	"github.com/freenote/freenote-server/internal/store"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server for testing.
type testServer struct {
	*Server
	api    humatest.TestAPI
	tokens *auth.TokenService
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithOptions(t, Options{RateLimitRPS: 1000, RateLimitBurst: 1000})
}

func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()

	st, err := store.New("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewNoteIndex(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	notes := service.NewNoteService(st, index, service.DefaultWriteRetries, nil)
	s := NewServer(notes, tokens, opts, nil)
	t.Cleanup(s.Close)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		tokens: tokens,
	}
}

// bearer returns an Authorization header for userID.
func (ts *testServer) bearer(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := ts.tokens.GenerateSessionToken(userID, userID+"@example.com")
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

// startSession creates userID's document and returns its auth header.
func (ts *testServer) startSession(t *testing.T, userID string) string {
	t.Helper()
	header := ts.bearer(t, userID)
	resp := ts.api.Post("/api/v1/session", header)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return header
}

func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decodeEnvelope[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["store"].Status)
	assert.Equal(t, "healthy", env.Data.Components["search"].Status)
}

func TestAuth_Required(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		header []any
	}{
		{"no header", nil},
		{"garbage token", []any{"Authorization: Bearer not-a-token"}},
		{"wrong scheme", []any{"Authorization: Basic dXNlcjpwYXNz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/notes", tt.header...)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)

			env := decodeEnvelope[any](t, resp.Body.Bytes())
			assert.False(t, env.Success)
			assert.Equal(t, "UNAUTHORIZED", env.Code)
		})
	}
}

func TestSession_CreatesOnce(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.bearer(t, "alice")

	resp := ts.api.Post("/api/v1/session", header)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	env := decodeEnvelope[SessionResponse](t, resp.Body.Bytes())
	assert.Equal(t, "alice", env.Data.UserID)
	assert.Equal(t, "alice@example.com", env.Data.Email)
	assert.True(t, env.Data.Created)

	resp = ts.api.Post("/api/v1/session", header)
	require.Equal(t, http.StatusOK, resp.Code)
	env = decodeEnvelope[SessionResponse](t, resp.Body.Bytes())
	assert.False(t, env.Data.Created)
}

func TestListNotes_UnknownUser(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/notes", ts.bearer(t, "ghost"))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	env := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestListNotes_OmitsContent(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.startSession(t, "alice")

	resp := ts.api.Get("/api/v1/notes", header)
	require.Equal(t, http.StatusOK, resp.Code)

	env := decodeEnvelope[json.RawMessage](t, resp.Body.Bytes())
	assert.JSONEq(t,
		`{"id":0,"type":"notebook","title":"Notes","notes":[{"id":1,"type":"note","title":"My First Note"}]}`,
		string(env.Data))
}

func TestGetNote(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.startSession(t, "alice")

	t.Run("note includes content", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/notes/1", header)
		require.Equal(t, http.StatusOK, resp.Code)

		env := decodeEnvelope[json.RawMessage](t, resp.Body.Bytes())
		assert.JSONEq(t, `{"id":1,"type":"note","title":"My First Note","content":"Hello, World!"}`, string(env.Data))
	})

	t.Run("notebook omits contents", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/notes/0", header)
		require.Equal(t, http.StatusOK, resp.Code)

		env := decodeEnvelope[json.RawMessage](t, resp.Body.Bytes())
		assert.NotContains(t, string(env.Data), "Hello, World!")
	})

	t.Run("missing node", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/notes/42", header)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestAddNote(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.startSession(t, "alice")

	resp := ts.api.Post("/api/v1/notes/0/children", header, map[string]any{"type": "notebook"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	env := decodeEnvelope[AddNoteResponse](t, resp.Body.Bytes())
	assert.Equal(t, uint64(2), env.Data.ID)

	resp = ts.api.Post("/api/v1/notes/2/children", header, map[string]any{"type": "note"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	env = decodeEnvelope[AddNoteResponse](t, resp.Body.Bytes())
	assert.Equal(t, uint64(3), env.Data.ID)

	resp = ts.api.Get("/api/v1/notes/2", header)
	require.Equal(t, http.StatusOK, resp.Code)
	tree := decodeEnvelope[json.RawMessage](t, resp.Body.Bytes())
	assert.JSONEq(t,
		`{"id":2,"type":"notebook","title":"New Notebook","notes":[{"id":3,"type":"note","title":"New Note"}]}`,
		string(tree.Data))
}

func TestAddNote_Errors(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.startSession(t, "alice")

	tests := []struct {
		name       string
		path       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{"parent is a note", "/api/v1/notes/1/children", map[string]any{"type": "note"}, http.StatusBadRequest, "VALIDATION"},
		{"parent missing", "/api/v1/notes/99/children", map[string]any{"type": "note"}, http.StatusNotFound, "NOT_FOUND"},
		{"unknown type", "/api/v1/notes/0/children", map[string]any{"type": "folder"}, http.StatusBadRequest, "VALIDATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post(tt.path, header, tt.body)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())

			env := decodeEnvelope[any](t, resp.Body.Bytes())
			assert.Equal(t, tt.wantCode, env.Code)
		})
	}

	// No id was consumed by the failed calls.
	resp := ts.api.Post("/api/v1/notes/0/children", header, map[string]any{"type": "note"})
	require.Equal(t, http.StatusCreated, resp.Code)
	env := decodeEnvelope[AddNoteResponse](t, resp.Body.Bytes())
	assert.Equal(t, uint64(2), env.Data.ID)
}

func TestEditNote(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.startSession(t, "alice")

	resp := ts.api.Patch("/api/v1/notes/1", header, map[string]any{"title": "Renamed", "content": "New body"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decodeEnvelope[json.RawMessage](t, resp.Body.Bytes())
	assert.JSONEq(t, `{"id":1,"type":"note","title":"Renamed","content":"New body"}`, string(env.Data))

	// Title only leaves the content alone.
	resp = ts.api.Patch("/api/v1/notes/1", header, map[string]any{"title": "Again"})
	require.Equal(t, http.StatusOK, resp.Code)
	env = decodeEnvelope[json.RawMessage](t, resp.Body.Bytes())
	assert.JSONEq(t, `{"id":1,"type":"note","title":"Again","content":"New body"}`, string(env.Data))

	// A renamed notebook comes back as its listing.
	resp = ts.api.Patch("/api/v1/notes/0", header, map[string]any{"title": "Home", "content": "ignored"})
	require.Equal(t, http.StatusOK, resp.Code)
	env = decodeEnvelope[json.RawMessage](t, resp.Body.Bytes())
	assert.JSONEq(t,
		`{"id":0,"type":"notebook","title":"Home","notes":[{"id":1,"type":"note","title":"Again"}]}`,
		string(env.Data))

	resp = ts.api.Patch("/api/v1/notes/77", header, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUsersAreIsolated(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.startSession(t, "alice")
	bob := ts.startSession(t, "bob")

	resp := ts.api.Patch("/api/v1/notes/1", alice, map[string]any{"title": "Alice's"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/notes/1", bob)
	require.Equal(t, http.StatusOK, resp.Code)
	env := decodeEnvelope[json.RawMessage](t, resp.Body.Bytes())
	assert.NotContains(t, string(env.Data), "Alice's")
}

func TestSearch(t *testing.T) {
	ts := setupTestServer(t)
	header := ts.startSession(t, "alice")
	other := ts.startSession(t, "bob")

	resp := ts.api.Patch("/api/v1/notes/1", header, map[string]any{"title": "Groceries", "content": "buy oat milk"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/search?q=milk", header)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decodeEnvelope[SearchResponse](t, resp.Body.Bytes())
	require.Len(t, env.Data.Hits, 1)
	assert.Equal(t, uint64(1), env.Data.Hits[0].ID)
	assert.Equal(t, "Groceries", env.Data.Hits[0].Title)

	resp = ts.api.Get("/api/v1/search?q=milk", other)
	require.Equal(t, http.StatusOK, resp.Code)
	env = decodeEnvelope[SearchResponse](t, resp.Body.Bytes())
	assert.Empty(t, env.Data.Hits)

	resp = ts.api.Get("/api/v1/search?q=milk&type=folder", header)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRateLimit(t *testing.T) {
	ts := setupTestServerWithOptions(t, Options{RateLimitRPS: 0.01, RateLimitBurst: 2})

	for i := range 2 {
		resp := ts.api.Get("/health")
		require.Equal(t, http.StatusOK, resp.Code, fmt.Sprintf("request %d", i))
	}

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	env := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.Equal(t, "RATE_LIMITED", env.Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	env := decodeEnvelope[any](t, resp.Body.Bytes())
	assert.Equal(t, "NOT_FOUND", env.Code)
}
