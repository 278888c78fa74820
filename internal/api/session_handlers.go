package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "startSession",
		Method:        http.MethodPost,
		Path:          "/api/v1/session",
		Summary:       "Start a session",
		Description:   "Makes sure the caller has a note document, creating the default one on first use",
		Tags:          []string{"Session"},
		DefaultStatus: http.StatusOK,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleStartSession)
}

// SessionResponse describes the caller after the session started.
type SessionResponse struct {
	UserID  string `json:"user_id" doc:"Authenticated user ID"`
	Email   string `json:"email,omitempty" doc:"Email carried by the session token"`
	Created bool   `json:"created" doc:"True when this call created the user's document"`
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	Status int
	Body   SessionResponse
}

func (s *Server) handleStartSession(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	email := GetEmail(ctx)

	created, err := s.notes.EnsureUser(ctx, userID, email)
	if err != nil {
		return nil, asStatusError(err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	return &SessionOutput{
		Status: status,
		Body: SessionResponse{
			UserID:  userID,
			Email:   email,
			Created: created,
		},
	}, nil
}
