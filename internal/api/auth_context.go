package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/freenote/freenote-server/internal/auth"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	userIDKey ctxKey = "userID"
	emailKey  ctxKey = "email"
)

// GetUserID returns the authenticated user ID from context.
// Returns 401 error if user is not authenticated.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return userID, nil
}

// GetEmail returns the authenticated user's email, or "" when the token
// carried none.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(emailKey).(string)
	return email
}

// withIdentity stores the caller's identity in context.
func withIdentity(ctx context.Context, claims *auth.SessionClaims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, claims.UserID)
	return context.WithValue(ctx, emailKey, claims.Email)
}

// authMiddleware returns a middleware that validates Bearer tokens and stores
// the caller's identity in context.
// If no token is present or invalid, continues without user in context.
// Handlers use GetUserID to check authentication.
func authMiddleware(tokens *auth.TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.VerifySessionToken(token)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) {
					logger.Warn("session token verification failed", "error", err)
				}
				// Invalid token - continue without user (handler will reject if auth required)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), claims)))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
