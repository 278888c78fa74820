package auth

import (
	"errors"
	"time"

	"github.com/freenote/freenote-server/internal/id"
)

// SessionClaims is the decrypted payload of a session token. Tokens are
// v4.local, so none of this is readable without the key.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`

	Subject    string    `json:"sub"`
	Expiration time.Time `json:"exp"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// validate checks the claims PASETO rules cannot express.
func (c *SessionClaims) validate() error {
	if c.UserID == "" || c.UserID != c.Subject {
		return errors.New("subject mismatch")
	}
	if !id.Valid(id.KindToken, c.TokenID) {
		return errors.New("malformed token id")
	}
	return nil
}
