package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/freenote/freenote-server/internal/id"
)

const (
	tokenIssuer   = "freenote-server"
	tokenAudience = "freenote-client"
)

// ErrInvalidToken is returned for tokens that fail decryption or any claim rule.
var ErrInvalidToken = errors.New("invalid session token")

// TokenService issues and verifies PASETO v4.local session tokens.
type TokenService struct {
	symmetricKey  paseto.V4SymmetricKey
	tokenDuration time.Duration
	now           func() time.Time
}

// NewTokenService creates a token service from a 32-byte key.
func NewTokenService(key []byte, duration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	if duration <= 0 {
		return nil, fmt.Errorf("token duration must be positive, got %s", duration)
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey:  symmetricKey,
		tokenDuration: duration,
		now:           time.Now,
	}, nil
}

// GenerateSessionToken creates an encrypted token naming the user. The
// identity itself is established elsewhere (the login flow); the token only
// carries it between requests.
func (s *TokenService) GenerateSessionToken(userID, email string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("generate session token: empty user id")
	}

	now := s.now()
	expires := now.Add(s.tokenDuration)

	token := paseto.NewToken()

	token.SetIssuer(tokenIssuer)
	token.SetSubject(userID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)

	tokenID, err := id.Generate(id.KindToken)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("user_id", userID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("email", email)

	return token.V4Encrypt(s.symmetricKey, nil), expires, nil
}

// VerifySessionToken decrypts a token and checks issuer, audience and
// validity window. Every failure matches ErrInvalidToken.
func (s *TokenService) VerifySessionToken(tokenString string) (*SessionClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()

	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims SessionClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %v", ErrInvalidToken, err)
	}
	if err := claims.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &claims, nil
}

// TokenDuration returns the configured session lifetime.
func (s *TokenService) TokenDuration() time.Duration {
	return s.tokenDuration
}
