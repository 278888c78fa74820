package providers

import (
	"github.com/samber/do/v2"

	"github.com/freenote/freenote-server/internal/auth"
	"github.com/freenote/freenote-server/internal/config"
	"github.com/freenote/freenote-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, generated, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	cfg.Auth.SessionKey = key

	log.Info("Authentication key loaded",
		"generated", generated,
		"session_token_duration", cfg.Auth.SessionTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(authKey, cfg.Auth.SessionTokenDuration)
}
