// Package auth provides the session identity layer: the server's secret key
// and the PASETO tokens that carry an already-authenticated user id.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PASETO v4 requires a 256-bit (32-byte) symmetric key.
	keyLength = 32
	// Expected hex-encoded length (32 bytes = 64 hex characters).
	keyHexLength = 64

	// KeyFileName is the name of the key file inside the data directory.
	KeyFileName = "auth.key"
)

// LoadOrGenerateKey loads the secret key from <dataPath>/auth.key, generating
// and saving a new random key on first start. Returns the decoded 32-byte key.
func LoadOrGenerateKey(dataPath string) (key []byte, generated bool, err error) {
	keyPath := filepath.Join(dataPath, KeyFileName)

	//#nosec G304 -- key path is derived from the configured data path
	keyBytes, err := os.ReadFile(keyPath)
	switch {
	case err == nil:
		key, err := decodeKey(string(keyBytes))
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", keyPath, err)
		}
		return key, false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, false, fmt.Errorf("read auth key: %w", err)
	}

	key = make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("failed to generate auth key: %w", err)
	}

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, false, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Save key to file with restricted permissions.
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, false, fmt.Errorf("failed to save auth key: %w", err)
	}

	return key, true, nil
}

// decodeKey parses a hex-encoded key, tolerating surrounding whitespace.
func decodeKey(s string) ([]byte, error) {
	keyHex := strings.TrimSpace(s)

	if len(keyHex) != keyHexLength {
		return nil, fmt.Errorf("invalid auth key length: expected %d hex chars, got %d", keyHexLength, len(keyHex))
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid auth key format: not valid hex: %w", err)
	}
	return key, nil
}
