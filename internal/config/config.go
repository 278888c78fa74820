// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Store     StoreConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Search    SearchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds the on-disk location of all server state.
type DataConfig struct {
	BasePath string
}

// StoreConfig selects and tunes the document store.
type StoreConfig struct {
	Backend string // badger or sqlite (default: badger)
	// WriteRetries is how often a load-mutate-replace cycle is re-run after
	// a revision conflict. 0 means a single attempt.
	WriteRetries int
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed origins; empty disables CORS headers
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for session tokens (32 bytes)
	SessionKey           []byte
	SessionTokenDuration time.Duration // e.g., 720h (30 days)
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// SearchConfig holds full-text search configuration.
type SearchConfig struct {
	Enabled bool
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for server data")
	storeBackend := flag.String("store", "", "Document store backend (badger, sqlite)")
	writeRetries := flag.String("write-retries", "", "Retries after a revision conflict (default: 3)")

	// Auth flags
	sessionTokenDuration := flag.String("session-token-duration", "", "Session token lifetime (e.g., 720h)")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated allowed CORS origins")

	// Rate limit flags
	rateLimitRPS := flag.String("rate-limit-rps", "", "Requests per second per client (default: 10)")
	rateLimitBurst := flag.String("rate-limit-burst", "", "Burst size per client (default: 20)")

	searchEnabled := flag.String("search-enabled", "", "Enable full-text search (default: true)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getConfigValue(*storeBackend, "STORE_BACKEND", BackendBadger)),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "")),
		},
		Auth: AuthConfig{
			SessionKey: nil, // Will be set by auth.LoadOrGenerateKey
		},
		Search: SearchConfig{
			Enabled: getBoolConfigValue(*searchEnabled, "SEARCH_ENABLED", true),
		},
	}

	var err error
	if cfg.Store.WriteRetries, err = getIntConfigValue(*writeRetries, "WRITE_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.RateLimit.RPS, err = getFloatConfigValue(*rateLimitRPS, "RATE_LIMIT_RPS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}

	// Parse durations.
	durations := []struct {
		flagValue, envKey, defaultValue string
		target                          *time.Duration
	}{
		{*sessionTokenDuration, "SESSION_TOKEN_DURATION", "720h", &cfg.Auth.SessionTokenDuration},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		value := getConfigValue(d.flagValue, d.envKey, d.defaultValue)
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, value, err)
		}
		*d.target = parsed
	}

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	switch c.Store.Backend {
	case BackendBadger, BackendSQLite:
	default:
		return fmt.Errorf("invalid store backend: %s (must be badger or sqlite)", c.Store.Backend)
	}

	if c.Store.WriteRetries < 0 {
		return fmt.Errorf("WRITE_RETRIES must not be negative, got %d", c.Store.WriteRetries)
	}

	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimit.RPS)
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", c.RateLimit.Burst)
	}

	if c.Auth.SessionTokenDuration <= 0 {
		return fmt.Errorf("SESSION_TOKEN_DURATION must be positive, got %s", c.Auth.SessionTokenDuration)
	}

	// Session key is set by auth.LoadOrGenerateKey.

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/Freenote/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Freenote", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
// A value that is set but not an integer is an error.
func getIntConfigValue(flagValue, envKey string, defaultValue int) (int, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", envKey, strValue)
	}
	return result, nil
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) (float64, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(strings.TrimSpace(strValue), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a number", envKey, strValue)
	}
	return result, nil
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(value string) []string {
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
