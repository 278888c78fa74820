// Package main mints a session token for a user, for use with the API
// before an external login flow is wired up.
//
// Usage:
//
//	go run ./cmd/token -user alice -email alice@example.com
//	go run ./cmd/token -data ~/Freenote/data -user alice -duration 24h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/freenote/freenote-server/internal/auth"
)

func main() {
	dataPath := flag.String("data", defaultDataPath(), "Server data path holding auth.key")
	userID := flag.String("user", "", "User ID to put in the token (required)")
	email := flag.String("email", "", "Email to put in the token")
	duration := flag.Duration("duration", 720*time.Hour, "Token lifetime")
	flag.Parse()

	if strings.TrimSpace(*userID) == "" {
		flag.Usage()
		os.Exit(2)
	}

	key, generated, err := auth.LoadOrGenerateKey(*dataPath)
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}
	if generated {
		fmt.Fprintf(os.Stderr, "Generated new auth key in %s\n", *dataPath)
	}

	tokens, err := auth.NewTokenService(key, *duration)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	token, expires, err := tokens.GenerateSessionToken(*userID, *email)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Token for %s expires %s\n", *userID, expires.Format(time.RFC3339))
	fmt.Println(token)
}

func defaultDataPath() string {
	if p := os.Getenv("DATA_PATH"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, "Freenote", "data")
}
