// Package main provides the entry point for the Freenote server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/freenote/freenote-server/internal/di"
	"github.com/freenote/freenote-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// The container shuts services down in reverse dependency order: the HTTP
	// server drains first, then the search index and the store close.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped")
}
