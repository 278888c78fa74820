// Package di provides dependency injection configuration for the Freenote server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/freenote/freenote-server/internal/auth"
	"github.com/freenote/freenote-server/internal/config"
	"github.com/freenote/freenote-server/internal/di/providers"
	"github.com/freenote/freenote-server/internal/logger"
	"github.com/freenote/freenote-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage and search
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideNoteService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	steps := []func() error{
		func() error { _, err := do.Invoke[*config.Config](injector); return err },
		func() error { _, err := do.Invoke[*logger.Logger](injector); return err },
		func() error { _, err := do.Invoke[providers.AuthKey](injector); return err },
		func() error { _, err := do.Invoke[*providers.StoreHandle](injector); return err },
		func() error { _, err := do.Invoke[*providers.SearchIndexHandle](injector); return err },
		func() error { _, err := do.Invoke[*auth.TokenService](injector); return err },
		func() error { _, err := do.Invoke[*service.NoteService](injector); return err },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	// Rebuild the search index before accepting traffic if it was recreated.
	providers.TriggerSearchReindexIfNeeded(injector)

	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
