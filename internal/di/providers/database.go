package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/freenote/freenote-server/internal/config"
	"github.com/freenote/freenote-server/internal/logger"
	"github.com/freenote/freenote-server/internal/store"
	"github.com/freenote/freenote-server/internal/store/sqlite"
)

// StoreHandle wraps the configured document store with shutdown capability.
type StoreHandle struct {
	store.DocumentStore
	Backend string
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the document store selected by STORE_BACKEND.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, path, err := OpenStore(cfg.Store.Backend, cfg.Data.BasePath, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), storePingTimeout)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("ping %s store: %w", cfg.Store.Backend, err)
	}

	log.Info("Database initialized", "backend", cfg.Store.Backend, "path", path)

	return &StoreHandle{DocumentStore: st, Backend: cfg.Store.Backend}, nil
}

// OpenStore opens a document store of the given backend below dataPath and
// returns it with the path it lives at.
func OpenStore(backend, dataPath string, log *logger.Logger) (store.DocumentStore, string, error) {
	switch backend {
	case config.BackendBadger:
		path := filepath.Join(dataPath, "db")
		st, err := store.New(path, log.Logger)
		return st, path, err
	case config.BackendSQLite:
		path := filepath.Join(dataPath, "freenote.db")
		st, err := sqlite.Open(path, log.Logger)
		return st, path, err
	default:
		return nil, "", fmt.Errorf("unknown store backend %q", backend)
	}
}
