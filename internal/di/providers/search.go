package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/freenote/freenote-server/internal/config"
	"github.com/freenote/freenote-server/internal/logger"
	"github.com/freenote/freenote-server/internal/search"
	"github.com/freenote/freenote-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// Index is nil when search is disabled.
type SearchIndexHandle struct {
	Index *search.NoteIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.Index == nil {
		return nil
	}
	return h.Index.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Search disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewNoteIndex(search.Options{
		DataPath: filepath.Join(cfg.Data.BasePath, "search"),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when it
// is empty but users exist, as after a mapping change or a deleted index.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notes := do.MustInvoke[*service.NoteService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if indexHandle.Index == nil {
		return
	}

	docCount, _ := indexHandle.Index.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	users, err := storeHandle.ListUserIDs(ctx)
	if err != nil || len(users) == 0 {
		return
	}

	log.Info("Search index is empty but users exist, triggering initial reindex",
		"user_count", len(users),
	)

	go func() {
		if err := notes.ReindexAll(context.Background()); err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		count, _ := indexHandle.Index.DocumentCount()
		log.Info("Initial search reindex completed", "documents", count)
	}()
}
