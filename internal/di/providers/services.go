package providers

import (
	"github.com/samber/do/v2"

	"github.com/freenote/freenote-server/internal/config"
	"github.com/freenote/freenote-server/internal/logger"
	"github.com/freenote/freenote-server/internal/service"
)

// ProvideNoteService provides the note service.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteService(storeHandle.DocumentStore, indexHandle.Index, cfg.Store.WriteRetries, log.Logger), nil
}
