package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/freenote/freenote-server/internal/notetree"
)

// NoteIndex wraps a Bleve index with note-specific operations.
//
// Thread safety: All public methods are safe for concurrent use.
type NoteIndex struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex // Close takes it exclusively
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage; empty keeps the index in memory
	Logger   *slog.Logger // Logger for operations (uses discard if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// This triggers an automatic rebuild on startup when the version doesn't match.
const mappingVersion = "1"

// batchSize bounds how many documents go into a single Bleve batch.
const batchSize = 500

// NewNoteIndex creates or opens a search index.
// If the existing index is corrupted or has an outdated mapping, it's removed
// and recreated empty; callers repopulate it from the document store.
func NewNoteIndex(opts Options) (*NoteIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		logger.Info("created in-memory search index")
		return &NoteIndex{index: index, logger: logger}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	// Try to open existing index (if not forcing rebuild)
	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &NoteIndex{
		index:  index,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *NoteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexNodes indexes (or re-indexes) the given nodes of one user's tree.
func (s *NoteIndex) IndexNodes(userID string, nodes ...*notetree.Node) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexNodesLocked(userID, nodes)
}

func (s *NoteIndex) indexNodesLocked(userID string, nodes []*notetree.Node) error {
	for i := 0; i < len(nodes); i += batchSize {
		end := min(i+batchSize, len(nodes))

		batch := s.index.NewBatch()
		for _, n := range nodes[i:end] {
			doc := NewNoteDocument(userID, n)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// ReplaceUser makes the index hold exactly the nodes of doc for userID:
// every node is (re)indexed and entries for ids no longer in the tree are
// removed.
func (s *NoteIndex) ReplaceUser(ctx context.Context, userID string, doc *notetree.Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := doc.Nodes()
	keep := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		keep[DocumentID(userID, n.ID)] = struct{}{}
	}

	existing, err := s.userDocumentIDs(ctx, userID)
	if err != nil {
		return err
	}

	batch := s.index.NewBatch()
	for _, id := range existing {
		if _, ok := keep[id]; !ok {
			batch.Delete(id)
		}
	}
	if batch.Size() > 0 {
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("delete stale entries: %w", err)
		}
	}

	if err := s.indexNodesLocked(userID, nodes); err != nil {
		return err
	}

	s.logger.Debug("reindexed user notes", "user_id", userID, "nodes", len(nodes))
	return nil
}

// userDocumentIDs returns the keys of all entries owned by userID.
func (s *NoteIndex) userDocumentIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	for from := 0; ; from += batchSize {
		req := bleve.NewSearchRequestOptions(userFilter(userID), batchSize, from, false)
		req.SortBy([]string{"_id"})
		res, err := s.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("list user entries: %w", err)
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
		if len(res.Hits) < batchSize {
			return ids, nil
		}
	}
}

// DocumentCount returns the total number of indexed documents.
func (s *NoteIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}
