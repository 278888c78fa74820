// Package service holds the request-level operations on a user's note tree.
package service

import (
	"context"
	"errors"
	"log/slog"

	domainerrors "github.com/freenote/freenote-server/internal/errors"
	"github.com/freenote/freenote-server/internal/lock"
	"github.com/freenote/freenote-server/internal/notetree"
	"github.com/freenote/freenote-server/internal/search"
	"github.com/freenote/freenote-server/internal/store"
	"github.com/freenote/freenote-server/internal/validation"
)

// DefaultWriteRetries is how often a write cycle is re-run after a revision
// conflict when no explicit value is configured.
const DefaultWriteRetries = 3

// NoteService orchestrates load → mutate → replace cycles on a user's
// document.
//
// Mutations for one user are serialized by a per-user lock held across the
// whole cycle. The store additionally rejects a write-back whose revision
// moved (another process sharing the database), in which case the cycle is
// re-run from a fresh load up to writeRetries times.
type NoteService struct {
	store        store.DocumentStore
	index        *search.NoteIndex // nil when search is disabled
	locks        *lock.KeyedMutex[string]
	validator    *validation.Validator
	writeRetries int
	logger       *slog.Logger
}

// NewNoteService creates a new note service. index may be nil.
func NewNoteService(st store.DocumentStore, index *search.NoteIndex, writeRetries int, logger *slog.Logger) *NoteService {
	if writeRetries < 0 {
		writeRetries = DefaultWriteRetries
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &NoteService{
		store:        st,
		index:        index,
		locks:        lock.NewKeyedMutex[string](),
		validator:    validation.New(),
		writeRetries: writeRetries,
		logger:       logger,
	}
}

// Ping reports whether the document store is reachable.
func (s *NoteService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// SearchEnabled reports whether a search index is attached.
func (s *NoteService) SearchEnabled() bool {
	return s.index != nil
}

// IndexedDocuments returns how many nodes the search index holds.
func (s *NoteService) IndexedDocuments() (uint64, error) {
	if s.index == nil {
		return 0, nil
	}
	return s.index.DocumentCount()
}

// identity is the validated shape of a caller's identity.
type identity struct {
	UserID string `json:"user_id" validate:"required,max=255,userid"`
	Email  string `json:"email,omitempty" validate:"omitempty,email"`
}

// UserExists reports whether a record exists for userID.
func (s *NoteService) UserExists(ctx context.Context, userID string) (bool, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return false, s.translate(userID, err)
	}
	return exists, nil
}

// CreateUser creates the user's record with the seed document.
func (s *NoteService) CreateUser(ctx context.Context, userID, email string) error {
	if err := s.validator.Validate(identity{UserID: userID, Email: email}); err != nil {
		return err
	}

	if err := s.store.CreateUser(ctx, userID, email); err != nil {
		return s.translate(userID, err)
	}

	s.logger.Info("created user", "user_id", userID)
	s.reindexUser(ctx, userID)
	return nil
}

// EnsureUser makes sure a record exists for userID, creating it on first
// sight. A concurrent creator winning the race counts as success. It reports
// whether this call created the record.
func (s *NoteService) EnsureUser(ctx context.Context, userID, email string) (bool, error) {
	exists, err := s.UserExists(ctx, userID)
	if err != nil {
		return false, err
	}
	if exists {
		s.reindexUser(ctx, userID)
		return false, nil
	}

	err = s.CreateUser(ctx, userID, email)
	if errors.Is(err, domainerrors.ErrAlreadyExists) {
		s.logger.Debug("user created concurrently", "user_id", userID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetDocument returns the user's full document, contents included.
func (s *NoteService) GetDocument(ctx context.Context, userID string) (*notetree.Document, error) {
	doc, _, err := s.store.LoadDocument(ctx, userID)
	if err != nil {
		return nil, s.translate(userID, err)
	}
	return doc, nil
}

// ListNotes returns the user's document with every note's content elided.
func (s *NoteService) ListNotes(ctx context.Context, userID string) (*notetree.Document, error) {
	doc, err := s.GetDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	return notetree.WithoutContent(doc), nil
}

// GetNode returns a single node. A note comes with its content; a notebook
// comes as its subtree with contents elided.
func (s *NoteService) GetNode(ctx context.Context, userID string, nodeID uint64) (*notetree.Node, error) {
	doc, err := s.GetDocument(ctx, userID)
	if err != nil {
		return nil, err
	}

	n, err := notetree.FindByID(doc, nodeID)
	if err != nil {
		return nil, s.translate(userID, err)
	}
	if n.IsNotebook() {
		return n.WithoutContent(), nil
	}
	return n, nil
}

// EditNode applies patch to the node and returns it as written. A notebook
// comes back as its subtree with contents elided, like GetNode. An empty patch
// is a no-op and does not touch the store.
func (s *NoteService) EditNode(ctx context.Context, userID string, nodeID uint64, patch notetree.Patch) (*notetree.Node, error) {
	if patch.IsEmpty() {
		// Still report a missing user or node.
		return s.GetNode(ctx, userID, nodeID)
	}

	var edited *notetree.Node
	err := s.mutate(ctx, userID, func(doc *notetree.Document) ([]*notetree.Node, error) {
		n, err := notetree.EditNode(doc, nodeID, patch)
		if err != nil {
			return nil, err
		}
		edited = n
		return []*notetree.Node{n}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("edited node",
		"user_id", userID,
		"node_id", nodeID,
		"title", patch.Title != nil,
		"content", patch.Content != nil,
	)
	if edited.IsNotebook() {
		return edited.WithoutContent(), nil
	}
	return edited, nil
}

// AddNode appends a new node of kind to the parent notebook and returns its
// id. Ids come from the user's counter only after the parent checks pass.
func (s *NoteService) AddNode(ctx context.Context, userID string, parentID uint64, kind notetree.Kind) (uint64, error) {
	if !kind.Valid() {
		return 0, domainerrors.Validationf("invalid node type %q: must be note or notebook", kind)
	}

	var id uint64
	err := s.mutate(ctx, userID, func(doc *notetree.Document) ([]*notetree.Node, error) {
		var err error
		id, err = notetree.AddNode(doc, parentID, kind, func() (uint64, error) {
			return s.store.NextID(ctx, userID)
		})
		if err != nil {
			return nil, err
		}
		n, err := doc.Find(id)
		if err != nil {
			return nil, err
		}
		return []*notetree.Node{n}, nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("added node",
		"user_id", userID,
		"node_id", id,
		"parent_id", parentID,
		"type", kind,
	)
	return id, nil
}

// mutateFunc changes doc in place and returns the nodes it touched.
type mutateFunc func(doc *notetree.Document) ([]*notetree.Node, error)

// mutate runs one load → mutate → replace cycle under the user's lock,
// re-running it from a fresh load when the store reports a revision
// conflict.
func (s *NoteService) mutate(ctx context.Context, userID string, fn mutateFunc) error {
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return s.translate(userID, err)
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		doc, rev, err := s.store.LoadDocument(ctx, userID)
		if err != nil {
			return s.translate(userID, err)
		}

		touched, err := fn(doc)
		if err != nil {
			return s.translate(userID, err)
		}

		_, err = s.store.ReplaceDocument(ctx, userID, doc, rev)
		if err == nil {
			s.indexNodes(userID, touched)
			return nil
		}
		if !errors.Is(err, store.ErrConflict) || attempt >= s.writeRetries {
			return s.translate(userID, err)
		}

		s.logger.Warn("document revision conflict, retrying",
			"user_id", userID,
			"revision", rev,
			"attempt", attempt+1,
		)
	}
}
