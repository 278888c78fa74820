// Package store defines the persistence contract for user records and their
// note documents, and provides the Badger-backed implementation.
package store

import (
	"context"

	"github.com/freenote/freenote-server/internal/domain"
	"github.com/freenote/freenote-server/internal/notetree"
)

// Revision is the optimistic concurrency token of a stored document. It is
// returned by LoadDocument and must be handed back to ReplaceDocument.
type Revision uint64

// DocumentStore owns each user's record and note document as one unit.
//
// A document is only ever replaced as a whole. ReplaceDocument succeeds only
// if the stored revision still equals the one observed at load time, so two
// writers that loaded the same revision cannot both win.
type DocumentStore interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Users
	UserExists(ctx context.Context, userID string) (bool, error)
	CreateUser(ctx context.Context, userID, email string) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)

	// Documents
	LoadDocument(ctx context.Context, userID string) (*notetree.Document, Revision, error)
	ReplaceDocument(ctx context.Context, userID string, doc *notetree.Document, expected Revision) (Revision, error)

	// NextID atomically returns the user's counter and advances it by one.
	NextID(ctx context.Context, userID string) (uint64, error)
}
