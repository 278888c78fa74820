package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/freenote/freenote-server/internal/notetree"
)

// LoadDocument returns the user's full document and its current revision.
// A stored tree that fails validation is reported as malformed, never repaired.
func (s *Store) LoadDocument(ctx context.Context, userID string) (*notetree.Document, Revision, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var (
		rec  documentRecord
		next uint64
	)
	err := s.db.View(func(txn *badger.Txn) error {
		if err := getJSON(txn, documentKey(userID), &rec); err != nil {
			return err
		}
		var err error
		next, err = readSequence(txn, userID)
		return err
	})
	if errors.Is(err, ErrUserNotFound) {
		return nil, 0, ErrUserNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load document: %w", err)
	}

	doc, err := DecodeDocument(rec.Document, next)
	if err != nil {
		s.logger.Error("stored document failed validation",
			"user_id", userID,
			"revision", rec.Revision,
			"error", err,
		)
		return nil, 0, fmt.Errorf("load document for user %s: %w", userID, err)
	}

	return doc, Revision(rec.Revision), nil
}

// ReplaceDocument overwrites the user's document if its revision still equals
// expected, and returns the new revision. The write is a single transaction:
// either the whole document is replaced or nothing changes.
func (s *Store) ReplaceDocument(ctx context.Context, userID string, doc *notetree.Document, expected Revision) (Revision, error) {
	var newRevision Revision

	err := s.update(ctx, func(txn *badger.Txn) error {
		var rec documentRecord
		if err := getJSON(txn, documentKey(userID), &rec); err != nil {
			return err
		}
		if Revision(rec.Revision) != expected {
			return ErrConflict
		}

		next, err := readSequence(txn, userID)
		if err != nil {
			return err
		}

		data, err := EncodeDocument(doc, next)
		if err != nil {
			return err
		}

		rec.Revision++
		rec.UpdatedAt = time.Now().UTC()
		rec.Document = data

		value, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		if err := txn.Set(documentKey(userID), value); err != nil {
			return err
		}

		newRevision = Revision(rec.Revision)
		return nil
	})

	switch {
	case err == nil:
		return newRevision, nil
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrConflict):
		return 0, err
	case errors.Is(err, notetree.ErrMalformedDocument):
		return 0, fmt.Errorf("replace document for user %s: %w", userID, err)
	default:
		return 0, fmt.Errorf("replace document: %w", err)
	}
}

// NextID returns the user's next node id and advances the counter, as one
// atomic read-increment-write.
func (s *Store) NextID(ctx context.Context, userID string) (uint64, error) {
	var id uint64

	err := s.update(ctx, func(txn *badger.Txn) error {
		next, err := readSequence(txn, userID)
		if err != nil {
			return err
		}
		if err := txn.Set(sequenceKey(userID), encodeSequence(next+1)); err != nil {
			return err
		}
		id = next
		return nil
	})
	if errors.Is(err, ErrUserNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("allocate id: %w", err)
	}
	return id, nil
}
