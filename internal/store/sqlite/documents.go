package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/freenote/freenote-server/internal/notetree"
	"github.com/freenote/freenote-server/internal/store"
)

// LoadDocument returns the user's full document and its current revision.
func (s *Store) LoadDocument(ctx context.Context, userID string) (*notetree.Document, store.Revision, error) {
	var (
		raw      string
		revision uint64
		nextID   uint64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT document, revision, next_id FROM users WHERE user_id = ?`, userID,
	).Scan(&raw, &revision, &nextID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, store.ErrUserNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load document: %w", err)
	}

	doc, err := store.DecodeDocument([]byte(raw), nextID)
	if err != nil {
		s.logger.Error("stored document failed validation",
			"user_id", userID,
			"revision", revision,
			"error", err,
		)
		return nil, 0, fmt.Errorf("load document for user %s: %w", userID, err)
	}

	return doc, store.Revision(revision), nil
}

// ReplaceDocument overwrites the user's document if its revision still equals
// expected. The counter only ever grows, so a tree that validates against the
// counter read here stays valid when the conditional update lands.
func (s *Store) ReplaceDocument(ctx context.Context, userID string, doc *notetree.Document, expected store.Revision) (store.Revision, error) {
	var nextID uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT next_id FROM users WHERE user_id = ?`, userID,
	).Scan(&nextID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read id counter: %w", err)
	}

	data, err := store.EncodeDocument(doc, nextID)
	if err != nil {
		return 0, fmt.Errorf("replace document for user %s: %w", userID, err)
	}

	var revision uint64
	err = s.db.QueryRowContext(ctx, `
		UPDATE users
		SET document = ?, revision = revision + 1, updated_at = ?
		WHERE user_id = ? AND revision = ?
		RETURNING revision`,
		string(data), formatTime(time.Now()), userID, uint64(expected),
	).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		// Rows were filtered out; tell a vanished user from a moved revision.
		exists, existsErr := s.UserExists(ctx, userID)
		if existsErr != nil {
			return 0, existsErr
		}
		if !exists {
			return 0, store.ErrUserNotFound
		}
		return 0, store.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("replace document: %w", err)
	}

	return store.Revision(revision), nil
}

// NextID returns the user's counter and advances it in one statement.
func (s *Store) NextID(ctx context.Context, userID string) (uint64, error) {
	var id uint64
	err := s.db.QueryRowContext(ctx, `
		UPDATE users SET next_id = next_id + 1
		WHERE user_id = ?
		RETURNING next_id - 1`, userID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("allocate id: %w", err)
	}
	return id, nil
}
