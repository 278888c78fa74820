package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/freenote/freenote-server/internal/domain"
	"github.com/freenote/freenote-server/internal/notetree"
)

// UserExists reports whether a record exists for userID.
func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	exists, err := s.exists(userKey(userID))
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

// CreateUser creates the user's record together with the seed document and
// an id counter starting at notetree.InitialNextID, all in one transaction.
func (s *Store) CreateUser(ctx context.Context, userID, email string) error {
	if userID == "" {
		return errors.New("create user: empty user id")
	}

	seed, err := EncodeDocument(notetree.DefaultDocument(), notetree.InitialNextID)
	if err != nil {
		return fmt.Errorf("encode seed document: %w", err)
	}

	now := time.Now().UTC()
	userData, err := json.Marshal(userRecord{ID: userID, Email: email, CreatedAt: now})
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	docData, err := json.Marshal(documentRecord{Revision: 0, UpdatedAt: now, Document: seed})
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	err = s.update(ctx, func(txn *badger.Txn) error {
		// Checks if user ID already exists
		_, err := txn.Get(userKey(userID))
		if err == nil {
			return ErrUserExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check user exists: %w", err)
		}

		if err := txn.Set(userKey(userID), userData); err != nil {
			return err
		}
		if err := txn.Set(documentKey(userID), docData); err != nil {
			return err
		}
		return txn.Set(sequenceKey(userID), encodeSequence(notetree.InitialNextID))
	})
	if err != nil {
		return err
	}

	s.logger.Info("user created", "user_id", userID)
	return nil
}

// GetUser returns the user's record, including the current counter and
// document revision.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		ur   userRecord
		dr   documentRecord
		next uint64
	)
	err := s.db.View(func(txn *badger.Txn) error {
		if err := getJSON(txn, userKey(userID), &ur); err != nil {
			return err
		}
		if err := getJSON(txn, documentKey(userID), &dr); err != nil {
			return err
		}
		var err error
		next, err = readSequence(txn, userID)
		return err
	})
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	u := &domain.User{
		ID:       ur.ID,
		Email:    ur.Email,
		NextID:   next,
		Revision: dr.Revision,
	}
	u.CreatedAt = ur.CreatedAt
	u.UpdatedAt = dr.UpdatedAt
	return u, nil
}

// ListUserIDs returns the ids of all users in key order.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(userPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := it.Item().Key()
			ids = append(ids, string(key[len(userPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}
