package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// maxTxnRetries bounds how often a transaction is re-run after Badger reports
// a read/write conflict with a concurrent commit. Each round lets at least one
// contender commit, so this comfortably covers bursts of concurrent writers.
const maxTxnRetries = 128

// Store is the Badger-backed DocumentStore.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ DocumentStore = (*Store)(nil)

// New opens (or creates) a Badger database at path. An empty path opens a
// purely in-memory database.
func New(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true       // A replace must be durable once it returns
		opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup
	}
	opts.Logger = nil // Disable Badger's internal logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger.Info("Badger database opened successfully", "path", path, "in_memory", path == "")

	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// Ping checks that the database still accepts transactions.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// userRecord is the value stored under user:<id>.
type userRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// documentRecord is the value stored under doc:<id>.
type documentRecord struct {
	Revision  uint64          `json:"revision"`
	UpdatedAt time.Time       `json:"updated_at"`
	Document  json.RawMessage `json:"document"`
}

// update runs fn in a read-write transaction, re-running it when Badger
// detects a conflicting concurrent commit.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if attempt == maxTxnRetries {
			return fmt.Errorf("transaction retries exhausted: %w", err)
		}
		time.Sleep(time.Duration(attempt%8) * 50 * time.Microsecond)
	}
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// getJSON reads and decodes the value at key, mapping a missing key to
// ErrUserNotFound since every key belongs to a user record.
func getJSON(txn *badger.Txn, key []byte, dest any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

// readSequence returns the stored next id of a user.
func readSequence(txn *badger.Txn, userID string) (uint64, error) {
	item, err := txn.Get(sequenceKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}

	var next uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt id counter for user %s: %d bytes", userID, len(val))
		}
		next = binary.BigEndian.Uint64(val)
		return nil
	})
	return next, err
}

func encodeSequence(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}
