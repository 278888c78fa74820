package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/freenote/freenote-server/internal/domain"
	"github.com/freenote/freenote-server/internal/notetree"
	"github.com/freenote/freenote-server/internal/store"
)

// UserExists reports whether a row exists for userID.
func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE user_id = ?`, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return true, nil
}

// CreateUser inserts the user's row holding the seed document. The insert is
// a no-op for an existing id, which is reported as store.ErrUserExists.
func (s *Store) CreateUser(ctx context.Context, userID, email string) error {
	if userID == "" {
		return errors.New("create user: empty user id")
	}

	seed, err := store.EncodeDocument(notetree.DefaultDocument(), notetree.InitialNextID)
	if err != nil {
		return fmt.Errorf("encode seed document: %w", err)
	}

	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, email, next_id, revision, document, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		userID, email, notetree.InitialNextID, string(seed), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if n == 0 {
		return store.ErrUserExists
	}

	s.logger.Info("user created", "user_id", userID)
	return nil
}

// GetUser returns the user's row without the document.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
		updatedAt string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, email, next_id, revision, created_at, updated_at
		FROM users WHERE user_id = ?`, userID,
	).Scan(&u.ID, &u.Email, &u.NextID, &u.Revision, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &u, nil
}

// ListUserIDs returns the ids of all users in ascending order.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
