package sqlite

import (
	"context"
	"testing"

	"github.com/freenote/freenote-server/internal/notetree"
	"github.com/freenote/freenote-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, "user_1", "a@example.com"))

	exists, err := s.UserExists(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, exists)

	u, err := s.GetUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "user_1", u.ID)
	assert.Equal(t, "a@example.com", u.Email)
	assert.Equal(t, notetree.InitialNextID, u.NextID)
	assert.Equal(t, uint64(0), u.Revision)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestCreateUser_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, "user_1", "a@example.com"))
	err := s.CreateUser(ctx, "user_1", "b@example.com")
	assert.ErrorIs(t, err, store.ErrUserExists)

	u, err := s.GetUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	exists, err := s.UserExists(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListUserIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"b", "c", "a"} {
		require.NoError(t, s.CreateUser(ctx, id, ""))
	}

	ids, err := s.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
