package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	domainerrors "github.com/freenote/freenote-server/internal/errors"
	"github.com/freenote/freenote-server/internal/notetree"
	"github.com/freenote/freenote-server/internal/search"
	"github.com/freenote/freenote-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore simulates another process writing between load and replace:
// the first failures calls to ReplaceDocument report a revision conflict.
type flakyStore struct {
	store.DocumentStore
	failures int32
	replaces atomic.Int32
}

func (f *flakyStore) ReplaceDocument(ctx context.Context, userID string, doc *notetree.Document, expected store.Revision) (store.Revision, error) {
	if f.replaces.Add(1) <= f.failures {
		return 0, store.ErrConflict
	}
	return f.DocumentStore.ReplaceDocument(ctx, userID, doc, expected)
}

// corruptStore reports every stored document as malformed.
type corruptStore struct {
	store.DocumentStore
}

func (corruptStore) LoadDocument(_ context.Context, userID string) (*notetree.Document, store.Revision, error) {
	return nil, 0, fmt.Errorf("load document for user %s: %w", userID, notetree.ErrMalformedDocument)
}

func TestMutate_RetriesOnConflict(t *testing.T) {
	base := newTestStore(t)
	require.NoError(t, base.CreateUser(context.Background(), "u1", ""))

	flaky := &flakyStore{DocumentStore: base, failures: 2}
	svc := NewNoteService(flaky, nil, 3, nil)

	_, err := svc.EditNode(context.Background(), "u1", 1, notetree.Patch{Title: strPtr("after retry")})
	require.NoError(t, err)
	assert.Equal(t, int32(3), flaky.replaces.Load())

	n, err := svc.GetNode(context.Background(), "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, "after retry", n.Title)
}

func TestMutate_GivesUpAfterRetries(t *testing.T) {
	base := newTestStore(t)
	require.NoError(t, base.CreateUser(context.Background(), "u1", ""))

	flaky := &flakyStore{DocumentStore: base, failures: 100}
	svc := NewNoteService(flaky, nil, 2, nil)

	_, err := svc.EditNode(context.Background(), "u1", 1, notetree.Patch{Title: strPtr("never")})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, int32(3), flaky.replaces.Load())

	n, err := svc.GetNode(context.Background(), "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, "My First Note", n.Title)
}

func TestAddNode_ConflictRetryDoesNotReuseIDs(t *testing.T) {
	base := newTestStore(t)
	require.NoError(t, base.CreateUser(context.Background(), "u1", ""))

	flaky := &flakyStore{DocumentStore: base, failures: 1}
	svc := NewNoteService(flaky, nil, 3, nil)

	id, err := svc.AddNode(context.Background(), "u1", 0, notetree.KindNote)
	require.NoError(t, err)
	// The first cycle consumed id 2 before its write-back conflicted
	assert.Equal(t, uint64(3), id)

	doc, err := svc.GetDocument(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, doc.Root.Children, 2)
	assert.Equal(t, uint64(3), doc.Root.Children[1].ID)
}

func TestMalformedDocumentSurfacedDistinctly(t *testing.T) {
	base := newTestStore(t)
	require.NoError(t, base.CreateUser(context.Background(), "u1", ""))

	svc := NewNoteService(corruptStore{DocumentStore: base}, nil, DefaultWriteRetries, nil)

	_, err := svc.GetNode(context.Background(), "u1", 1)
	assert.ErrorIs(t, err, domainerrors.ErrMalformedDocument)
	assert.NotErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = svc.EditNode(context.Background(), "u1", 1, notetree.Patch{Title: strPtr("x")})
	assert.ErrorIs(t, err, domainerrors.ErrMalformedDocument)
}

func TestSearchNotes(t *testing.T) {
	svc, _ := setupNoteService(t)
	ctx := context.Background()

	id, err := svc.AddNode(ctx, "u1", 0, notetree.KindNote)
	require.NoError(t, err)
	_, err = svc.EditNode(ctx, "u1", id, notetree.Patch{
		Title:   strPtr("Groceries"),
		Content: strPtr("buy milk"),
	})
	require.NoError(t, err)

	res, err := svc.SearchNotes(ctx, "u1", search.SearchParams{Query: "milk", Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, id, res.Hits[0].ID)
	assert.Equal(t, "Groceries", res.Hits[0].Title)

	// Seed content is searchable right after creation
	res, err = svc.SearchNotes(ctx, "u1", search.SearchParams{Query: "hello", Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, uint64(1), res.Hits[0].ID)
}

func TestSearchNotes_Validation(t *testing.T) {
	svc, _ := setupNoteService(t)
	ctx := context.Background()

	_, err := svc.SearchNotes(ctx, "u1", search.SearchParams{Query: "x", Types: []string{"folder"}})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.SearchNotes(ctx, "u1", search.SearchParams{Query: "x", Limit: 1000})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.SearchNotes(ctx, "ghost", search.SearchParams{Query: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSearchNotes_Disabled(t *testing.T) {
	st := newTestStore(t)
	svc := NewNoteService(st, nil, DefaultWriteRetries, nil)

	_, err := svc.SearchNotes(context.Background(), "u1", search.SearchParams{Query: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestReindexAll(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.CreateUser(ctx, "a", ""))
	require.NoError(t, st.CreateUser(ctx, "b", ""))

	index := newTestIndex(t)
	svc := NewNoteService(st, index, DefaultWriteRetries, nil)
	require.NoError(t, svc.ReindexAll(ctx))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	res, err := svc.SearchNotes(ctx, "b", search.SearchParams{Query: "first"})
	require.NoError(t, err)
	assert.Len(t, res.Hits, 1)
}
