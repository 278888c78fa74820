package service

import (
	"context"
	"errors"
	"fmt"

	domainerrors "github.com/freenote/freenote-server/internal/errors"
	"github.com/freenote/freenote-server/internal/notetree"
	"github.com/freenote/freenote-server/internal/search"
)

// searchRequest is the validated shape of a search call.
type searchRequest struct {
	Query  string   `json:"q" validate:"max=512"`
	Types  []string `json:"type" validate:"dive,nodekind"`
	Limit  int      `json:"limit" validate:"gte=0,lte=100"`
	Offset int      `json:"offset" validate:"gte=0"`
}

// SearchNotes runs a full-text query over the user's own notes and notebooks.
func (s *NoteService) SearchNotes(ctx context.Context, userID string, params search.SearchParams) (*search.SearchResult, error) {
	if s.index == nil {
		return nil, domainerrors.NotFound("search is not enabled on this server")
	}

	req := searchRequest{Query: params.Query, Types: params.Types, Limit: params.Limit, Offset: params.Offset}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domainerrors.NotFound("user not found")
	}

	result, err := s.index.Search(ctx, userID, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}
	return result, nil
}

// ReindexAll rebuilds the index entries of every user from the store.
func (s *NoteService) ReindexAll(ctx context.Context) error {
	if s.index == nil {
		return nil
	}

	ids, err := s.store.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	indexed := 0
	for _, userID := range ids {
		err := s.replaceUserEntries(ctx, userID)
		if errors.Is(err, errIndexWrite) {
			return fmt.Errorf("reindex user %s: %w", userID, err)
		}
		if err != nil {
			// One corrupt document must not keep everyone else unsearchable.
			s.logger.Error("skipping user during reindex", "user_id", userID, "error", err)
			continue
		}
		indexed++
	}

	s.logger.Info("search index rebuilt", "users", indexed, "skipped", len(ids)-indexed)
	return nil
}

// reindexUser refreshes all of a user's index entries. Failures are logged
// only; search is secondary to the document itself.
func (s *NoteService) reindexUser(ctx context.Context, userID string) {
	if s.index == nil {
		return
	}
	if err := s.replaceUserEntries(ctx, userID); err != nil {
		s.logger.Warn("failed to reindex user", "user_id", userID, "error", err)
	}
}

var errIndexWrite = errors.New("index write failed")

// replaceUserEntries makes the index mirror the user's stored document. The
// user's lock is held so no write-back lands between the load and the replace.
func (s *NoteService) replaceUserEntries(ctx context.Context, userID string) error {
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	doc, _, err := s.store.LoadDocument(ctx, userID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if err := s.index.ReplaceUser(ctx, userID, doc); err != nil {
		return fmt.Errorf("%w: %w", errIndexWrite, err)
	}
	return nil
}

// indexNodes updates the entries of nodes touched by a successful write-back.
func (s *NoteService) indexNodes(userID string, nodes []*notetree.Node) {
	if s.index == nil || len(nodes) == 0 {
		return
	}
	if err := s.index.IndexNodes(userID, nodes...); err != nil {
		s.logger.Warn("failed to index nodes", "user_id", userID, "nodes", len(nodes), "error", err)
	}
}
