package service

import (
	"context"
	"errors"
	"fmt"

	domainerrors "github.com/freenote/freenote-server/internal/errors"
	"github.com/freenote/freenote-server/internal/notetree"
	"github.com/freenote/freenote-server/internal/store"
)

// translate maps store and tree errors to coded domain errors. The original
// error stays reachable through errors.Is.
func (s *NoteService) translate(userID string, err error) error {
	var domainErr *domainerrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Debug("request deadline exceeded", "user_id", userID)
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "request timed out before it completed")
	case errors.Is(err, context.Canceled):
		s.logger.Debug("request canceled", "user_id", userID)
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "request was canceled before it completed")
	case errors.Is(err, store.ErrUserNotFound):
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, "user not found")
	case errors.Is(err, store.ErrUserExists):
		return domainerrors.Wrap(err, domainerrors.CodeAlreadyExists, "user already exists")
	case errors.Is(err, notetree.ErrParentNotFound):
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, "parent notebook not found")
	case errors.Is(err, notetree.ErrNodeNotFound):
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, "node not found")
	case errors.Is(err, notetree.ErrInvalidParent):
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "only notebooks can contain notes")
	case errors.Is(err, notetree.ErrTooDeep):
		return domainerrors.Wrap(err, domainerrors.CodeValidation,
			fmt.Sprintf("notebooks may be nested at most %d levels deep", notetree.MaxDepth))
	case errors.Is(err, notetree.ErrInvalidKind):
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "node type must be note or notebook")
	case errors.Is(err, notetree.ErrMalformedDocument):
		s.logger.Error("malformed document", "user_id", userID, "error", err)
		return domainerrors.Wrap(err, domainerrors.CodeMalformedDocument, "stored document is malformed")
	case errors.Is(err, store.ErrConflict):
		s.logger.Warn("giving up after repeated revision conflicts", "user_id", userID)
		return domainerrors.Wrap(err, domainerrors.CodeConflict, "document was modified concurrently, retry the request")
	default:
		s.logger.Error("storage failure", "user_id", userID, "error", err)
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "storage error")
	}
}
