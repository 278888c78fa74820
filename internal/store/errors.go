package store

import (
	"errors"
	"fmt"

	"github.com/freenote/freenote-server/internal/notetree"
)

var (
	// ErrUserNotFound is returned when no record exists for a user id.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when creating a user whose id is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrConflict is returned by ReplaceDocument when the stored revision
	// moved since the document was loaded. The caller should reload and retry.
	ErrConflict = errors.New("document revision conflict")
)

// EncodeDocument validates doc against the owner's counter and serializes it.
// Both backends call this before every write so an invalid tree is never stored.
func EncodeDocument(doc *notetree.Document, nextID uint64) ([]byte, error) {
	if err := doc.ValidateAgainst(nextID); err != nil {
		return nil, err
	}
	data, err := notetree.Encode(doc.Root)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// DecodeDocument parses a stored document and checks it against the owner's
// counter. Failures match notetree.ErrMalformedDocument.
func DecodeDocument(data []byte, nextID uint64) (*notetree.Document, error) {
	doc, err := notetree.Parse(data)
	if err != nil {
		return nil, err
	}
	if err := doc.ValidateAgainst(nextID); err != nil {
		return nil, err
	}
	return doc, nil
}
