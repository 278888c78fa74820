// Package search provides full-text search over note titles and content
// using Bleve. Every indexed entry belongs to exactly one user and queries are
// always scoped to that user.
package search

import (
	"strconv"
	"strings"

	"github.com/freenote/freenote-server/internal/normalize"
	"github.com/freenote/freenote-server/internal/notetree"
)

// NoteDocument is the indexed form of one node of a user's tree.
type NoteDocument struct {
	ID      string `json:"id"` // "<userID>/<nodeID>", unique across users
	UserID  string `json:"user_id"`
	NodeID  uint64 `json:"node_id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// DocumentID returns the index key for a user's node.
func DocumentID(userID string, nodeID uint64) string {
	return userID + "/" + strconv.FormatUint(nodeID, 10)
}

// parseDocumentID splits an index key back into its user and node parts.
func parseDocumentID(id string) (userID string, nodeID uint64, ok bool) {
	i := strings.LastIndexByte(id, '/')
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.ParseUint(id[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return id[:i], n, true
}

// NewNoteDocument builds the index entry for n. Content of an elided note is
// left empty.
func NewNoteDocument(userID string, n *notetree.Node) *NoteDocument {
	return &NoteDocument{
		ID:      DocumentID(userID, n.ID),
		UserID:  userID,
		NodeID:  n.ID,
		Type:    string(n.Kind),
		Title:   normalize.Text(n.Title),
		Content: normalize.Text(n.Content),
	}
}

// ToMap converts the document to a map with lowercase field names.
// This ensures field names match the Bleve index mapping.
func (d *NoteDocument) ToMap() map[string]any {
	return map[string]any{
		"id":      d.ID,
		"user_id": d.UserID,
		"node_id": strconv.FormatUint(d.NodeID, 10),
		"type":    d.Type,
		"title":   d.Title,
		"content": d.Content,
	}
}
