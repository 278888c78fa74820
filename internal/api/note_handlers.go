package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/freenote/freenote-server/internal/notetree"
)

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes",
		Summary:     "List notes",
		Description: "Returns the caller's whole note tree with note contents omitted",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListNotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNote",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes/{id}",
		Summary:     "Get note",
		Description: "Returns a note with its content, or a notebook with its subtree and contents omitted",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "editNote",
		Method:      http.MethodPatch,
		Path:        "/api/v1/notes/{id}",
		Summary:     "Edit note",
		Description: "Updates the title and/or content of a node. Content is ignored for notebooks.",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleEditNote)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addNote",
		Method:        http.MethodPost,
		Path:          "/api/v1/notes/{id}/children",
		Summary:       "Add note",
		Description:   "Appends a new note or notebook with a default title to the given notebook",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleAddNote)
}

// === DTOs ===

// NodeIDInput identifies a node of the caller's tree.
type NodeIDInput struct {
	ID uint64 `path:"id" doc:"Node ID (0 is the root notebook)"`
}

// TreeOutput carries a serialized note tree.
type TreeOutput struct {
	Body json.RawMessage
}

// EditNoteRequest is the request body for editing a node. Omitted fields are
// left unchanged.
type EditNoteRequest struct {
	Title   *string `json:"title,omitempty" doc:"New title"`
	Content *string `json:"content,omitempty" doc:"New content (notes only)"`
}

// EditNoteInput wraps the edit note request for Huma.
type EditNoteInput struct {
	ID   uint64 `path:"id" doc:"Node ID"`
	Body EditNoteRequest
}

// AddNoteRequest is the request body for adding a node.
type AddNoteRequest struct {
	Type string `json:"type" enum:"note,notebook" doc:"Kind of node to create"`
}

// AddNoteInput wraps the add note request for Huma.
type AddNoteInput struct {
	ParentID uint64 `path:"id" doc:"Parent notebook ID"`
	Body     AddNoteRequest
}

// AddNoteResponse contains the allocated node ID.
type AddNoteResponse struct {
	ID uint64 `json:"id" doc:"ID of the new node"`
}

// AddNoteOutput wraps the add note response for Huma.
type AddNoteOutput struct {
	Body AddNoteResponse
}

// === Handlers ===

func (s *Server) handleListNotes(ctx context.Context, _ *struct{}) (*TreeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := s.notes.ListNotes(ctx, userID)
	if err != nil {
		return nil, asStatusError(err)
	}
	return treeOutput(doc.Root)
}

func (s *Server) handleGetNote(ctx context.Context, input *NodeIDInput) (*TreeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	node, err := s.notes.GetNode(ctx, userID, input.ID)
	if err != nil {
		return nil, asStatusError(err)
	}
	return treeOutput(node)
}

func (s *Server) handleEditNote(ctx context.Context, input *EditNoteInput) (*TreeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	patch := notetree.Patch{Title: input.Body.Title, Content: input.Body.Content}
	node, err := s.notes.EditNode(ctx, userID, input.ID, patch)
	if err != nil {
		return nil, asStatusError(err)
	}
	return treeOutput(node)
}

func (s *Server) handleAddNote(ctx context.Context, input *AddNoteInput) (*AddNoteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	kind, err := notetree.ParseKind(input.Body.Type)
	if err != nil {
		return nil, huma.Error400BadRequest("type must be note or notebook")
	}

	id, err := s.notes.AddNode(ctx, userID, input.ParentID, kind)
	if err != nil {
		return nil, asStatusError(err)
	}

	return &AddNoteOutput{Body: AddNoteResponse{ID: id}}, nil
}

// treeOutput serializes a node in the document wire format.
func treeOutput(n *notetree.Node) (*TreeOutput, error) {
	data, err := notetree.Encode(n)
	if err != nil {
		return nil, asStatusError(err)
	}
	return &TreeOutput{Body: data}, nil
}
