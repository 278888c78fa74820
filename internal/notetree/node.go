// Package notetree implements the per-user note hierarchy: the Note/Notebook
// node union, its JSON document form, lookup by id, and the mutations that are
// applied to a loaded document before it is written back as a whole.
package notetree

import (
	"errors"
	"fmt"
)

// Kind discriminates the two node variants.
type Kind string

const (
	// KindNote is a leaf holding free-text content.
	KindNote Kind = "note"
	// KindNotebook is an interior node holding an ordered list of children.
	KindNotebook Kind = "notebook"
)

// Well-known ids of the seed document.
const (
	// RootID is the id of the root notebook of every document.
	RootID uint64 = 0
	// FirstNoteID is the id of the note created together with the document.
	FirstNoteID uint64 = 1
	// InitialNextID is the first id handed out by a fresh user's counter.
	InitialNextID uint64 = 2
)

// MaxDepth is the deepest level a node may sit at, counting the root as 0.
// The encoded form of a tree this deep stays well inside the nesting limit of
// general purpose JSON decoders.
const MaxDepth = 1000

// Titles given to nodes by AddNode and the seed document.
const (
	DefaultNoteTitle     = "New Note"
	DefaultNotebookTitle = "New Notebook"
	rootTitle            = "Notes"
	firstNoteTitle       = "My First Note"
	firstNoteContent     = "Hello, World!"
)

// ErrInvalidKind is returned for a kind other than note or notebook.
var ErrInvalidKind = errors.New("invalid node kind")

// ParseKind converts the wire name of a variant into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindNote, KindNotebook:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Valid reports whether k names a known variant.
func (k Kind) Valid() bool {
	return k == KindNote || k == KindNotebook
}

// DefaultTitle returns the title AddNode gives a new node of this kind.
func (k Kind) DefaultTitle() string {
	if k == KindNotebook {
		return DefaultNotebookTitle
	}
	return DefaultNoteTitle
}

// Node is one entry of the hierarchy. Content is only meaningful for notes
// and Children only for notebooks; Validate rejects any other combination.
type Node struct {
	ID       uint64
	Kind     Kind
	Title    string
	Content  string
	Children []*Node

	// elided marks a note copied by WithoutContent. Its Content is not
	// serialized and the node is not valid for storage.
	elided bool
}

// NewNote creates a note node.
func NewNote(id uint64, title, content string) *Node {
	return &Node{ID: id, Kind: KindNote, Title: title, Content: content}
}

// NewNotebook creates a notebook node with the given children.
func NewNotebook(id uint64, title string, children ...*Node) *Node {
	if children == nil {
		children = []*Node{}
	}
	return &Node{ID: id, Kind: KindNotebook, Title: title, Children: children}
}

// IsNote reports whether n is a note.
func (n *Node) IsNote() bool { return n.Kind == KindNote }

// IsNotebook reports whether n is a notebook.
func (n *Node) IsNotebook() bool { return n.Kind == KindNotebook }

// Document is a user's whole note collection. Root is always the notebook
// with id RootID.
type Document struct {
	Root *Node
}

// NewDocument wraps an existing root.
func NewDocument(root *Node) *Document {
	return &Document{Root: root}
}

// DefaultDocument returns the document every new user starts with: the root
// notebook "Notes" holding a single note.
func DefaultDocument() *Document {
	return NewDocument(NewNotebook(RootID, rootTitle,
		NewNote(FirstNoteID, firstNoteTitle, firstNoteContent),
	))
}

// Find locates the node with the given id. See FindByID.
func (d *Document) Find(id uint64) (*Node, error) {
	return FindByID(d, id)
}

// Nodes returns every node of the document in depth-first pre-order.
func (d *Document) Nodes() []*Node {
	if d == nil || d.Root == nil {
		return nil
	}
	var out []*Node
	stack := []*Node{d.Root}
	visited := make(map[*Node]struct{})
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}
		out = append(out, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}

// MaxID returns the largest node id in the document.
func (d *Document) MaxID() uint64 {
	var maxID uint64
	for _, n := range d.Nodes() {
		if n.ID > maxID {
			maxID = n.ID
		}
	}
	return maxID
}
