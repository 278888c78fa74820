package notetree

import (
	"errors"
	"fmt"
)

var (
	// ErrParentNotFound is returned by AddNode when the parent id is absent.
	ErrParentNotFound = errors.New("parent not found")
	// ErrInvalidParent is returned by AddNode when the parent is a note.
	ErrInvalidParent = errors.New("parent is not a notebook")
	// ErrTooDeep is returned by AddNode when the new node would sit below
	// MaxDepth.
	ErrTooDeep = errors.New("notebooks nested too deeply")
)

// Patch holds the optional fields of an edit. A nil field is left alone.
type Patch struct {
	Title   *string
	Content *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil
}

// IDAllocator hands out a fresh node id. It is only called once all
// preconditions of AddNode hold, so a rejected insert never consumes an id.
type IDAllocator func() (uint64, error)

// EditNode applies patch to the node with the given id, in place. Title is
// honored for both variants; Content only for notes and silently ignored for
// notebooks.
func EditNode(doc *Document, id uint64, patch Patch) (*Node, error) {
	n, err := FindByID(doc, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil && n.Kind == KindNote {
		n.Content = *patch.Content
	}
	return n, nil
}

// AddNode appends a new node of the given kind to the end of the parent
// notebook's children and returns its id. The document is modified in place.
func AddNode(doc *Document, parentID uint64, kind Kind, next IDAllocator) (uint64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	parent, depth, err := locate(doc, parentID)
	if errors.Is(err, ErrNodeNotFound) {
		return 0, fmt.Errorf("%w: %d", ErrParentNotFound, parentID)
	}
	if err != nil {
		return 0, err
	}
	if parent.Kind != KindNotebook {
		return 0, fmt.Errorf("%w: %d is a %s", ErrInvalidParent, parentID, parent.Kind)
	}
	if depth >= MaxDepth {
		return 0, fmt.Errorf("%w: notebook %d is already %d levels down", ErrTooDeep, parentID, depth)
	}

	id, err := next()
	if err != nil {
		return 0, fmt.Errorf("allocate id: %w", err)
	}

	child := NewNote(id, kind.DefaultTitle(), "")
	if kind == KindNotebook {
		child = NewNotebook(id, kind.DefaultTitle())
	}
	parent.Children = append(parent.Children, child)

	return id, nil
}

// WithoutContent returns a deep copy of doc in which every note's content is
// elided. doc itself is not modified.
func WithoutContent(doc *Document) *Document {
	if doc == nil {
		return nil
	}
	return NewDocument(copyTree(doc.Root, true))
}

// WithoutContent returns a deep copy of the subtree rooted at n with note
// contents elided.
func (n *Node) WithoutContent() *Node {
	return copyTree(n, true)
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return NewDocument(copyTree(d.Root, false))
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	return copyTree(n, false)
}

// copyTree copies a subtree iteratively. Nodes already copied are not
// revisited, which keeps a damaged in-memory graph from looping forever.
func copyTree(root *Node, elide bool) *Node {
	if root == nil {
		return nil
	}

	type pair struct {
		src *Node
		dst *Node
	}

	copyOne := func(src *Node) *Node {
		dst := &Node{ID: src.ID, Kind: src.Kind, Title: src.Title, elided: src.elided}
		if src.Kind == KindNote {
			if elide {
				dst.elided = true
			} else {
				dst.Content = src.Content
			}
		} else {
			dst.Content = src.Content
		}
		if src.Children != nil {
			dst.Children = make([]*Node, 0, len(src.Children))
		}
		return dst
	}

	out := copyOne(root)
	visited := map[*Node]struct{}{root: {}}
	stack := []pair{{src: root, dst: out}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range p.src.Children {
			if child == nil {
				continue
			}
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}

			c := copyOne(child)
			p.dst.Children = append(p.dst.Children, c)
			stack = append(stack, pair{src: child, dst: c})
		}
	}
	return out
}
