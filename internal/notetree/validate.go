package notetree

import (
	"errors"
	"fmt"
)

// ErrMalformedDocument is matched by every document integrity failure.
var ErrMalformedDocument = errors.New("malformed document")

// MalformedError describes why a document failed its validity check.
type MalformedError struct {
	Reason string
}

// Error implements the error interface.
func (e *MalformedError) Error() string {
	return "malformed document: " + e.Reason
}

// Unwrap lets errors.Is match ErrMalformedDocument.
func (e *MalformedError) Unwrap() error {
	return ErrMalformedDocument
}

func malformedf(format string, args ...any) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the tree invariants without recursion:
//   - the root exists, is a notebook and has id RootID
//   - no node sits deeper than MaxDepth
//   - every id is unique
//   - every node is reachable exactly once (no shared subtrees, no cycles)
//   - notes carry no children, notebooks carry no content
//   - no note is an elided listing copy
func (d *Document) Validate() error {
	if d == nil || d.Root == nil {
		return malformedf("missing root")
	}
	if d.Root.Kind != KindNotebook {
		return malformedf("root is a %s, want notebook", d.Root.Kind)
	}
	if d.Root.ID != RootID {
		return malformedf("root has id %d, want %d", d.Root.ID, RootID)
	}

	type frame struct {
		node  *Node
		depth int
	}

	ids := make(map[uint64]struct{})
	visited := make(map[*Node]struct{})
	stack := []frame{{node: d.Root}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node

		if n == nil {
			return malformedf("nil child")
		}
		if _, ok := visited[n]; ok {
			return malformedf("node %d is reachable more than once", n.ID)
		}
		visited[n] = struct{}{}

		if _, ok := ids[n.ID]; ok {
			return malformedf("duplicate id %d", n.ID)
		}
		ids[n.ID] = struct{}{}

		switch n.Kind {
		case KindNote:
			if n.Children != nil {
				return malformedf("note %d has children", n.ID)
			}
			if n.elided {
				return malformedf("note %d has no content", n.ID)
			}
		case KindNotebook:
			if n.Content != "" {
				return malformedf("notebook %d has content", n.ID)
			}
			if len(n.Children) > 0 && f.depth >= MaxDepth {
				return malformedf("notebook %d nests deeper than %d levels", n.ID, MaxDepth)
			}
			for _, c := range n.Children {
				stack = append(stack, frame{node: c, depth: f.depth + 1})
			}
		default:
			return malformedf("node %d has unknown type %q", n.ID, n.Kind)
		}
	}
	return nil
}

// ValidateAgainst runs Validate and also requires every id to be below
// nextID, the owner's allocation counter.
func (d *Document) ValidateAgainst(nextID uint64) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if maxID := d.MaxID(); maxID >= nextID {
		return malformedf("id %d is not below the id counter %d", maxID, nextID)
	}
	return nil
}
