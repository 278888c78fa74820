package notetree

import "errors"

// ErrNodeNotFound is returned when no node carries the requested id.
var ErrNodeNotFound = errors.New("node not found")

// FindByID locates the node with the given id using an explicit stack, so
// lookup depth never depends on how deeply notebooks are nested. The first
// match wins; ids are unique so it is also the only one. The returned node
// belongs to doc and may be edited in place before write-back.
//
// Children are visited in no promised order. A nil document, a missing root
// or a damaged subtree simply yields ErrNodeNotFound.
func FindByID(doc *Document, id uint64) (*Node, error) {
	n, _, err := locate(doc, id)
	return n, err
}

// locate is FindByID that also reports the depth of the match, the root
// being at depth 0.
func locate(doc *Document, id uint64) (*Node, int, error) {
	if doc == nil || doc.Root == nil {
		return nil, 0, ErrNodeNotFound
	}

	type frame struct {
		node  *Node
		depth int
	}

	stack := []frame{{node: doc.Root}}
	visited := make(map[*Node]struct{})

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		current := f.node
		if current == nil {
			continue
		}
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		if current.ID == id {
			return current, f.depth, nil
		}

		if current.Kind == KindNotebook {
			for _, c := range current.Children {
				stack = append(stack, frame{node: c, depth: f.depth + 1})
			}
		}
	}

	return nil, 0, ErrNodeNotFound
}
