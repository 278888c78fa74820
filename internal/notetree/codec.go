package notetree

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

// nodeBuilder collects the fields of one node while its object is open.
// Fields may arrive in any order, so the variant is checked on close.
type nodeBuilder struct {
	id       *uint64
	typ      string
	title    *string
	content  *string
	notes    bool
	children []*Node

	// inNotes is set between the '[' and ']' of the notes array.
	inNotes bool
}

// Parse decodes a stored document and validates it. Any structural problem
// is reported as a *MalformedError.
//
// The input is read in one pass over the decoder's token stream with an
// explicit stack of open nodes, so the cost is linear in the document size
// and independent of nesting depth. Nesting beyond MaxDepth is rejected as
// soon as it is seen.
func Parse(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var root *Node
	stack := []*nodeBuilder{{}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		tok, err := dec.Token()
		if err != nil {
			return nil, malformedf("decode node: %v", err)
		}

		if top.inNotes {
			switch tok {
			case json.Delim('{'):
				if len(stack) > MaxDepth {
					return nil, malformedf("nesting exceeds %d levels", MaxDepth)
				}
				stack = append(stack, &nodeBuilder{})
			case json.Delim(']'):
				top.inNotes = false
			default:
				return nil, malformedf("notebook child is not an object")
			}
			continue
		}

		if tok == json.Delim('}') {
			n, err := top.build()
			if err != nil {
				return nil, err
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			continue
		}

		// Inside an object the decoder only yields keys or the closing brace.
		key, _ := tok.(string)
		if err := top.readField(dec, key); err != nil {
			return nil, err
		}
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, malformedf("trailing data after document")
	}

	doc := NewDocument(root)
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// readField consumes the value for key. A null value counts as absent and
// unknown keys are skipped.
func (b *nodeBuilder) readField(dec *json.Decoder, key string) error {
	switch key {
	case "id", "type", "title", "content", "notes":
	default:
		return skipValue(dec)
	}

	tok, err := dec.Token()
	if err != nil {
		return malformedf("decode node: %v", err)
	}
	if tok == nil {
		return nil
	}

	switch key {
	case "id":
		num, ok := tok.(json.Number)
		if !ok {
			return malformedf("node id is not a number")
		}
		id, err := strconv.ParseUint(num.String(), 10, 64)
		if err != nil {
			return malformedf("node id %s is not a valid id", num)
		}
		b.id = &id
	case "notes":
		if tok != json.Delim('[') {
			return malformedf("notes is not an array")
		}
		if b.notes {
			return malformedf("notes listed twice")
		}
		b.notes = true
		b.inNotes = true
	default:
		s, ok := tok.(string)
		if !ok {
			return malformedf("node field %q is not a string", key)
		}
		switch key {
		case "type":
			b.typ = s
		case "title":
			b.title = &s
		case "content":
			b.content = &s
		}
	}
	return nil
}

// build checks that the fields present match the declared variant.
func (b *nodeBuilder) build() (*Node, error) {
	if b.id == nil {
		return nil, malformedf("node without id")
	}
	if b.title == nil {
		return nil, malformedf("node %d has no title", *b.id)
	}

	n := &Node{ID: *b.id, Title: *b.title}

	switch Kind(b.typ) {
	case KindNote:
		if b.content == nil {
			return nil, malformedf("note %d has no content", n.ID)
		}
		if b.notes {
			return nil, malformedf("note %d has children", n.ID)
		}
		n.Kind = KindNote
		n.Content = *b.content
	case KindNotebook:
		if !b.notes {
			return nil, malformedf("notebook %d has no children list", n.ID)
		}
		if b.content != nil {
			return nil, malformedf("notebook %d has content", n.ID)
		}
		n.Kind = KindNotebook
		n.Children = b.children
		if n.Children == nil {
			n.Children = []*Node{}
		}
	default:
		return nil, malformedf("node %d has unknown type %q", n.ID, b.typ)
	}
	return n, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return malformedf("decode node: %v", err)
	}
	if tok != want {
		return malformedf("expected %q, got %v", want, tok)
	}
	return nil
}

// skipValue consumes one value of any shape by counting delimiters.
func skipValue(dec *json.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return malformedf("decode node: %v", err)
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
		if depth == 0 {
			return nil
		}
	}
}

// Encode serializes the tree rooted at n to its canonical JSON form. Elided
// notes are written without a content field.
func Encode(n *Node) ([]byte, error) {
	if n == nil {
		return nil, malformedf("missing root")
	}

	type frame struct {
		node *Node
		next int
	}

	var buf bytes.Buffer
	if err := writeHead(&buf, n); err != nil {
		return nil, err
	}
	if n.Kind == KindNote {
		return buf.Bytes(), nil
	}

	stack := []*frame{{node: n}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.node.Children) {
			buf.WriteString("]}")
			stack = stack[:len(stack)-1]
			continue
		}

		child := top.node.Children[top.next]
		if top.next > 0 {
			buf.WriteByte(',')
		}
		top.next++

		if child == nil {
			return nil, malformedf("notebook %d has a nil child", top.node.ID)
		}
		if err := writeHead(&buf, child); err != nil {
			return nil, err
		}
		if child.Kind == KindNotebook {
			stack = append(stack, &frame{node: child})
		}
	}
	return buf.Bytes(), nil
}

// writeHead writes a note completely, or a notebook up to the opening of its
// children array.
func writeHead(buf *bytes.Buffer, n *Node) error {
	title, err := json.Marshal(n.Title)
	if err != nil {
		return err
	}

	buf.WriteString(`{"id":`)
	buf.WriteString(strconv.FormatUint(n.ID, 10))
	buf.WriteString(`,"type":"`)
	buf.WriteString(string(n.Kind))
	buf.WriteString(`","title":`)
	buf.Write(title)

	switch n.Kind {
	case KindNote:
		if !n.elided {
			content, err := json.Marshal(n.Content)
			if err != nil {
				return err
			}
			buf.WriteString(`,"content":`)
			buf.Write(content)
		}
		buf.WriteByte('}')
	case KindNotebook:
		buf.WriteString(`,"notes":[`)
	default:
		return malformedf("node %d has unknown type %q", n.ID, n.Kind)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) {
	return Encode(n)
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return nil, errors.New("nil document")
	}
	return Encode(d.Root)
}

// UnmarshalJSON implements json.Unmarshaler using Parse.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}
