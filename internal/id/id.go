// Package id generates the opaque random identifiers handed out by the server,
// such as session token ids.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Kind prefixes an identifier with what it names.
type Kind string

// Known identifier kinds.
const (
	KindToken Kind = "tok"
)

const (
	alphabet  = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	size      = 22
	separator = "_"
)

// Generate returns a new identifier of the form <kind>_<22 alphanumerics>.
// The alphabet has no punctuation, so ids survive being pasted into URLs and
// shell arguments unchanged.
func Generate(kind Kind) (string, error) {
	raw, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", kind, err)
	}
	return string(kind) + separator + raw, nil
}

// Valid reports whether s is a well-formed identifier of the given kind.
func Valid(kind Kind, s string) bool {
	raw, ok := strings.CutPrefix(s, string(kind)+separator)
	if !ok || len(raw) != size {
		return false
	}
	for i := 0; i < len(raw); i++ {
		if !strings.ContainsRune(alphabet, rune(raw[i])) {
			return false
		}
	}
	return true
}
