// Package alpmtypes implements the primitive value types of ALPM package
// metadata: names, versions, architectures, checksums, and relations.
// Every type validates at construction and keeps a canonical textual form.
package alpmtypes

import (
	"fmt"
	"strings"
)

// Name is a package or virtual-component identifier: non-empty, drawn from
// [a-z0-9@._+-], and not starting with '-', '.', or '+'.
type Name struct {
	raw string
}

// ParseName validates and wraps text as a Name.
func ParseName(text string) (Name, error) {
	if text == "" {
		return Name{}, &InvalidValueError{Kind: "Name", Value: text, Reason: "empty"}
	}
	for i, r := range text {
		if !isNameRune(r) {
			return Name{}, &InvalidValueError{Kind: "Name", Value: text, Reason: fmt.Sprintf("invalid character %q at offset %d", r, i)}
		}
	}
	switch text[0] {
	case '-', '.', '+':
		return Name{}, &InvalidValueError{Kind: "Name", Value: text, Reason: "must not start with '-', '.', or '+'"}
	}
	return Name{raw: text}, nil
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case strings.ContainsRune("@._+-", r):
		return true
	}
	return false
}

// String returns the canonical textual form.
func (n Name) String() string { return n.raw }

// IsZero reports whether n is the zero value (never produced by ParseName).
func (n Name) IsZero() bool { return n.raw == "" }

// Compare returns -1, 0, or 1 per the usual ordering contract, comparing
// canonical strings lexicographically.
func (n Name) Compare(other Name) int {
	return strings.Compare(n.raw, other.raw)
}

// Equal reports canonical-form equality.
func (n Name) Equal(other Name) bool { return n.raw == other.raw }

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) { return []byte(n.raw), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Name) UnmarshalText(text []byte) error {
	parsed, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
