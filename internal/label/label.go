// Package label implements the opaque blame-carrying token attached to
// every contract check. Each label is identified by a process-unique UUID rather
// than by a pointer, so two labels survive being structurally cloned
// (copied into a new Closure's environment, for instance) without losing
// their identity, and so error messages never leak raw memory addresses.
package label

import (
	"fmt"

	"github.com/google/uuid"
)

// Label carries the diagnostic context a blame error reports: the
// contract's type description, the field or expression path being
// checked, and an optional message. It holds no source position; the
// position of a blame comes from the term that raised it.
type Label struct {
	id uuid.UUID

	// TypeDescr is the human-readable type the contract enforces, e.g.
	// "Num" or "{name: Str}".
	TypeDescr string
	// Path is the field-access path from the root value being checked,
	// e.g. "config.port". Empty at the root.
	Path string
	// Message is an optional user-supplied annotation (from a
	// `| doc "..."` or a custom contract message).
	Message string
}

// New creates a label with a fresh identity.
func New(typeDescr, path string) *Label {
	return &Label{id: uuid.New(), TypeDescr: typeDescr, Path: path}
}

// ID returns the label's process-unique identity. Two *Label values refer
// to the same logical blame site iff their ID is equal, independent of
// pointer identity.
func (l *Label) ID() uuid.UUID {
	if l == nil {
		return uuid.Nil
	}
	return l.id
}

// Equal reports whether l and other denote the same blame site.
func (l *Label) Equal(other *Label) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.id == other.id
}

// WithPath returns a copy of l with Path replaced — used when a contract
// check descends into a field and wants to report the fully qualified
// path without disturbing the original label's identity semantics (the
// copy keeps the same id: it is the same logical blame site, reported
// from a deeper point).
func (l *Label) WithPath(path string) *Label {
	cp := *l
	cp.Path = path
	return &cp
}

func (l *Label) String() string {
	if l == nil {
		return "<nil label>"
	}
	if l.Path == "" {
		return l.TypeDescr
	}
	return fmt.Sprintf("%s at %s", l.TypeDescr, l.Path)
}
