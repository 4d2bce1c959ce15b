// Package sierra models the declarations of a parsed Sierra program: the
// concrete type and libfunc declarations a backend consumes in program order.
package sierra

import (
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// ID identifies a declaration. DebugName is optional; an empty string means
// the program carries no debug name for it.
type ID struct {
	ID        uint64 `json:"id" yaml:"id" msgpack:"id"`
	DebugName string `json:"debug_name,omitempty" yaml:"debug_name,omitempty" msgpack:"debug_name,omitempty"`
}

// ConcreteTypeID identifies a concrete type declaration.
type ConcreteTypeID = ID

// ConcreteLibfuncID identifies a concrete libfunc declaration.
type ConcreteLibfuncID = ID

// Key renders the numeric id in decimal. Backend registries are keyed by it.
func (id ID) Key() string {
	return strconv.FormatUint(id.ID, 10)
}

// HasName reports whether the declaration carries a debug name.
func (id ID) HasName() bool {
	return id.DebugName != ""
}

// Name returns the NFC-normalized debug name, or "" when absent.
func (id ID) Name() string {
	if id.DebugName == "" {
		return ""
	}
	return norm.NFC.String(id.DebugName)
}

// String returns the debug name when present and "[id]" otherwise.
func (id ID) String() string {
	if id.HasName() {
		return id.Name()
	}
	return "[" + id.Key() + "]"
}
