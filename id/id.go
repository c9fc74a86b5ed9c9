// Package id provides the TypeID-backed identifiers Vigil assigns to the
// records it creates: dead letter entries, scan runs and quota reports.
//
// An ID renders as "prefix_suffix" where the suffix encodes a UUIDv7, so
// IDs sort by creation time and are safe in URLs. Pipeline job and video
// records keep their producer-assigned string keys; only Vigil-owned
// records carry TypeIDs.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// ID is a prefix-qualified, time-sortable unique identifier.
//
//nolint:recvcheck // Read paths take value receivers; UnmarshalText and Scan need pointers.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID. It renders as "" and stores as NULL.
var Nil ID

// New generates an ID under the given prefix. The prefix constants in
// this package are the only intended arguments; an invalid prefix panics.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

// Parse decodes a TypeID string such as "dlq_01h2xcejqtf2nbrexx3vqjhp41".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse: empty string")
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix is Parse plus a check that the prefix matches, so a
// report ID cannot slip into a dead letter field.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}
	return parsed, nil
}

// String renders the ID as "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the entity-type prefix, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether the ID is the zero value.
func (i ID) IsNil() bool { return !i.valid }

// MarshalText implements encoding.TextMarshaler. Nil marshals to "".
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. "" restores Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer. Nil stores as NULL rather than "".
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil driver.Value is SQL NULL
	}
	return i.inner.String(), nil
}

// Scan implements sql.Scanner. NULL and "" both restore Nil.
func (i *ID) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
	return i.UnmarshalText([]byte(s))
}
