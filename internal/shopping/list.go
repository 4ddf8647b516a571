package shopping

import (
	"errors"
	"slices"
	"strings"
)

// Delimiter separates recipe IDs in the persisted shopping list.
const Delimiter = ","

// ErrInvalidID is returned for recipe IDs that cannot be stored in a list.
var ErrInvalidID = errors.New("invalid recipe id")

// List is the set of recipe IDs a user wants to shop for. Order is the order
// in which IDs were added and is kept only for round-trip stability.
type List []string

// Parse splits a persisted shopping list, dropping empty segments.
func Parse(raw string) List {
	list := List{}
	for id := range strings.SplitSeq(raw, Delimiter) {
		if id != "" {
			list = append(list, id)
		}
	}
	return list
}

// Serialize joins the list into its persisted form.
func Serialize(l List) string {
	return strings.Join(l, Delimiter)
}

// Serialize joins the list into its persisted form.
func (l List) Serialize() string {
	return Serialize(l)
}

// Contains reports whether id is on the list.
func (l List) Contains(id string) bool {
	return slices.Contains(l, id)
}

// Toggle returns a new list with id removed if present, or appended if not. l
// is left untouched. id must satisfy ValidID.
func Toggle(l List, id string) List {
	if l.Contains(id) {
		return l.Without(id)
	}
	next := make(List, len(l), len(l)+1)
	copy(next, l)
	return append(next, id)
}

// Toggle is the method form of Toggle.
func (l List) Toggle(id string) List {
	return Toggle(l, id)
}

// Without returns a copy of the list with id removed.
func (l List) Without(id string) List {
	next := make(List, 0, len(l))
	for _, existing := range l {
		if existing != id {
			next = append(next, existing)
		}
	}
	return next
}

// ValidID checks that id can be stored: it must be non-empty and must not
// contain the delimiter.
func ValidID(id string) error {
	if id == "" || strings.Contains(id, Delimiter) {
		return ErrInvalidID
	}
	return nil
}
