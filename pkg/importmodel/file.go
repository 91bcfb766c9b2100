// Package importmodel defines the data model for source file dependency inference.
package importmodel

import (
	"maps"
	"slices"
)

// Set is a set of distinct external library names inferred from a source file.
type Set map[string]struct{}

// NewSet returns a set holding the given names.
func NewSet(names ...string) Set {
	set := make(Set, len(names))

	for _, name := range names {
		set.Add(name)
	}

	return set
}

// Add inserts name into the set.
func (s Set) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is in the set.
func (s Set) Has(name string) bool {
	_, ok := s[name]

	return ok
}

// Len returns the number of names in the set.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the names in lexical order.
func (s Set) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// File represents a source file with its inferred dependencies, language, and any parse error.
type File struct {
	Path         string
	Lang         string
	Dependencies Set
	Error        error
}
