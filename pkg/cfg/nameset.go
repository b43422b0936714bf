package cfg

import "sort"

// NameSet is a set of variable names.
type NameSet map[string]bool

// NewNameSet creates a set holding names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// Add adds a name to the set.
func (s NameSet) Add(name string) {
	s[name] = true
}

// Remove removes a name from the set.
func (s NameSet) Remove(name string) {
	delete(s, name)
}

// Contains reports whether name is in the set.
func (s NameSet) Contains(name string) bool {
	return s[name]
}

// Union returns a new set with all names from both sets.
func (s NameSet) Union(other NameSet) NameSet {
	result := s.Copy()
	for n := range other {
		result[n] = true
	}
	return result
}

// Minus returns a new set with names in s but not in other.
func (s NameSet) Minus(other NameSet) NameSet {
	result := make(NameSet, len(s))
	for n := range s {
		if !other[n] {
			result[n] = true
		}
	}
	return result
}

// Equal reports whether both sets hold the same names.
func (s NameSet) Equal(other NameSet) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other[n] {
			return false
		}
	}
	return true
}

// Copy returns a copy of the set.
func (s NameSet) Copy() NameSet {
	result := make(NameSet, len(s))
	for n := range s {
		result[n] = true
	}
	return result
}

// Sorted returns the names in lexical order (for deterministic output).
func (s NameSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
