// Package sets provides a minimal generic hash set used for membership
// checks such as feed tag allow-lists.
package sets

// Set is a hash set over comparable keys. The zero value is not usable; use
// New.
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v into the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has reports whether v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}
