package resource

import "fmt"

// Set is an insertion-ordered collection of resources keyed by ID.
type Set struct {
	items map[string]*Resource
	order []string
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{
		items: make(map[string]*Resource),
	}
}

// Add inserts a resource. Re-adding an identical resource is a no-op; adding a
// different resource under an existing ID fails with ErrDuplicateDeclaration.
func (s *Set) Add(r *Resource) error {
	if existing, ok := s.items[r.ID]; ok {
		if existing.Equal(r) {
			return nil
		}

		return fmt.Errorf("%w: %s %s", ErrDuplicateDeclaration, r.Kind, r.ID)
	}

	s.items[r.ID] = r
	s.order = append(s.order, r.ID)

	return nil
}

// Merge adds every resource of other, in order.
func (s *Set) Merge(other *Set) error {
	for _, r := range other.Entries() {
		if err := s.Add(r); err != nil {
			return err
		}
	}

	return nil
}

// Get returns a resource by ID, or nil if not found.
func (s *Set) Get(id string) *Resource {
	return s.items[id]
}

// Has reports whether a resource with the given ID exists.
func (s *Set) Has(id string) bool {
	_, ok := s.items[id]

	return ok
}

// Entries returns all resources in insertion order.
func (s *Set) Entries() []*Resource {
	entries := make([]*Resource, 0, len(s.order))

	for _, id := range s.order {
		entries = append(entries, s.items[id])
	}

	return entries
}

// OfKind returns the resources of one kind in insertion order.
func (s *Set) OfKind(k Kind) []*Resource {
	var out []*Resource

	for _, r := range s.Entries() {
		if r.Kind == k {
			out = append(out, r)
		}
	}

	return out
}

// Fragments returns the fragments merged into target in insertion order.
func (s *Set) Fragments(target string) []*Resource {
	var out []*Resource

	for _, r := range s.OfKind(KindFragment) {
		if r.Target == target {
			out = append(out, r)
		}
	}

	return out
}

// Targets returns the distinct fragment targets in first-seen order.
func (s *Set) Targets() []string {
	seen := make(map[string]bool)

	var targets []string

	for _, r := range s.OfKind(KindFragment) {
		if !seen[r.Target] {
			seen[r.Target] = true
			targets = append(targets, r.Target)
		}
	}

	return targets
}

// Len returns the number of resources in the set.
func (s *Set) Len() int {
	return len(s.order)
}
