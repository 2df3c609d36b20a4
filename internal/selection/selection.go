// Package selection tracks which fields are currently selected.
package selection

// Set is an ordered set of field ids. The zero value is an empty selection.
type Set struct {
	ids []string
}

// IDs returns a copy of the selected ids in selection order.
func (s *Set) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of selected ids.
func (s *Set) Len() int {
	return len(s.ids)
}

// Has reports whether id is selected.
func (s *Set) Has(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// SelectSingle replaces the selection with id.
func (s *Set) SelectSingle(id string) {
	s.ids = []string{id}
}

// Toggle adds id if absent and removes it if present, keeping the rest.
func (s *Set) Toggle(id string) {
	if s.Has(id) {
		s.Remove(id)
		return
	}
	s.ids = append(s.ids, id)
}

// SelectSet replaces the selection with exactly ids, dropping duplicates.
func (s *Set) SelectSet(ids []string) {
	next := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			next = append(next, id)
		}
	}
	s.ids = next
}

// Clear empties the selection.
func (s *Set) Clear() {
	s.ids = nil
}

// Remove drops every listed id. Used when fields are deleted.
func (s *Set) Remove(ids ...string) {
	if len(ids) == 0 || len(s.ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.ids[:0:0]
	for _, id := range s.ids {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	s.ids = kept
}

// Retain keeps only the ids for which keep returns true.
func (s *Set) Retain(keep func(id string) bool) {
	kept := s.ids[:0:0]
	for _, id := range s.ids {
		if keep(id) {
			kept = append(kept, id)
		}
	}
	s.ids = kept
}
