package field

import (
	"math"

	"github.com/hpungsan/fieldmark/internal/geom"
)

// DefaultMinSize is the smallest width and height, in percent, a field may have.
const DefaultMinSize = 0.5

// Store is the ordered collection of fields for one document. Order is
// insertion order and drives default naming, list display and hit testing.
//
// Store is not safe for concurrent use; callers serialise access.
type Store struct {
	fields  []Field
	minSize float64
	newID   func() string
}

// NewStore creates an empty store that rejects fields smaller than minSize
// percent in either axis. A non-positive minSize uses DefaultMinSize.
func NewStore(minSize float64) *Store {
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	return &Store{minSize: minSize, newID: NewID}
}

// MinSize returns the minimum field extent in percent.
func (s *Store) MinSize() float64 {
	return s.minSize
}

// Len returns the number of fields.
func (s *Store) Len() int {
	return len(s.fields)
}

// All returns a copy of every field in store order.
func (s *Store) All() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// OnPage returns a copy of the fields on the given page, in store order.
func (s *Store) OnPage(page int) []Field {
	var out []Field
	for _, f := range s.fields {
		if f.Page == page {
			out = append(out, f)
		}
	}
	return out
}

// Get returns the field with the given id.
func (s *Store) Get(id string) (Field, bool) {
	if i := s.index(id); i >= 0 {
		return s.fields[i], true
	}
	return Field{}, false
}

// Add appends a new field with a fresh id. Rectangles under the minimum size
// and pages below 1 are discarded; ok reports whether the field was added.
// An empty name is replaced by the default name for the new position.
// Extents larger than the page are capped before the position is clamped.
func (s *Store) Add(page int, r geom.Rect, name string) (f Field, ok bool) {
	if page < 1 || !r.AtLeast(s.minSize) {
		return Field{}, false
	}
	name = CleanName(name)
	if name == "" {
		name = DefaultName(len(s.fields) + 1)
	}
	r.Width = math.Min(r.Width, geom.FullExtent)
	r.Height = math.Min(r.Height, geom.FullExtent)
	f = Field{
		ID:           s.newID(),
		Page:         page,
		Rect:         geom.ClampPosition(r),
		VariableName: name,
	}
	s.fields = append(s.fields, f)
	return f, true
}

// Rename sets a field's display name. No uniqueness check is made and the
// empty string is accepted.
func (s *Store) Rename(id, name string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.fields[i].VariableName = name
	return true
}

// Move applies a batch of positional updates. Unknown ids are ignored. The
// batch is applied to a copy that replaces the collection in one step, so
// no reader observes a partially moved selection. Positions are taken as
// given; the caller owns clamping. Returns the number of fields updated.
func (s *Store) Move(moves []Move) int {
	if len(moves) == 0 {
		return 0
	}
	byID := make(map[string]Move, len(moves))
	for _, m := range moves {
		byID[m.ID] = m
	}

	next := make([]Field, len(s.fields))
	copy(next, s.fields)
	applied := 0
	for i := range next {
		if m, ok := byID[next[i].ID]; ok {
			next[i].X = m.X
			next[i].Y = m.Y
			applied++
		}
	}
	s.fields = next
	return applied
}

// Delete removes the field with the given id. Missing ids are a no-op.
func (s *Store) Delete(id string) bool {
	return len(s.DeleteMany([]string{id})) == 1
}

// DeleteMany removes every listed field and returns the ids actually removed.
func (s *Store) DeleteMany(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	var removed []string
	kept := s.fields[:0:0]
	for _, f := range s.fields {
		if drop[f.ID] {
			removed = append(removed, f.ID)
			continue
		}
		kept = append(kept, f)
	}
	s.fields = kept
	return removed
}

// SyncY gives every listed field the Y of the listed field that comes first
// in store order (not list order). Fewer than two ids is a no-op. Each
// resulting Y is clamped so the field stays on the page. Returns the number
// of fields updated.
func (s *Store) SyncY(ids []string) int {
	if len(ids) < 2 {
		return 0
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	refIdx := -1
	for i, f := range s.fields {
		if want[f.ID] {
			refIdx = i
			break
		}
	}
	if refIdx < 0 {
		return 0
	}
	refY := s.fields[refIdx].Y

	var moves []Move
	for _, f := range s.fields {
		if !want[f.ID] {
			continue
		}
		r := f.Rect
		r.Y = refY
		r = geom.ClampPosition(r)
		moves = append(moves, Move{ID: f.ID, X: r.X, Y: r.Y})
	}
	return s.Move(moves)
}

// ReplaceAll swaps in a new collection wholesale. Used by import.
func (s *Store) ReplaceAll(fields []Field) {
	next := make([]Field, len(fields))
	copy(next, fields)
	s.fields = next
}

func (s *Store) index(id string) int {
	for i, f := range s.fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}
