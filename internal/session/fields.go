package session

import (
	"fmt"

	"github.com/hpungsan/fieldmark/internal/codec"
	"github.com/hpungsan/fieldmark/internal/errors"
	"github.com/hpungsan/fieldmark/internal/field"
	"github.com/hpungsan/fieldmark/internal/geom"
	"github.com/hpungsan/fieldmark/internal/interact"
)

// Fields returns the fields on page, in store order. Page 0 returns every field.
func (s *Session) Fields(page int) []field.Field {
	if page == 0 {
		return s.store.All()
	}
	return s.store.OnPage(page)
}

// Field returns one field by id.
func (s *Session) Field(id string) (field.Field, error) {
	f, ok := s.store.Get(id)
	if !ok {
		return field.Field{}, errors.NewNotFound(id)
	}
	return f, nil
}

// Selected returns the selected ids in selection order.
func (s *Session) Selected() []string {
	return s.sel.IDs()
}

// AddField creates a field and selects it. A rectangle under the minimum
// size is not an error: added is false and nothing changes.
func (s *Session) AddField(page int, r geom.Rect, name string) (f field.Field, added bool, err error) {
	if err := s.checkPage(page); err != nil {
		return field.Field{}, false, err
	}
	f, added = s.store.Add(page, r, name)
	if added {
		s.sel.SelectSingle(f.ID)
	}
	return f, added, nil
}

// Rename sets a field's name.
func (s *Session) Rename(id, name string) error {
	if !s.store.Rename(id, name) {
		return errors.NewNotFound(id)
	}
	return nil
}

// MoveField places one field at x, y, clamped onto the page.
func (s *Session) MoveField(id string, x, y float64) (field.Field, error) {
	f, ok := s.store.Get(id)
	if !ok {
		return field.Field{}, errors.NewNotFound(id)
	}
	r := f.Rect
	r.X, r.Y = x, y
	r = geom.ClampPosition(r)
	s.store.Move([]field.Move{{ID: id, X: r.X, Y: r.Y}})
	f.Rect = r
	return f, nil
}

// DeleteFields removes fields and drops them from the selection in the same
// step. Returns the ids actually removed.
func (s *Session) DeleteFields(ids ...string) []string {
	removed := s.store.DeleteMany(ids)
	if len(removed) == 0 {
		return nil
	}
	s.sel.Remove(removed...)
	if s.state.Phase == interact.Dragging {
		s.state = interact.State{}
	}
	return removed
}

// DeleteSelected removes every selected field.
func (s *Session) DeleteSelected() []string {
	return s.DeleteFields(s.sel.IDs()...)
}

// Select replaces the selection with ids. Unknown ids fail the whole call.
func (s *Session) Select(ids []string) error {
	for _, id := range ids {
		if _, ok := s.store.Get(id); !ok {
			return errors.NewNotFound(id)
		}
	}
	s.sel.SelectSet(ids)
	return nil
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	s.sel.Clear()
}

// SyncYSelected aligns the selected fields to the Y of the one that comes
// first in store order. Returns the number of fields updated.
func (s *Session) SyncYSelected() int {
	return s.store.SyncY(s.sel.IDs())
}

// Export encodes every field as the interchange JSON.
func (s *Session) Export() ([]byte, error) {
	return codec.Export(s.store.All(), s.dims)
}

// Import replaces the whole field collection with the decoded file. A parse
// failure leaves the session untouched. The selection keeps only ids that
// survive the import.
func (s *Session) Import(data []byte) (int, error) {
	fields, err := codec.Import(data, s.dims)
	if err != nil {
		return 0, err
	}
	s.store.ReplaceAll(fields)
	s.sel.Retain(func(id string) bool {
		_, ok := s.store.Get(id)
		return ok
	})
	if s.state.Phase != interact.Idle {
		s.state = interact.State{}
	}
	return len(fields), nil
}

func (s *Session) checkPage(page int) error {
	if page < 1 {
		return errors.NewInvalidRequest("page must be >= 1")
	}
	if s.doc != nil && page > s.doc.NumPages() {
		return errors.NewInvalidRequest(fmt.Sprintf("page %d out of range 1-%d", page, s.doc.NumPages()))
	}
	return nil
}
