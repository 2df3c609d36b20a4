package session

import (
	"github.com/hpungsan/fieldmark/internal/field"
	"github.com/hpungsan/fieldmark/internal/geom"
	"github.com/hpungsan/fieldmark/internal/interact"
)

// View is a snapshot of what the canvas shows.
type View struct {
	Document string         `json:"document,omitempty"`
	Page     int            `json:"page"`
	NumPages int            `json:"num_pages"`
	PageSize *geom.Size     `json:"page_size,omitempty"`
	Viewport geom.Size      `json:"viewport"`
	DrawMode bool           `json:"draw_mode"`
	Phase    interact.Phase `json:"phase"`
	Preview  *geom.Rect     `json:"preview,omitempty"` // draw preview while drawing
	Lasso    *geom.Rect     `json:"lasso,omitempty"`
	Guide    *float64       `json:"guide,omitempty"` // snap guide Y while dragging
	Rendered bool           `json:"rendered"`
	Selected []string       `json:"selected"`
	Fields   []field.Field  `json:"fields"` // current page only
	Total    int            `json:"total_fields"`
}

// View returns a snapshot of the current page.
func (s *Session) View() View {
	v := View{
		Document: s.docName,
		Page:     s.page,
		NumPages: s.NumPages(),
		Viewport: s.viewport,
		DrawMode: s.drawMode,
		Phase:    s.state.Phase,
		Rendered: s.surface != nil,
		Selected: s.sel.IDs(),
		Fields:   s.store.OnPage(s.page),
		Total:    s.store.Len(),
	}
	if v.Fields == nil {
		v.Fields = []field.Field{}
	}
	if size, ok := s.dims[s.page]; ok {
		v.PageSize = &size
	}

	box := s.state.Box
	switch s.state.Phase {
	case interact.Drawing:
		v.Preview = &box
	case interact.Lassoing:
		v.Lasso = &box
	case interact.Dragging:
		if s.state.ShowGuide {
			g := s.state.Guide
			v.Guide = &g
		}
	}
	return v
}
