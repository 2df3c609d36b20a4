package interact

import (
	"math"

	"github.com/hpungsan/fieldmark/internal/field"
	"github.com/hpungsan/fieldmark/internal/geom"
)

// Reduce advances the state machine by one event.
func Reduce(st State, ev Event, sc Scene) (State, []Effect) {
	switch ev.Kind {
	case PointerDown:
		return down(st, ev, sc)
	case PointerMove:
		return move(st, ev, sc)
	case PointerUp, PointerLeave:
		return up(st, ev, sc)
	case Cancel:
		return cancel(st)
	}
	return st, nil
}

func down(st State, ev Event, sc Scene) (State, []Effect) {
	if st.Phase != Idle || sc.Viewport.IsZero() {
		return st, nil
	}
	pos := geom.ClampPoint(geom.PixelToPercent(ev.Pos, sc.Viewport))

	hit, ok := hitTest(sc, pos)
	if !ok {
		next := State{Start: pos, Box: geom.Rect{X: pos.X, Y: pos.Y}}
		if sc.DrawMode {
			next.Phase = Drawing
			return next, nil
		}
		next.Phase = Lassoing
		if ev.Additive {
			return next, nil
		}
		return next, []Effect{{Kind: EffectClearSelection}}
	}

	selected := toSet(sc.Selected)
	var effects []Effect
	switch {
	case ev.Additive:
		effects = append(effects, Effect{Kind: EffectToggle, ID: hit.ID})
		if selected[hit.ID] {
			delete(selected, hit.ID)
		} else {
			selected[hit.ID] = true
		}
	case !selected[hit.ID]:
		effects = append(effects, Effect{Kind: EffectSelectSingle, ID: hit.ID})
		selected = map[string]bool{hit.ID: true}
	}

	// An additive press that deselected the field starts no drag.
	if !selected[hit.ID] {
		return State{}, effects
	}

	drag := &DragSession{Anchor: hit.ID, AnchorPage: hit.Page, Origin: ev.Pos}
	for _, f := range sc.Fields {
		if selected[f.ID] {
			drag.Snapshots = append(drag.Snapshots, Snapshot{ID: f.ID, Rect: f.Rect})
		}
	}
	return State{Phase: Dragging, Drag: drag}, effects
}

func move(st State, ev Event, sc Scene) (State, []Effect) {
	if sc.Viewport.IsZero() {
		return st, nil
	}
	switch st.Phase {
	case Drawing:
		st.Box = geom.RectFromPoints(st.Start, pointerPercent(ev, sc))
		return st, nil

	case Lassoing:
		st.Box = geom.RectFromPoints(st.Start, pointerPercent(ev, sc))
		ids := make([]string, 0)
		for _, f := range sc.Fields {
			if f.Page == sc.Page && st.Box.Contains(f.Rect) {
				ids = append(ids, f.ID)
			}
		}
		return st, []Effect{{Kind: EffectSelectSet, IDs: ids}}

	case Dragging:
		return drag(st, ev, sc)
	}
	return st, nil
}

func drag(st State, ev Event, sc Scene) (State, []Effect) {
	d := st.Drag
	dx := (ev.Pos.X - d.Origin.X) / sc.Viewport.Width * geom.FullExtent
	dy := (ev.Pos.Y - d.Origin.Y) / sc.Viewport.Height * geom.FullExtent

	st.ShowGuide = false
	st.Guide = 0
	if anchor, ok := d.snapshot(d.Anchor); ok {
		if y, snapped := snapY(anchor.Rect.Y+dy, d, sc); snapped {
			dy = y - anchor.Rect.Y
			st.ShowGuide = true
			st.Guide = y
		}
	}

	moves := make([]field.Move, 0, len(d.Snapshots))
	for _, s := range d.Snapshots {
		r := s.Rect
		r.X += dx
		r.Y += dy
		r = geom.ClampPosition(r)
		moves = append(moves, field.Move{ID: s.ID, X: r.X, Y: r.Y})
	}
	return st, []Effect{{Kind: EffectMove, Moves: moves}}
}

// snapY returns the Y of the first field in store order that is not being
// dragged, lives on the anchor's page, and lies within the snap tolerance of
// candidate.
func snapY(candidate float64, d *DragSession, sc Scene) (float64, bool) {
	if sc.SnapTolerancePx <= 0 {
		return 0, false
	}
	tolerance := sc.SnapTolerancePx / sc.Viewport.Height * geom.FullExtent
	for _, f := range sc.Fields {
		if f.Page != d.AnchorPage || d.has(f.ID) {
			continue
		}
		if math.Abs(candidate-f.Y) <= tolerance {
			return f.Y, true
		}
	}
	return 0, false
}

func up(st State, ev Event, sc Scene) (State, []Effect) {
	switch st.Phase {
	case Drawing:
		box := st.Box
		if !sc.Viewport.IsZero() {
			box = geom.RectFromPoints(st.Start, pointerPercent(ev, sc))
		}
		if box.AtLeast(sc.MinSize) {
			return State{}, []Effect{{Kind: EffectAdd, Page: sc.Page, Rect: box}}
		}
		return State{}, nil
	case Dragging, Lassoing:
		return State{}, nil
	}
	return st, nil
}

// cancel aborts the gesture. A drag is rolled back to its snapshots; a draw
// preview is discarded; a lasso keeps whatever it had selected.
func cancel(st State) (State, []Effect) {
	if st.Phase != Dragging || st.Drag == nil {
		return State{}, nil
	}
	moves := make([]field.Move, 0, len(st.Drag.Snapshots))
	for _, s := range st.Drag.Snapshots {
		moves = append(moves, field.Move{ID: s.ID, X: s.Rect.X, Y: s.Rect.Y})
	}
	return State{}, []Effect{{Kind: EffectMove, Moves: moves}}
}

// hitTest returns the top-most field on the current page under pos. Later
// fields are drawn over earlier ones, so the scan runs from the end.
func hitTest(sc Scene, pos geom.Point) (field.Field, bool) {
	for i := len(sc.Fields) - 1; i >= 0; i-- {
		f := sc.Fields[i]
		if f.Page == sc.Page && f.Rect.ContainsPoint(pos) {
			return f, true
		}
	}
	return field.Field{}, false
}

func pointerPercent(ev Event, sc Scene) geom.Point {
	return geom.ClampPoint(geom.PixelToPercent(ev.Pos, sc.Viewport))
}

func (d *DragSession) snapshot(id string) (Snapshot, bool) {
	for _, s := range d.Snapshots {
		if s.ID == id {
			return s, true
		}
	}
	return Snapshot{}, false
}

func (d *DragSession) has(id string) bool {
	_, ok := d.snapshot(id)
	return ok
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
