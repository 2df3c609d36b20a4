// Package interact turns a stream of pointer events into field and
// selection changes. The state machine is a pure function: Reduce takes the
// current State, one Event and a read-only Scene, and returns the next State
// plus the Effects the owner must apply, in order.
package interact

import (
	"github.com/hpungsan/fieldmark/internal/field"
	"github.com/hpungsan/fieldmark/internal/geom"
)

// Phase is the gesture currently in progress.
type Phase int

const (
	Idle Phase = iota
	Drawing
	Dragging
	Lassoing
)

var phaseNames = [...]string{"idle", "drawing", "dragging", "lassoing"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// EventKind identifies a pointer event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	// PointerLeave is the pointer leaving the canvas; handled like PointerUp.
	PointerLeave
	// Cancel aborts the gesture in progress (Escape).
	Cancel
)

var eventNames = map[string]EventKind{
	"down":   PointerDown,
	"move":   PointerMove,
	"up":     PointerUp,
	"leave":  PointerLeave,
	"cancel": Cancel,
}

// ParseEventKind maps "down", "move", "up", "leave" and "cancel" to an EventKind.
func ParseEventKind(s string) (EventKind, bool) {
	k, ok := eventNames[s]
	return k, ok
}

// Event is one pointer event. Pos is in pixels relative to the page
// canvas's top-left corner. Additive is true when shift, ctrl or meta is held.
type Event struct {
	Kind     EventKind
	Pos      geom.Point
	Additive bool
}

// Scene is the read-only view of the session the reducer needs.
type Scene struct {
	// Fields is every field in store order
	Fields []field.Field

	// Selected is the current selection
	Selected []string

	// Page is the 1-based page shown on the canvas
	Page int

	// Viewport is the canvas size in pixels
	Viewport geom.Size

	// DrawMode makes a press on empty canvas draw instead of lasso
	DrawMode bool

	// SnapTolerancePx is the snap distance in viewport pixels
	SnapTolerancePx float64

	// MinSize is the minimum committed field extent in percent
	MinSize float64
}

// Snapshot is a dragged field's rectangle captured at pointer-down.
type Snapshot struct {
	ID   string
	Rect geom.Rect
}

// DragSession lives from the pointer-down that starts a drag to the
// matching pointer-up.
type DragSession struct {
	// Anchor is the field that was pressed; snapping is computed for it
	Anchor string

	// AnchorPage is the page the anchor field lives on
	AnchorPage int

	// Origin is the pointer-down position in pixels
	Origin geom.Point

	// Snapshots holds every dragged field's pre-drag rectangle, in store order
	Snapshots []Snapshot
}

// State is the interaction state between events.
type State struct {
	Phase Phase

	// Start is the pointer-down position in percent (Drawing, Lassoing)
	Start geom.Point

	// Box is the live draw preview or lasso rectangle in percent
	Box geom.Rect

	// Drag is set while Dragging
	Drag *DragSession

	// Guide is the Y, in percent, of the snap guide line when ShowGuide is set
	Guide     float64
	ShowGuide bool
}

// EffectKind identifies a mutation requested by the reducer.
type EffectKind int

const (
	EffectSelectSingle EffectKind = iota
	EffectToggle
	EffectSelectSet
	EffectClearSelection
	EffectMove
	EffectAdd
)

// Effect is a mutation the owner of the field store and selection applies.
type Effect struct {
	Kind  EffectKind
	ID    string       // SelectSingle, Toggle
	IDs   []string     // SelectSet
	Moves []field.Move // Move
	Page  int          // Add
	Rect  geom.Rect    // Add
}
