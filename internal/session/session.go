// Package session owns the editing state for one document: the field store,
// the selection, page dimensions, the current page and viewport, and the
// interaction state machine. Every mutation goes through a Session method so
// the selection can never refer to a deleted field.
//
// A Session is not safe for concurrent use. Wrap it in a Shared when more
// than one goroutine drives it.
package session

import (
	"context"
	"fmt"
	"image"
	"log"

	"github.com/hpungsan/fieldmark/internal/config"
	"github.com/hpungsan/fieldmark/internal/document"
	"github.com/hpungsan/fieldmark/internal/errors"
	"github.com/hpungsan/fieldmark/internal/field"
	"github.com/hpungsan/fieldmark/internal/geom"
	"github.com/hpungsan/fieldmark/internal/interact"
	"github.com/hpungsan/fieldmark/internal/selection"
)

// Options tunes a session.
type Options struct {
	SnapTolerancePx float64
	MinFieldPercent float64
	ReferenceScale  float64 // scale page dimensions are captured at
	RenderScale     float64 // scale the page surface and viewport use
	DrawMode        bool
}

// OptionsFromConfig builds Options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SnapTolerancePx: cfg.SnapTolerancePx,
		MinFieldPercent: cfg.MinFieldPercent,
		ReferenceScale:  cfg.ReferenceScale,
		RenderScale:     cfg.RenderScale,
		DrawMode:        cfg.DrawMode,
	}
}

// Session is the editing context for one document.
type Session struct {
	opts  Options
	store *field.Store
	sel   selection.Set
	state interact.State

	doc     document.Document
	docName string
	dims    map[int]geom.Size

	page     int
	viewport geom.Size
	drawMode bool

	surface    image.Image
	renderGen  uint64
	cancelPrev context.CancelFunc
}

// New creates a session with no document loaded.
func New(opts Options) *Session {
	if opts.ReferenceScale <= 0 {
		opts.ReferenceScale = 1
	}
	if opts.RenderScale <= 0 {
		opts.RenderScale = opts.ReferenceScale
	}
	return &Session{
		opts:     opts,
		store:    field.NewStore(opts.MinFieldPercent),
		dims:     map[int]geom.Size{},
		page:     1,
		drawMode: opts.DrawMode,
	}
}

// LoadDocument switches to a new document. Fields, selection and any
// in-flight render of the previous document are discarded. On error the
// session is left unchanged.
func (s *Session) LoadDocument(name string, doc document.Document) error {
	if doc == nil || doc.NumPages() < 1 {
		return errors.NewLoadFailed(fmt.Errorf("document has no pages"))
	}
	dims, err := document.Dimensions(doc, s.opts.ReferenceScale)
	if err != nil {
		return errors.NewLoadFailed(err)
	}

	s.cancelRender()
	s.renderGen++
	s.doc = doc
	s.docName = name
	s.dims = dims
	s.store.ReplaceAll(nil)
	s.sel.Clear()
	s.state = interact.State{}
	s.page = 1
	s.viewport = s.viewportFor(1)
	s.surface = nil

	log.Printf("session: loaded %s (%d pages)", name, doc.NumPages())
	return nil
}

// HasDocument reports whether a document is loaded.
func (s *Session) HasDocument() bool {
	return s.doc != nil
}

// NumPages returns the page count of the loaded document, or 0.
func (s *Session) NumPages() int {
	if s.doc == nil {
		return 0
	}
	return s.doc.NumPages()
}

// Document returns the loaded document, or nil.
func (s *Session) Document() document.Document {
	return s.doc
}

// RenderScale returns the scale pages are rasterised at.
func (s *Session) RenderScale() float64 {
	return s.opts.RenderScale
}

// Page returns the 1-based page shown on the canvas.
func (s *Session) Page() int {
	return s.page
}

// Dimensions returns a copy of the page dimensions at the reference scale.
func (s *Session) Dimensions() map[int]geom.Size {
	out := make(map[int]geom.Size, len(s.dims))
	for k, v := range s.dims {
		out[k] = v
	}
	return out
}

// Viewport returns the canvas size in pixels.
func (s *Session) Viewport() geom.Size {
	return s.viewport
}

// SetViewport overrides the canvas size pointer events are measured against.
func (s *Session) SetViewport(size geom.Size) error {
	if size.IsZero() {
		return errors.NewInvalidRequest("viewport width and height must be positive")
	}
	s.viewport = size
	return nil
}

// DrawMode reports whether a press on empty canvas draws a new field.
func (s *Session) DrawMode() bool {
	return s.drawMode
}

// SetDrawMode switches empty-canvas presses between drawing and lasso. A
// gesture already in progress is unaffected.
func (s *Session) SetDrawMode(on bool) {
	s.drawMode = on
}

// State returns the current interaction state.
func (s *Session) State() interact.State {
	return s.state
}

// Surface returns the rendered surface of the current page, or nil when it
// has not been rendered yet.
func (s *Session) Surface() image.Image {
	return s.surface
}

// Dispatch feeds one pointer event through the interaction state machine and
// applies the resulting effects.
func (s *Session) Dispatch(ev interact.Event) interact.Phase {
	next, effects := interact.Reduce(s.state, ev, s.scene())
	s.state = next
	s.apply(effects)
	return s.state.Phase
}

// Key handles a keyboard command and reports whether it was recognised.
// Delete and Backspace remove the selection when no gesture is in progress;
// Escape cancels the gesture and clears the selection.
func (s *Session) Key(key string) bool {
	switch key {
	case "Delete", "Backspace":
		if s.state.Phase == interact.Idle {
			s.DeleteSelected()
		}
		return true
	case "Escape":
		s.Dispatch(interact.Event{Kind: interact.Cancel})
		s.sel.Clear()
		return true
	}
	return false
}

func (s *Session) scene() interact.Scene {
	return interact.Scene{
		Fields:          s.store.All(),
		Selected:        s.sel.IDs(),
		Page:            s.page,
		Viewport:        s.viewport,
		DrawMode:        s.drawMode,
		SnapTolerancePx: s.opts.SnapTolerancePx,
		MinSize:         s.store.MinSize(),
	}
}

func (s *Session) apply(effects []interact.Effect) {
	for _, e := range effects {
		switch e.Kind {
		case interact.EffectSelectSingle:
			s.sel.SelectSingle(e.ID)
		case interact.EffectToggle:
			s.sel.Toggle(e.ID)
		case interact.EffectSelectSet:
			s.sel.SelectSet(e.IDs)
		case interact.EffectClearSelection:
			s.sel.Clear()
		case interact.EffectMove:
			s.store.Move(e.Moves)
		case interact.EffectAdd:
			if f, ok := s.store.Add(e.Page, e.Rect, ""); ok {
				s.sel.SelectSingle(f.ID)
			}
		}
	}
}

func (s *Session) viewportFor(page int) geom.Size {
	size, ok := s.dims[page]
	if !ok {
		return geom.Size{}
	}
	return size.Scale(s.opts.RenderScale / s.opts.ReferenceScale)
}
