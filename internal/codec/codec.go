package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/hpungsan/fieldmark/internal/errors"
	"github.com/hpungsan/fieldmark/internal/field"
	"github.com/hpungsan/fieldmark/internal/geom"
)

// Defaults substituted for missing or unusable element values on import.
const (
	DefaultPage   = 1
	DefaultX      = 0.0
	DefaultY      = 0.0
	DefaultWidth  = 10.0
	DefaultHeight = 5.0
)

// Export encodes fields, in order, as an indented JSON array.
func Export(fields []field.Field, dims map[int]geom.Size) ([]byte, error) {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, ToRecord(f, dims))
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to encode fields: %w", err))
	}
	return append(data, '\n'), nil
}

// Import decodes an interchange file. The top level must be a JSON array;
// anything else fails with MALFORMED_INPUT. Individual elements never fail:
// missing or mistyped values are replaced by defaults.
//
// dims is used to map elements that only carry absolute coordinates back to
// percentage space; it may be nil.
func Import(data []byte, dims map[int]geom.Size) ([]field.Field, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.NewMalformedInput("empty input")
	}
	if trimmed[0] != '[' {
		return nil, errors.NewMalformedInput("top level is not a JSON array")
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, errors.NewMalformedInput(err.Error())
	}

	fields := make([]field.Field, 0, len(elems))
	seen := make(map[string]bool, len(elems))
	for i, raw := range elems {
		f := decodeElement(raw, i, dims)
		// Duplicate ids would make selection ambiguous.
		if seen[f.ID] {
			f.ID = field.NewID()
		}
		seen[f.ID] = true
		fields = append(fields, f)
	}
	return fields, nil
}

// shape is the element layout detected by sniff.
type shape int

const (
	// shapeRaw is the field's own top-level x/y/width/height
	shapeRaw shape = iota
	// shapeRich carries a percentageCoordinates block
	shapeRich
	// shapeAbsolute carries only a pdfCoordinates block
	shapeAbsolute
)

// element is a decoded JSON object whose values are still raw.
type element map[string]json.RawMessage

func decodeElement(raw json.RawMessage, index int, dims map[int]geom.Size) field.Field {
	var el element
	// Non-objects, null included, decode to a nil map and take every default.
	_ = json.Unmarshal(raw, &el)

	f := field.Field{
		ID:   el.str("id"),
		Page: el.page(),
	}
	if f.ID == "" {
		f.ID = field.NewID()
	}
	// An empty name is a valid name; only a missing one takes the default.
	if name, ok := el.text("variableName"); ok {
		f.VariableName = field.CleanName(name)
	} else {
		f.VariableName = field.DefaultName(index + 1)
	}

	switch sniff(el, f.Page, dims) {
	case shapeRich:
		f.Rect = decodeRich(el)
	case shapeAbsolute:
		f.Rect = decodeAbsolute(el, dims[f.Page])
	default:
		f.Rect = decodeRaw(el)
	}
	f.Rect = sanitize(f.Rect)
	return f
}

func sniff(el element, page int, dims map[int]geom.Size) shape {
	if el.object("percentageCoordinates") != nil {
		return shapeRich
	}
	if el.object("pdfCoordinates") == nil || el.hasAny("x", "y", "width", "height") {
		return shapeRaw
	}
	if size, ok := dims[page]; ok && !size.IsZero() {
		return shapeAbsolute
	}
	return shapeRaw
}

func decodeRich(el element) geom.Rect {
	return rectFrom(el.object("percentageCoordinates"))
}

func decodeAbsolute(el element, size geom.Size) geom.Rect {
	abs := el.object("pdfCoordinates")
	r := geom.Rect{
		X:      abs.num("x", 0),
		Y:      abs.num("y", 0),
		Width:  abs.num("width", 0),
		Height: abs.num("height", 0),
	}
	if r.Width <= 0 || r.Height <= 0 {
		return rectFrom(nil)
	}
	return geom.FromAbsolute(r, size)
}

func decodeRaw(el element) geom.Rect {
	return rectFrom(el)
}

func rectFrom(el element) geom.Rect {
	return geom.Rect{
		X:      el.num("x", DefaultX),
		Y:      el.num("y", DefaultY),
		Width:  el.num("width", DefaultWidth),
		Height: el.num("height", DefaultHeight),
	}
}

// sanitize makes an imported rectangle a valid committed field: non-positive
// extents take defaults, extents past the page are capped and the position
// is clamped onto the page.
func sanitize(r geom.Rect) geom.Rect {
	if r.Width <= 0 {
		r.Width = DefaultWidth
	}
	if r.Height <= 0 {
		r.Height = DefaultHeight
	}
	r.Width = math.Min(r.Width, geom.FullExtent)
	r.Height = math.Min(r.Height, geom.FullExtent)
	return geom.ClampPosition(r)
}

func (el element) str(key string) string {
	s, _ := el.text(key)
	return s
}

// text reports whether key holds a JSON string and returns it.
func (el element) text(key string) (string, bool) {
	var s string
	v, ok := el[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return "", false
	}
	if json.Unmarshal(v, &s) != nil {
		return "", false
	}
	return s, true
}

func (el element) num(key string, def float64) float64 {
	var n float64
	if v, ok := el[key]; ok && json.Unmarshal(v, &n) == nil {
		return n
	}
	return def
}

func (el element) page() int {
	p := el.num("page", DefaultPage)
	if p < 1 || p > math.MaxInt32 {
		return DefaultPage
	}
	return int(p)
}

func (el element) object(key string) element {
	v, ok := el[key]
	if !ok {
		return nil
	}
	var obj element
	if json.Unmarshal(v, &obj) != nil {
		return nil
	}
	return obj
}

func (el element) hasAny(keys ...string) bool {
	for _, k := range keys {
		if _, ok := el[k]; ok {
			return true
		}
	}
	return false
}
