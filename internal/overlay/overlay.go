// Package overlay draws fields and the interaction decorations (selection,
// snap guide, lasso, draw preview) on top of a rendered page surface.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/hpungsan/fieldmark/internal/field"
	"github.com/hpungsan/fieldmark/internal/geom"
)

// Layer is everything drawn over one page surface. Rectangles and the guide
// are in percentage space.
type Layer struct {
	Fields   []field.Field
	Selected []string
	Preview  *geom.Rect
	Lasso    *geom.Rect
	Guide    *float64
}

var (
	fieldFill    = color.NRGBA{R: 0x25, G: 0x63, B: 0xeb, A: 0x33}
	fieldStroke  = color.NRGBA{R: 0x25, G: 0x63, B: 0xeb, A: 0xff}
	selectedFill = color.NRGBA{R: 0xf5, G: 0x9e, B: 0x0b, A: 0x44}
	selectedLine = color.NRGBA{R: 0xd9, G: 0x77, B: 0x06, A: 0xff}
	guideColor   = color.NRGBA{R: 0xdc, G: 0x26, B: 0x26, A: 0xff}
	lassoColor   = color.NRGBA{R: 0x4b, G: 0x55, B: 0x63, A: 0xff}
	previewColor = color.NRGBA{R: 0x16, G: 0xa3, B: 0x4a, A: 0xff}
	labelColor   = color.NRGBA{A: 0xff}
)

const fontSize = 11.0

var (
	fontOnce sync.Once
	fontTTF  *truetype.Font
	fontErr  error
)

func labelFace() (font.Face, error) {
	fontOnce.Do(func() {
		fontTTF, fontErr = truetype.Parse(gomono.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse font: %v", fontErr)
	}
	return truetype.NewFace(fontTTF, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// Draw returns a copy of surface with layer drawn over it.
func Draw(surface image.Image, layer Layer) (image.Image, error) {
	dc, err := draw(surface, layer)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG draws layer over surface and encodes the result as PNG.
func WritePNG(w io.Writer, surface image.Image, layer Layer) error {
	dc, err := draw(surface, layer)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func draw(surface image.Image, layer Layer) (*gg.Context, error) {
	if surface == nil {
		return nil, fmt.Errorf("no page surface")
	}
	dc := gg.NewContextForImage(surface)
	viewport := geom.Size{Width: float64(dc.Width()), Height: float64(dc.Height())}

	face, err := labelFace()
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)

	selected := make(map[string]bool, len(layer.Selected))
	for _, id := range layer.Selected {
		selected[id] = true
	}

	// Store order: later fields are drawn on top.
	for _, f := range layer.Fields {
		drawField(dc, f, geom.PercentToPixel(f.Rect, viewport), selected[f.ID])
	}

	if layer.Guide != nil {
		y := *layer.Guide / geom.FullExtent * viewport.Height
		dc.SetDash(6, 4)
		dc.SetLineWidth(1)
		dc.SetColor(guideColor)
		dc.DrawLine(0, y, viewport.Width, y)
		dc.Stroke()
		dc.SetDash()
	}
	if layer.Lasso != nil {
		dashedRect(dc, geom.PercentToPixel(*layer.Lasso, viewport), lassoColor)
	}
	if layer.Preview != nil {
		dashedRect(dc, geom.PercentToPixel(*layer.Preview, viewport), previewColor)
	}
	return dc, nil
}

func drawField(dc *gg.Context, f field.Field, px geom.Rect, isSelected bool) {
	fill, line, width := fieldFill, fieldStroke, 1.0
	if isSelected {
		fill, line, width = selectedFill, selectedLine, 2.0
	}

	dc.DrawRectangle(px.X, px.Y, px.Width, px.Height)
	dc.SetColor(fill)
	dc.FillPreserve()
	dc.SetColor(line)
	dc.SetLineWidth(width)
	dc.Stroke()

	if f.VariableName == "" {
		return
	}
	dc.SetColor(labelColor)
	dc.DrawStringAnchored(f.VariableName, px.X+3, px.Y+3, 0, 1)
}

func dashedRect(dc *gg.Context, px geom.Rect, c color.Color) {
	dc.SetDash(4, 3)
	dc.SetLineWidth(1)
	dc.SetColor(c)
	dc.DrawRectangle(px.X, px.Y, px.Width, px.Height)
	dc.Stroke()
	dc.SetDash()
}
