package document

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/hpungsan/fieldmark/internal/errors"
	"github.com/hpungsan/fieldmark/internal/geom"
)

// Letter is a US Letter page in PDF points.
var Letter = geom.Size{Width: 612, Height: 792}

// Blank is a document of empty pages with fixed sizes. The serve and ui
// commands load one when no PDF is given.
type Blank struct {
	pages []geom.Size
}

// NewBlank returns a blank document with one page per size.
func NewBlank(sizes ...geom.Size) *Blank {
	pages := make([]geom.Size, len(sizes))
	copy(pages, sizes)
	return &Blank{pages: pages}
}

// NumPages implements Document.
func (b *Blank) NumPages() int { return len(b.pages) }

// PageSize implements Document.
func (b *Blank) PageSize(page int) (geom.Size, error) {
	if page < 1 || page > len(b.pages) {
		return geom.Size{}, errors.NewInvalidRequest(fmt.Sprintf("page %d out of range 1-%d", page, len(b.pages)))
	}
	return b.pages[page-1], nil
}

// Render implements Document.
func (b *Blank) Render(ctx context.Context, page int, scale float64) (image.Image, error) {
	size, err := b.PageSize(page)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ErrCanceled
	}
	if scale <= 0 {
		scale = 1
	}
	px := size.Scale(scale)
	dc := gg.NewContext(int(math.Ceil(px.Width)), int(math.Ceil(px.Height)))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	return dc.Image(), nil
}
