package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"

	"github.com/hpungsan/fieldmark/internal/errors"
	"github.com/hpungsan/fieldmark/internal/geom"
)

// PDF is a decoded PDF document. Page geometry is read once on Open and the
// underlying reader is closed again.
type PDF struct {
	pages []geom.Size
}

// Open decodes a PDF from memory. Decode failures are LOAD_FAILED errors.
func Open(data []byte) (*PDF, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, errors.NewLoadFailed(err)
	}
	defer r.Close()

	n, err := pagetree.NumPages(r)
	if err != nil {
		return nil, errors.NewLoadFailed(err)
	}
	if n < 1 {
		return nil, errors.NewLoadFailed(fmt.Errorf("document has no pages"))
	}

	doc := &PDF{pages: make([]geom.Size, 0, n)}
	for i := 0; i < n; i++ {
		_, dict, err := pagetree.GetPage(r, i)
		if err != nil {
			return nil, errors.NewLoadFailed(fmt.Errorf("page %d: %w", i+1, err))
		}
		size, err := pageSize(r, dict)
		if err != nil {
			return nil, errors.NewLoadFailed(fmt.Errorf("page %d: %w", i+1, err))
		}
		doc.pages = append(doc.pages, size)
	}
	return doc, nil
}

// pageSize returns the visible page size: the CropBox if present, else the
// MediaBox, with sides swapped for pages rotated a quarter turn.
func pageSize(r pdf.Getter, dict pdf.Dict) (geom.Size, error) {
	box, err := pdf.GetRectangle(r, dict["CropBox"])
	if err != nil || box == nil {
		box, err = pdf.GetRectangle(r, dict["MediaBox"])
		if err != nil {
			return geom.Size{}, err
		}
	}
	if box == nil {
		return geom.Size{}, fmt.Errorf("missing MediaBox")
	}
	size := geom.Size{Width: box.URx - box.LLx, Height: box.URy - box.LLy}
	if size.IsZero() {
		return geom.Size{}, fmt.Errorf("empty page box %s", box)
	}

	if dict["Rotate"] != nil {
		rot, err := pdf.GetNumber(r, dict["Rotate"])
		if err == nil {
			quarter := int(math.Round(float64(rot)/90)) % 4
			if quarter < 0 {
				quarter += 4
			}
			if quarter%2 == 1 {
				size.Width, size.Height = size.Height, size.Width
			}
		}
	}
	return size, nil
}

// NumPages implements Document.
func (d *PDF) NumPages() int {
	return len(d.pages)
}

// PageSize implements Document.
func (d *PDF) PageSize(page int) (geom.Size, error) {
	if page < 1 || page > len(d.pages) {
		return geom.Size{}, errors.NewInvalidRequest(fmt.Sprintf("page %d out of range 1-%d", page, len(d.pages)))
	}
	return d.pages[page-1], nil
}

// Render implements Document. Page content is not rasterised; the surface
// is a blank page of the right size for the overlay to draw on.
func (d *PDF) Render(ctx context.Context, page int, scale float64) (image.Image, error) {
	size, err := d.PageSize(page)
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
	w, h := int(math.Ceil(px.Width)), int(math.Ceil(px.Height))

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0.8, 0.8, 0.8)
	dc.SetLineWidth(1)
	dc.DrawRectangle(0.5, 0.5, float64(w)-1, float64(h)-1)
	dc.Stroke()

	if ctx.Err() != nil {
		return nil, ErrCanceled
	}
	return dc.Image(), nil
}
