// Package document reads page geometry from source documents and renders
// page surfaces for the overlay.
package document

import (
	"context"
	"errors"
	"image"

	"github.com/hpungsan/fieldmark/internal/geom"
)

// ErrCanceled is returned by Render when its context is canceled before the
// surface is ready. Callers treat it as a normal outcome, not a failure.
var ErrCanceled = errors.New("render canceled")

// Document is a loaded, decoded source document.
type Document interface {
	// NumPages returns the page count.
	NumPages() int

	// PageSize returns the size of a 1-based page in page units at scale 1.
	PageSize(page int) (geom.Size, error)

	// Render draws a page at the given scale. It returns ErrCanceled if ctx
	// is done first.
	Render(ctx context.Context, page int, scale float64) (image.Image, error)
}

// Dimensions returns the size of every page scaled by scale, keyed by
// 1-based page number.
func Dimensions(doc Document, scale float64) (map[int]geom.Size, error) {
	if scale <= 0 {
		scale = 1
	}
	dims := make(map[int]geom.Size, doc.NumPages())
	for p := 1; p <= doc.NumPages(); p++ {
		size, err := doc.PageSize(p)
		if err != nil {
			return nil, err
		}
		dims[p] = size.Scale(scale)
	}
	return dims, nil
}
