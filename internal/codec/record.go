// Package codec serialises the field collection to and from the JSON
// interchange file.
package codec

import (
	"github.com/hpungsan/fieldmark/internal/field"
	"github.com/hpungsan/fieldmark/internal/geom"
)

// Record is one element of an export when the field's page dimensions are
// known: both coordinate systems side by side.
type Record struct {
	ID                    string     `json:"id"`
	VariableName          string     `json:"variableName"`
	Page                  int        `json:"page"`
	PDFCoordinates        *geom.Rect `json:"pdfCoordinates,omitempty"`
	PercentageCoordinates *geom.Rect `json:"percentageCoordinates,omitempty"`
}

// FlatRecord is the fallback element written when a field's page dimensions
// are unknown: the percentage rectangle at top level.
type FlatRecord struct {
	ID           string  `json:"id"`
	VariableName string  `json:"variableName"`
	Page         int     `json:"page"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
}

// ToRecord converts a field to its export element. The result is a *Record
// when dims holds the field's page and a *FlatRecord otherwise.
func ToRecord(f field.Field, dims map[int]geom.Size) any {
	pct := geom.ToPercentage(f.Rect)
	size, ok := dims[f.Page]
	if !ok || size.IsZero() {
		return &FlatRecord{
			ID:           f.ID,
			VariableName: f.VariableName,
			Page:         f.Page,
			X:            pct.X,
			Y:            pct.Y,
			Width:        pct.Width,
			Height:       pct.Height,
		}
	}
	abs := geom.ToAbsolute(f.Rect, size).Round2()
	return &Record{
		ID:                    f.ID,
		VariableName:          f.VariableName,
		Page:                  f.Page,
		PDFCoordinates:        &abs,
		PercentageCoordinates: &pct,
	}
}
