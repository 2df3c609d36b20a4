// Package ops connects a shared editing session to the filesystem: opening
// documents, importing and exporting field files, and writing previews.
// Files are read and written outside the session lock; only the final state
// change runs under it.
package ops

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/fieldmark/internal/config"
	"github.com/hpungsan/fieldmark/internal/document"
	"github.com/hpungsan/fieldmark/internal/errors"
	"github.com/hpungsan/fieldmark/internal/geom"
	"github.com/hpungsan/fieldmark/internal/interact"
	"github.com/hpungsan/fieldmark/internal/overlay"
	"github.com/hpungsan/fieldmark/internal/session"
)

// OpenInput contains parameters for OpenDocument.
type OpenInput struct {
	Path string // required, .pdf
}

// OpenOutput contains the result of OpenDocument.
type OpenOutput struct {
	Path  string `json:"path"`
	Pages int    `json:"pages"`
}

// OpenDocument decodes a PDF and makes it the session's document. A decode
// failure leaves the session untouched.
func OpenDocument(ctx context.Context, sh *session.Shared, cfg *config.Config, input OpenInput) (*OpenOutput, error) {
	data, err := ReadFile(input.Path, ExtDocument, cfg)
	if err != nil {
		return nil, err
	}
	doc, err := document.Open(data)
	if err != nil {
		return nil, err
	}
	if err := sh.LoadDocument(ctx, filepath.Base(input.Path), doc); err != nil {
		return nil, err
	}
	return &OpenOutput{Path: input.Path, Pages: doc.NumPages()}, nil
}

// ImportInput contains parameters for ImportFields.
type ImportInput struct {
	Path string // required, .json
}

// ImportOutput contains the result of ImportFields.
type ImportOutput struct {
	Path     string `json:"path"`
	Imported int    `json:"imported"`
}

// ImportFields reads a field file and replaces the session's fields with it.
// The file is read first; a malformed file changes nothing.
func ImportFields(sh *session.Shared, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	data, err := ReadFile(input.Path, ExtFields, cfg)
	if err != nil {
		return nil, err
	}
	var n int
	err = sh.Do(func(s *session.Session) error {
		var err error
		n, err = s.Import(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Path: input.Path, Imported: n}, nil
}

// ExportInput contains parameters for ExportFields.
type ExportInput struct {
	Path string // optional, default: ~/.fieldmark/exports/<document>-<timestamp>.json
}

// ExportOutput contains the result of ExportFields.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportFields writes the session's fields to a JSON file.
func ExportFields(sh *session.Shared, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	var (
		data    []byte
		count   int
		docName string
	)
	err := sh.Do(func(s *session.Session) error {
		var err error
		data, err = s.Export()
		count = len(s.Fields(0))
		docName = s.View().Document
		return err
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	path := input.Path
	if path == "" {
		path, err = DefaultExportPath(docName, now)
		if err != nil {
			return nil, err
		}
	}
	if err := WriteFile(path, ExtFields, data, cfg); err != nil {
		return nil, err
	}
	return &ExportOutput{Path: path, Count: count, ExportedAt: now.Unix()}, nil
}

// DefaultExportPath returns ~/.fieldmark/exports/<document>-<timestamp>.json.
func DefaultExportPath(docName string, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(docName, filepath.Ext(docName))
	name := fmt.Sprintf("%s-%s%s", SanitizeForFilename(base), now.Format("2006-01-02T150405"), ExtFields)
	return filepath.Join(dir, name), nil
}

// RenderPreview draws a page with its fields. For the current page the live
// interaction decorations are included and the cached surface is reused.
// Page 0 means the current page.
func RenderPreview(ctx context.Context, sh *session.Shared, page int) (image.Image, error) {
	var (
		doc     document.Document
		scale   float64
		surface image.Image
		layer   overlay.Layer
	)
	err := sh.Do(func(s *session.Session) error {
		if !s.HasDocument() {
			return errors.NewNoDocument()
		}
		if page == 0 {
			page = s.Page()
		}
		if page < 1 || page > s.NumPages() {
			return errors.NewInvalidRequest(fmt.Sprintf("page %d out of range 1-%d", page, s.NumPages()))
		}
		doc, scale = s.Document(), s.RenderScale()
		layer = overlay.Layer{Fields: s.Fields(page), Selected: s.Selected()}
		if page == s.Page() {
			surface = s.Surface()
			view := s.View()
			layer.Preview, layer.Lasso, layer.Guide = view.Preview, view.Lasso, view.Guide
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if surface == nil {
		surface, err = doc.Render(ctx, page, scale)
		if err != nil {
			if err == document.ErrCanceled {
				return nil, errors.NewInvalidRequest("preview canceled")
			}
			return nil, errors.NewInternal(err)
		}
	}
	img, err := overlay.Draw(surface, layer)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return img, nil
}

// EncodePreview renders a page preview as PNG bytes.
func EncodePreview(ctx context.Context, sh *session.Shared, page int) ([]byte, error) {
	img, err := RenderPreview(ctx, sh, page)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := overlay.WritePNG(&buf, img, overlay.Layer{}); err != nil {
		return nil, errors.NewInternal(err)
	}
	return buf.Bytes(), nil
}

// PreviewInput contains parameters for WritePreview.
type PreviewInput struct {
	Path string // required, .png
	Page int    // 0: current page
}

// PreviewOutput contains the result of WritePreview.
type PreviewOutput struct {
	Path string `json:"path"`
	Page int    `json:"page"`
}

// WritePreview renders a page preview into a PNG file.
func WritePreview(ctx context.Context, sh *session.Shared, cfg *config.Config, input PreviewInput) (*PreviewOutput, error) {
	img, err := RenderPreview(ctx, sh, input.Page)
	if err != nil {
		return nil, err
	}
	err = WriteFileFunc(input.Path, ExtPreview, cfg, func(w io.Writer) error {
		return overlay.WritePNG(w, img, overlay.Layer{})
	})
	if err != nil {
		return nil, err
	}
	page := input.Page
	if page == 0 {
		_ = sh.Do(func(s *session.Session) error { page = s.Page(); return nil })
	}
	return &PreviewOutput{Path: input.Path, Page: page}, nil
}

// PointerInput is a pointer event as surfaces receive it.
type PointerInput struct {
	Kind     string  `json:"kind"` // down, move, up, leave, cancel
	X        float64 `json:"x"`    // pixels from the canvas's left edge
	Y        float64 `json:"y"`    // pixels from the canvas's top edge
	Additive bool    `json:"additive"`
}

// Pointer feeds one pointer event to the session and returns the new view.
func Pointer(sh *session.Shared, input PointerInput) (*session.View, error) {
	kind, ok := interact.ParseEventKind(input.Kind)
	if !ok {
		return nil, errors.NewInvalidRequest("kind must be one of: down, move, up, leave, cancel")
	}
	var view session.View
	err := sh.Do(func(s *session.Session) error {
		if s.Viewport().IsZero() {
			return errors.NewNoDocument()
		}
		s.Dispatch(interact.Event{Kind: kind, Pos: geom.Point{X: input.X, Y: input.Y}, Additive: input.Additive})
		view = s.View()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}
