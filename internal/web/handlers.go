package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/hpungsan/fieldmark/internal/config"
	"github.com/hpungsan/fieldmark/internal/errors"
	"github.com/hpungsan/fieldmark/internal/field"
	"github.com/hpungsan/fieldmark/internal/geom"
	"github.com/hpungsan/fieldmark/internal/ops"
	"github.com/hpungsan/fieldmark/internal/report"
	"github.com/hpungsan/fieldmark/internal/session"
)

// Handlers contains HTTP route handlers for the inspector.
type Handlers struct {
	sh       *session.Shared
	cfg      *config.Config
	renderer *Renderer
}

// pageData snapshots the nav shared by every page.
func (h *Handlers) pageData(s *session.Session, title string, current int) PageData {
	view := s.View()
	pages := make([]int, view.NumPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return PageData{
		Title:    title,
		Version:  h.renderer.version,
		Document: view.Document,
		Pages:    pages,
		Current:  current,
	}
}

// HandleReport handles GET /: the Markdown field report for every page.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	var data ReportPageData
	_ = h.sh.Do(func(s *session.Session) error {
		data.PageData = h.pageData(s, "Fields", 0)
		md := report.Markdown(data.Document, s.Fields(0), s.Dimensions())
		data.Report = h.renderer.renderMarkdown(md)
		return nil
	})
	h.renderer.renderPage(w, "report", data)
}

// HandlePage handles GET /pages/{page}: one page's preview and fields.
func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	var data PageViewData
	err = h.sh.Do(func(s *session.Session) error {
		if !s.HasDocument() {
			return errors.NewNoDocument()
		}
		if page > s.NumPages() {
			return errors.NewInvalidRequest(fmt.Sprintf("page %d out of range 1-%d", page, s.NumPages()))
		}
		data.PageData = h.pageData(s, "Page "+strconv.Itoa(page), page)
		data.Page = page
		if page > 1 {
			data.Previous = page - 1
		}
		if page < s.NumPages() {
			data.Next = page + 1
		}

		dims := s.Dimensions()
		size, known := dims[page]
		if known {
			data.Size = &size
		}
		selected := make(map[string]bool)
		for _, id := range s.Selected() {
			selected[id] = true
		}
		for _, f := range s.Fields(page) {
			data.Fields = append(data.Fields, fieldRow(f, selected[f.ID], size, known))
		}
		return nil
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderer.renderPage(w, "page", data)
}

// HandlePreview handles GET /pages/{page}/preview.png.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data, err := ops.EncodePreview(r.Context(), h.sh, page)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleFields handles GET /fields: fields as JSON, optionally one page.
func (h *Handlers) HandleFields(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 0)
	if page < 0 {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("page must be >= 0"))
		return
	}

	var fields []field.Field
	_ = h.sh.Do(func(s *session.Session) error {
		fields = s.Fields(page)
		return nil
	})
	if fields == nil {
		fields = []field.Field{}
	}
	renderJSON(w, http.StatusOK, map[string]any{"fields": fields, "count": len(fields)})
}

// HandleExport handles GET /export.json: the interchange file as it would
// be written to disk.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	var data []byte
	err := h.sh.Do(func(s *session.Session) error {
		var err error
		data, err = s.Export()
		return err
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if parseBoolParam(r, "download") {
		w.Header().Set("Content-Disposition", `attachment; filename="fields.json"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleSession handles GET /session: the canvas view as JSON.
func (h *Handlers) HandleSession(w http.ResponseWriter, r *http.Request) {
	var view session.View
	_ = h.sh.Do(func(s *session.Session) error {
		view = s.View()
		return nil
	})
	renderJSON(w, http.StatusOK, view)
}

func fieldRow(f field.Field, selected bool, size geom.Size, known bool) FieldRow {
	row := FieldRow{Field: f, Selected: selected}
	if known && !size.IsZero() {
		abs := geom.ToAbsolute(f.Rect, size).Round2()
		row.Absolute = &abs
	}
	return row
}

// parsePage reads the {page} path value as a 1-based page number.
func parsePage(r *http.Request) (int, error) {
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || page < 1 {
		return 0, errors.NewInvalidRequest("page must be a positive integer")
	}
	return page, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
