package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/fieldmark/internal/config"
	"github.com/hpungsan/fieldmark/internal/errors"
	"github.com/hpungsan/fieldmark/internal/field"
	"github.com/hpungsan/fieldmark/internal/geom"
	"github.com/hpungsan/fieldmark/internal/ops"
	"github.com/hpungsan/fieldmark/internal/session"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	sh  *session.Shared
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sh *session.Shared, cfg *config.Config) *Handlers {
	return &Handlers{sh: sh, cfg: cfg}
}

// Request types for each tool

// PathRequest represents the arguments for document_open, fields_export and
// fields_import.
type PathRequest struct {
	Path string `json:"path"`
}

// PageRequest represents the arguments for document_page, field_list and
// page_preview.
type PageRequest struct {
	Page int `json:"page,omitempty"`
}

// ModeRequest represents the arguments for document_mode.
type ModeRequest struct {
	DrawMode *bool `json:"draw_mode"`
}

// ViewportRequest represents the arguments for document_viewport.
type ViewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// KeyRequest represents the arguments for key_event.
type KeyRequest struct {
	Key string `json:"key"`
}

// FieldAddRequest represents the arguments for field_add.
type FieldAddRequest struct {
	Page         int     `json:"page,omitempty"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	VariableName string  `json:"variable_name,omitempty"`
}

// FieldRenameRequest represents the arguments for field_rename.
type FieldRenameRequest struct {
	ID           string `json:"id"`
	VariableName string `json:"variable_name"`
}

// FieldMoveRequest represents the arguments for field_move.
type FieldMoveRequest struct {
	ID string   `json:"id"`
	X  *float64 `json:"x"`
	Y  *float64 `json:"y"`
}

// IDsRequest represents the arguments for field_delete and selection_set.
type IDsRequest struct {
	IDs []string `json:"ids,omitempty"`
}

// Response types

// FieldAddResponse is returned by field_add.
type FieldAddResponse struct {
	Added bool         `json:"added"`
	Field *field.Field `json:"field,omitempty"`
}

// FieldListResponse is returned by field_list.
type FieldListResponse struct {
	Fields []field.Field `json:"fields"`
	Count  int           `json:"count"`
}

// DeleteResponse is returned by field_delete.
type DeleteResponse struct {
	Deleted []string `json:"deleted"`
}

// Handler implementations

// HandleDocumentOpen handles the document_open tool call.
func (h *Handlers) HandleDocumentOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.OpenDocument(ctx, h.sh, h.cfg, ops.OpenInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDocumentPage handles the document_page tool call.
func (h *Handlers) HandleDocumentPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PageRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	if _, err := h.sh.GoToPage(ctx, input.Page); err != nil {
		return errorResult(err), nil
	}
	return h.view()
}

// HandleDocumentMode handles the document_mode tool call.
func (h *Handlers) HandleDocumentMode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ModeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.DrawMode == nil {
		return errorResult(errors.NewInvalidRequest("draw_mode is required")), nil
	}

	_ = h.sh.Do(func(s *session.Session) error {
		s.SetDrawMode(*input.DrawMode)
		return nil
	})
	return h.view()
}

// HandleDocumentViewport handles the document_viewport tool call.
func (h *Handlers) HandleDocumentViewport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ViewportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	err = h.sh.Do(func(s *session.Session) error {
		return s.SetViewport(geom.Size{Width: input.Width, Height: input.Height})
	})
	if err != nil {
		return errorResult(err), nil
	}
	return h.view()
}

// HandlePointerEvent handles the pointer_event tool call.
func (h *Handlers) HandlePointerEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ops.PointerInput](req)
	if err != nil {
		return errorResult(err), nil
	}

	view, err := ops.Pointer(h.sh, input)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(view)
}

// HandleKeyEvent handles the key_event tool call.
func (h *Handlers) HandleKeyEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[KeyRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	var (
		handled bool
		view    session.View
	)
	_ = h.sh.Do(func(s *session.Session) error {
		handled = s.Key(input.Key)
		view = s.View()
		return nil
	})
	return successResult(map[string]any{"handled": handled, "view": view})
}

// HandleFieldAdd handles the field_add tool call.
func (h *Handlers) HandleFieldAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FieldAddRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	var resp FieldAddResponse
	err = h.sh.Do(func(s *session.Session) error {
		page := input.Page
		if page == 0 {
			page = s.Page()
		}
		r := geom.Rect{X: input.X, Y: input.Y, Width: input.Width, Height: input.Height}
		f, added, err := s.AddField(page, r, input.VariableName)
		if err != nil {
			return err
		}
		resp.Added = added
		if added {
			resp.Field = &f
		}
		return nil
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(resp)
}

// HandleFieldRename handles the field_rename tool call.
func (h *Handlers) HandleFieldRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FieldRenameRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	var f field.Field
	err = h.sh.Do(func(s *session.Session) error {
		if err := s.Rename(input.ID, field.CleanName(input.VariableName)); err != nil {
			return err
		}
		f, err = s.Field(input.ID)
		return err
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(f)
}

// HandleFieldDelete handles the field_delete tool call.
func (h *Handlers) HandleFieldDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	var deleted []string
	_ = h.sh.Do(func(s *session.Session) error {
		if len(input.IDs) == 0 {
			deleted = s.DeleteSelected()
		} else {
			deleted = s.DeleteFields(input.IDs...)
		}
		return nil
	})
	if deleted == nil {
		deleted = []string{}
	}
	return successResult(DeleteResponse{Deleted: deleted})
}

// HandleFieldMove handles the field_move tool call.
func (h *Handlers) HandleFieldMove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FieldMoveRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.ID == "" || input.X == nil || input.Y == nil {
		return errorResult(errors.NewInvalidRequest("id, x and y are required")), nil
	}

	var f field.Field
	err = h.sh.Do(func(s *session.Session) error {
		var err error
		f, err = s.MoveField(input.ID, *input.X, *input.Y)
		return err
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(f)
}

// HandleFieldList handles the field_list tool call.
func (h *Handlers) HandleFieldList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PageRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.Page < 0 {
		return errorResult(errors.NewInvalidRequest("page must be >= 0")), nil
	}

	var fields []field.Field
	_ = h.sh.Do(func(s *session.Session) error {
		fields = s.Fields(input.Page)
		return nil
	})
	if fields == nil {
		fields = []field.Field{}
	}
	return successResult(FieldListResponse{Fields: fields, Count: len(fields)})
}

// HandleSelectionSet handles the selection_set tool call.
func (h *Handlers) HandleSelectionSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	if err := h.sh.Do(func(s *session.Session) error { return s.Select(input.IDs) }); err != nil {
		return errorResult(err), nil
	}
	return h.view()
}

// HandleSelectionClear handles the selection_clear tool call.
func (h *Handlers) HandleSelectionClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_ = h.sh.Do(func(s *session.Session) error {
		s.ClearSelection()
		return nil
	})
	return h.view()
}

// HandleFieldsSyncY handles the fields_sync_y tool call.
func (h *Handlers) HandleFieldsSyncY(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var updated int
	_ = h.sh.Do(func(s *session.Session) error {
		updated = s.SyncYSelected()
		return nil
	})
	return successResult(map[string]int{"updated": updated})
}

// HandleFieldsExport handles the fields_export tool call.
func (h *Handlers) HandleFieldsExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ExportFields(h.sh, h.cfg, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFieldsImport handles the fields_import tool call.
func (h *Handlers) HandleFieldsImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ImportFields(h.sh, h.cfg, ops.ImportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePagePreview handles the page_preview tool call.
func (h *Handlers) HandlePagePreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PageRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	data, err := ops.EncodePreview(ctx, h.sh, input.Page)
	if err != nil {
		return errorResult(err), nil
	}
	label := "current page"
	if input.Page > 0 {
		label = fmt.Sprintf("page %d", input.Page)
	}
	return mcp.NewToolResultImage("Preview of "+label, base64.StdEncoding.EncodeToString(data), "image/png"), nil
}

// HandleSessionView handles the session_view tool call.
func (h *Handlers) HandleSessionView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.view()
}

func (h *Handlers) view() (*mcp.CallToolResult, error) {
	var view session.View
	_ = h.sh.Do(func(s *session.Session) error {
		view = s.View()
		return nil
	})
	return successResult(view)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// INTERNAL errors never carry details.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var markErr *errors.MarkError
	if stderrors.As(err, &markErr) {
		errorObj := map[string]any{
			"code":    markErr.Code,
			"message": err.Error(),
			"status":  markErr.Status,
		}
		if err == error(markErr) {
			errorObj["message"] = markErr.Message
		}
		if markErr.Code != errors.ErrInternal && markErr.Details != nil {
			errorObj["details"] = markErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
