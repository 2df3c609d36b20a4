package mcp

import "github.com/mark3labs/mcp-go/mcp"

func boolPtr(v bool) *bool { return &v }

var stringItems = map[string]any{"type": "string"}

var documentOpenToolDef = mcp.NewTool("document_open",
	mcp.WithDescription("Open a PDF and show its first page. Replaces the current document; fields and selection are cleared."),
	mcp.WithString("path", mcp.Description("Path to a .pdf file"), mcp.Required()),
	mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
)

var documentPageToolDef = mcp.NewTool("document_page",
	mcp.WithDescription("Switch the canvas to another page and render it. A render still running for the previous page is cancelled."),
	mcp.WithNumber("page", mcp.Description("1-based page number"), mcp.Required()),
)

var documentModeToolDef = mcp.NewTool("document_mode",
	mcp.WithDescription("Choose what a press on empty canvas does: draw a new field (draw_mode true) or start a lasso selection."),
	mcp.WithBoolean("draw_mode", mcp.Description("true: draw, false: lasso"), mcp.Required()),
)

var documentViewportToolDef = mcp.NewTool("document_viewport",
	mcp.WithDescription("Set the canvas size, in pixels, that pointer_event coordinates are measured against. Changing page resets it to the rendered page size."),
	mcp.WithNumber("width", mcp.Description("Canvas width in pixels"), mcp.Required()),
	mcp.WithNumber("height", mcp.Description("Canvas height in pixels"), mcp.Required()),
)

var pointerEventToolDef = mcp.NewTool("pointer_event",
	mcp.WithDescription("Feed one pointer event to the canvas. Coordinates are pixels from the canvas's top-left corner; see session_view for the viewport size."),
	mcp.WithString("kind", mcp.Description("down, move, up, leave or cancel"), mcp.Required()),
	mcp.WithNumber("x", mcp.Description("Pointer X in pixels")),
	mcp.WithNumber("y", mcp.Description("Pointer Y in pixels")),
	mcp.WithBoolean("additive", mcp.Description("Modifier held (Shift/Ctrl/Cmd): toggle instead of replace the selection")),
)

var keyEventToolDef = mcp.NewTool("key_event",
	mcp.WithDescription("Press a key: Delete or Backspace removes the selection, Escape cancels the current gesture and clears the selection."),
	mcp.WithString("key", mcp.Description("Delete, Backspace or Escape"), mcp.Required()),
)

var fieldAddToolDef = mcp.NewTool("field_add",
	mcp.WithDescription("Add a field. Coordinates are percentages of the page (0-100, origin top-left). Rectangles under the minimum size are ignored."),
	mcp.WithNumber("page", mcp.Description("1-based page (optional, defaults to the current page)")),
	mcp.WithNumber("x", mcp.Description("Left edge, percent"), mcp.Required()),
	mcp.WithNumber("y", mcp.Description("Top edge, percent"), mcp.Required()),
	mcp.WithNumber("width", mcp.Description("Width, percent"), mcp.Required()),
	mcp.WithNumber("height", mcp.Description("Height, percent"), mcp.Required()),
	mcp.WithString("variable_name", mcp.Description("Field name (optional, defaults to variable_<n>)")),
)

var fieldRenameToolDef = mcp.NewTool("field_rename",
	mcp.WithDescription("Rename a field. Leading and trailing whitespace is trimmed."),
	mcp.WithString("id", mcp.Description("Field ID"), mcp.Required()),
	mcp.WithString("variable_name", mcp.Description("New name"), mcp.Required()),
)

var fieldDeleteToolDef = mcp.NewTool("field_delete",
	mcp.WithDescription("Delete fields by id, or every selected field when ids is omitted."),
	mcp.WithArray("ids", mcp.Description("Field IDs (optional)"), mcp.Items(stringItems)),
	mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
)

var fieldMoveToolDef = mcp.NewTool("field_move",
	mcp.WithDescription("Move a field to a new position, in percent. The field is kept inside the page."),
	mcp.WithString("id", mcp.Description("Field ID"), mcp.Required()),
	mcp.WithNumber("x", mcp.Description("New left edge, percent"), mcp.Required()),
	mcp.WithNumber("y", mcp.Description("New top edge, percent"), mcp.Required()),
)

var fieldListToolDef = mcp.NewTool("field_list",
	mcp.WithDescription("List fields in collection order."),
	mcp.WithNumber("page", mcp.Description("1-based page (optional, 0 or omitted lists every page)")),
)

var selectionSetToolDef = mcp.NewTool("selection_set",
	mcp.WithDescription("Replace the selection. Fails without changes if any id is unknown."),
	mcp.WithArray("ids", mcp.Description("Field IDs to select"), mcp.Items(stringItems), mcp.Required()),
)

var selectionClearToolDef = mcp.NewTool("selection_clear",
	mcp.WithDescription("Clear the selection."),
)

var fieldsSyncYToolDef = mcp.NewTool("fields_sync_y",
	mcp.WithDescription("Align every selected field to the Y of the selected field that comes first in the collection."),
)

var fieldsExportToolDef = mcp.NewTool("fields_export",
	mcp.WithDescription("Write every field to a JSON file with both percentage and PDF point coordinates."),
	mcp.WithString("path", mcp.Description("Output .json path (optional, defaults to ~/.fieldmark/exports/<document>-<timestamp>.json)")),
)

var fieldsImportToolDef = mcp.NewTool("fields_import",
	mcp.WithDescription("Replace every field with the contents of a JSON file. A file that is not a JSON array changes nothing."),
	mcp.WithString("path", mcp.Description("Path to a .json file"), mcp.Required()),
	mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
)

var pagePreviewToolDef = mcp.NewTool("page_preview",
	mcp.WithDescription("Render a page with its fields as a PNG image."),
	mcp.WithNumber("page", mcp.Description("1-based page (optional, defaults to the current page)")),
)

var sessionViewToolDef = mcp.NewTool("session_view",
	mcp.WithDescription("Show the canvas: document, page, viewport, interaction phase, selection and the current page's fields."),
)
