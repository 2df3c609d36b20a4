package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/fieldmark/internal/config"
	"github.com/hpungsan/fieldmark/internal/session"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"document_open": {
		def:     documentOpenToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDocumentOpen },
	},
	"document_page": {
		def:     documentPageToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDocumentPage },
	},
	"document_mode": {
		def:     documentModeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDocumentMode },
	},
	"document_viewport": {
		def:     documentViewportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDocumentViewport },
	},
	"pointer_event": {
		def:     pointerEventToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePointerEvent },
	},
	"key_event": {
		def:     keyEventToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleKeyEvent },
	},
	"field_add": {
		def:     fieldAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFieldAdd },
	},
	"field_rename": {
		def:     fieldRenameToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFieldRename },
	},
	"field_delete": {
		def:     fieldDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFieldDelete },
	},
	"field_move": {
		def:     fieldMoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFieldMove },
	},
	"field_list": {
		def:     fieldListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFieldList },
	},
	"selection_set": {
		def:     selectionSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectionSet },
	},
	"selection_clear": {
		def:     selectionClearToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectionClear },
	},
	"fields_sync_y": {
		def:     fieldsSyncYToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFieldsSyncY },
	},
	"fields_export": {
		def:     fieldsExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFieldsExport },
	},
	"fields_import": {
		def:     fieldsImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFieldsImport },
	},
	"page_preview": {
		def:     pagePreviewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePagePreview },
	},
	"session_view": {
		def:     sessionViewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionView },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates an MCP server whose tools all drive sh.
// Tools listed in cfg.DisabledTools are not registered.
func NewServer(sh *session.Shared, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"fieldmark",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(sh, cfg)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run starts the MCP server using stdio transport.
func Run(sh *session.Shared, cfg *config.Config, version string) error {
	s := NewServer(sh, cfg, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
