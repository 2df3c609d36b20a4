package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/fieldmark/internal/config"
	"github.com/hpungsan/fieldmark/internal/document"
	"github.com/hpungsan/fieldmark/internal/errors"
	"github.com/hpungsan/fieldmark/internal/geom"
	"github.com/hpungsan/fieldmark/internal/mcp"
	"github.com/hpungsan/fieldmark/internal/ops"
	"github.com/hpungsan/fieldmark/internal/report"
	"github.com/hpungsan/fieldmark/internal/session"
	"github.com/hpungsan/fieldmark/internal/watch"
	"github.com/hpungsan/fieldmark/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "fieldmark",
		Usage:   "Mark variable fields on PDF pages",
		Version: Version,
		Commands: []*cli.Command{
			pagesCmd(cfg),
			exportCmd(cfg),
			importCmd(cfg),
			previewCmd(cfg),
			reportCmd(cfg),
			serveCmd(cfg),
			uiCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func pdfFlag(required bool) cli.Flag {
	return &cli.StringFlag{Name: "pdf", Aliases: []string{"p"}, Required: required, Usage: "PDF document to open"}
}

func fieldsFlag(required bool) cli.Flag {
	return &cli.StringFlag{Name: "fields", Aliases: []string{"f"}, Required: required, Usage: "Field file to import (.json)"}
}

func watchFlag() cli.Flag {
	return &cli.BoolFlag{Name: "watch", Usage: "Re-import the field file whenever it changes on disk"}
}

func blankPagesFlag() cli.Flag {
	return &cli.IntFlag{Name: "blank-pages", Value: 1, Usage: "Blank Letter pages to edit on when no --pdf is given (0: none)"}
}

// pageInfo is one row of the pages command output.
type pageInfo struct {
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// pagesCmd creates the pages command.
func pagesCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "pages",
		Usage:     "Print the page count and page sizes of a PDF",
		ArgsUsage: "<file.pdf>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return outputError(errors.NewInvalidRequest("a PDF path is required"))
			}
			data, err := ops.ReadFile(path, ops.ExtDocument, localConfig(cfg))
			if err != nil {
				return outputError(err)
			}
			doc, err := document.Open(data)
			if err != nil {
				return outputError(err)
			}
			dims, err := document.Dimensions(doc, cfg.ReferenceScale)
			if err != nil {
				return outputError(errors.NewLoadFailed(err))
			}

			pages := make([]pageInfo, 0, len(dims))
			for p := 1; p <= doc.NumPages(); p++ {
				pages = append(pages, pageInfo{Page: p, Width: dims[p].Width, Height: dims[p].Height})
			}
			return outputJSON(map[string]any{"path": path, "count": len(pages), "pages": pages})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Rewrite a field file with percentage and absolute coordinates",
		Flags: []cli.Flag{
			pdfFlag(false),
			fieldsFlag(true),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output path (default: ~/.fieldmark/exports/<document>-<timestamp>.json)"},
		},
		Action: func(c *cli.Context) error {
			sh, err := openSession(c.Context, cfg, c.String("pdf"), c.String("fields"), 0)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.ExportFields(sh, localConfig(cfg), ops.ExportInput{Path: c.String("out")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Normalise a field file and print it (reads stdin when --fields is omitted)",
		Flags: []cli.Flag{pdfFlag(false), fieldsFlag(false)},
		Action: func(c *cli.Context) error {
			fieldsPath := c.String("fields")
			sh, err := openSession(c.Context, cfg, c.String("pdf"), fieldsPath, 0)
			if err != nil {
				return outputError(err)
			}

			if fieldsPath == "" {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("--fields or piped stdin is required"))
				}
				data, err := readStdin(ops.MaxFileSize)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				err = sh.Do(func(s *session.Session) error {
					_, err := s.Import(data)
					return err
				})
				if err != nil {
					return outputError(err)
				}
			}

			var data []byte
			err = sh.Do(func(s *session.Session) error {
				var err error
				data, err = s.Export()
				return err
			})
			if err != nil {
				return outputError(err)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

// previewCmd creates the preview command.
func previewCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Render a page with its fields drawn on it to a PNG",
		Flags: []cli.Flag{
			pdfFlag(true),
			fieldsFlag(false),
			&cli.IntFlag{Name: "page", Value: 1, Usage: "Page to render (1-based)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "Output path (.png)"},
		},
		Action: func(c *cli.Context) error {
			if c.Int("page") < 1 {
				return outputError(errors.NewInvalidRequest("page must be at least 1"))
			}
			sh, err := openSession(c.Context, cfg, c.String("pdf"), c.String("fields"), 0)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.WritePreview(c.Context, sh, localConfig(cfg), ops.PreviewInput{
				Path: c.String("out"),
				Page: c.Int("page"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// reportCmd creates the report command.
func reportCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Print a Markdown table of the fields on each page",
		Flags: []cli.Flag{
			pdfFlag(false),
			fieldsFlag(true),
		},
		Action: func(c *cli.Context) error {
			sh, err := openSession(c.Context, cfg, c.String("pdf"), c.String("fields"), 0)
			if err != nil {
				return outputError(err)
			}
			var md string
			_ = sh.Do(func(s *session.Session) error {
				md = report.Markdown(s.View().Document, s.Fields(0), s.Dimensions())
				return nil
			})
			_, err = io.WriteString(os.Stdout, md)
			return err
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server on stdio",
		Flags: []cli.Flag{pdfFlag(false), fieldsFlag(false), watchFlag(), blankPagesFlag()},
		Action: func(c *cli.Context) error {
			return runMCP(c.Context, cfg, c.String("pdf"), c.String("fields"), c.Bool("watch"), c.Int("blank-pages"))
		},
	}
}

// uiCmd creates the ui command.
func uiCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Run the read-only web inspector",
		Flags: []cli.Flag{
			pdfFlag(false),
			fieldsFlag(false),
			watchFlag(),
			blankPagesFlag(),
			&cli.StringFlag{Name: "bind", Usage: "Interface to listen on (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on (default from config)"},
		},
		Action: func(c *cli.Context) error {
			sh, err := openSession(c.Context, cfg, c.String("pdf"), c.String("fields"), c.Int("blank-pages"))
			if err != nil {
				return outputError(err)
			}
			stop, err := startWatch(sh, cfg, c.String("fields"), c.Bool("watch"))
			if err != nil {
				return outputError(err)
			}
			defer stop()

			bind := c.String("bind")
			if bind == "" {
				bind = cfg.WebBind
			}
			port := c.Int("port")
			if port == 0 {
				port = cfg.WebPort
			}
			if err := web.Run(web.NewServer(sh, cfg, Version, bind, port)); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// runMCP serves MCP tools over stdio. Tool calls see cfg's path rules; the
// command-line paths are the local user's and skip the directory allowlist.
func runMCP(ctx context.Context, cfg *config.Config, pdfPath, fieldsPath string, watchFields bool, blankPages int) error {
	for _, name := range mcp.ValidateDisabledTools(cfg.DisabledTools) {
		log.Printf("warning: unknown tool in disabled_tools: %s", name)
	}
	sh, err := openSession(ctx, cfg, pdfPath, fieldsPath, blankPages)
	if err != nil {
		return outputError(err)
	}
	stop, err := startWatch(sh, cfg, fieldsPath, watchFields)
	if err != nil {
		return outputError(err)
	}
	defer stop()
	return mcp.Run(sh, cfg, Version)
}

// openSession builds a session from cfg and loads the optional document and
// field file into it. Without a PDF, blankPages > 0 loads that many blank
// Letter pages so pointer and page tools have a canvas.
func openSession(ctx context.Context, cfg *config.Config, pdfPath, fieldsPath string, blankPages int) (*session.Shared, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	sh := session.NewShared(session.New(session.OptionsFromConfig(cfg)))
	local := localConfig(cfg)
	switch {
	case pdfPath != "":
		if _, err := ops.OpenDocument(ctx, sh, local, ops.OpenInput{Path: pdfPath}); err != nil {
			return nil, err
		}
	case blankPages > 0:
		if err := sh.LoadDocument(ctx, blankName, blankDocument(blankPages)); err != nil {
			return nil, err
		}
	}
	if fieldsPath != "" {
		if _, err := ops.ImportFields(sh, local, ops.ImportInput{Path: fieldsPath}); err != nil {
			return nil, err
		}
	}
	return sh, nil
}

// blankName is the document name shown for a blank canvas.
const blankName = "blank"

// blankDocument returns n blank Letter pages.
func blankDocument(n int) *document.Blank {
	sizes := make([]geom.Size, n)
	for i := range sizes {
		sizes[i] = document.Letter
	}
	return document.NewBlank(sizes...)
}

// startWatch re-imports fieldsPath on change when enabled. The returned
// stop function is always safe to call.
func startWatch(sh *session.Shared, cfg *config.Config, fieldsPath string, enabled bool) (func(), error) {
	if !enabled {
		return func() {}, nil
	}
	if fieldsPath == "" {
		return nil, errors.NewInvalidRequest("--watch requires --fields")
	}
	w, err := watch.Fields(sh, localConfig(cfg), fieldsPath)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return func() { _ = w.Close() }, nil
}

// localConfig returns a copy of cfg for paths typed by the local user.
func localConfig(cfg *config.Config) *config.Config {
	local := *cfg
	local.AllowUnsafePaths = true
	return &local
}

// outputJSON writes JSON output to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if markErr, ok := err.(*errors.MarkError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", markErr.Code, markErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return []byte(strings.TrimSpace(string(data))), nil
}
