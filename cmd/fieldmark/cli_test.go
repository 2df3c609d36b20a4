package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/fieldmark/internal/codec"
	"github.com/hpungsan/fieldmark/internal/config"
	"github.com/hpungsan/fieldmark/internal/ops"
	"github.com/hpungsan/fieldmark/internal/session"
)

// testConfig returns a default config for testing.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.RenderScale = 1
	return cfg
}

// testPDF builds a minimal PDF with one page per size.
func testPDF(sizes ...[2]int) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	kids := make([]string, len(sizes))
	for i := range sizes {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	buf.WriteString("%PDF-1.7\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(sizes)))
	for _, s := range sizes {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] >>", s[0], s[1]))
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// writeFile writes data into dir and returns the path.
func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// runCLI runs app with args and returns what it wrote to stdout.
func runCLI(t *testing.T, app *cli.App, args ...string) (string, error) {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	runErr := app.Run(append([]string{"fieldmark"}, args...))

	w.Close()
	os.Stdout = oldStdout
	return string(<-done), runErr
}

const totalField = `[{"id":"f1","variableName":"total","page":1,"x":10,"y":10,"width":20,"height":5}]`

func TestCLIPages(t *testing.T) {
	dir := t.TempDir()
	pdfPath := writeFile(t, dir, "form.pdf", testPDF([2]int{612, 792}, [2]int{200, 100}))

	out, err := runCLI(t, newCLIApp(testConfig()), "pages", pdfPath)
	if err != nil {
		t.Fatalf("pages command failed: %v", err)
	}

	var output struct {
		Count int        `json:"count"`
		Pages []pageInfo `json:"pages"`
	}
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.Count != 2 {
		t.Fatalf("expected count=2, got %d", output.Count)
	}
	want := []pageInfo{{Page: 1, Width: 612, Height: 792}, {Page: 2, Width: 200, Height: 100}}
	for i, p := range output.Pages {
		if p != want[i] {
			t.Errorf("page[%d] = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestCLIExport(t *testing.T) {
	dir := t.TempDir()
	pdfPath := writeFile(t, dir, "form.pdf", testPDF([2]int{612, 792}))
	fieldsPath := writeFile(t, dir, "fields.json", []byte(totalField))
	outPath := filepath.Join(dir, "out.json")

	out, err := runCLI(t, newCLIApp(testConfig()),
		"export", "--pdf", pdfPath, "--fields", fieldsPath, "--out", outPath)
	if err != nil {
		t.Fatalf("export command failed: %v", err)
	}

	var output ops.ExportOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.Count != 1 || output.Path != outPath {
		t.Errorf("unexpected output: %+v", output)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	var records []codec.Record
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("failed to parse export: %v", err)
	}
	if len(records) != 1 || records[0].PDFCoordinates == nil {
		t.Fatalf("expected one record with pdfCoordinates, got %s", data)
	}
	abs := records[0].PDFCoordinates
	if math.Abs(abs.X-61.2) > 0.001 || math.Abs(abs.Y-673.2) > 0.001 {
		t.Errorf("pdfCoordinates = %+v, want x=61.2 y=673.2", *abs)
	}
	if records[0].VariableName != "total" {
		t.Errorf("expected variableName=total, got %q", records[0].VariableName)
	}
}

func TestCLIImport(t *testing.T) {
	dir := t.TempDir()
	fieldsPath := writeFile(t, dir, "fields.json", []byte(`[{"variableName":"  total  ","x":-5,"y":10}]`))

	out, err := runCLI(t, newCLIApp(testConfig()), "import", "--fields", fieldsPath)
	if err != nil {
		t.Fatalf("import command failed: %v", err)
	}

	var records []codec.FlatRecord
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.VariableName != "total" {
		t.Errorf("expected variableName=total, got %q", r.VariableName)
	}
	if r.X != 0 || r.Width != codec.DefaultWidth || r.Height != codec.DefaultHeight {
		t.Errorf("expected sanitized rect, got %+v", r)
	}
	if r.ID == "" {
		t.Error("expected generated id")
	}
}

func TestCLIImportStdin(t *testing.T) {
	oldStdin := os.Stdin
	stdinR, stdinW, _ := os.Pipe()
	os.Stdin = stdinR
	defer func() { os.Stdin = oldStdin }()

	go func() {
		_, _ = stdinW.WriteString(totalField)
		stdinW.Close()
	}()

	out, err := runCLI(t, newCLIApp(testConfig()), "import")
	if err != nil {
		t.Fatalf("import command failed: %v", err)
	}
	if !strings.Contains(out, `"variableName": "total"`) {
		t.Errorf("expected total field in output, got %s", out)
	}
}

func TestCLIPreview(t *testing.T) {
	dir := t.TempDir()
	pdfPath := writeFile(t, dir, "form.pdf", testPDF([2]int{100, 80}, [2]int{300, 200}))
	fieldsPath := writeFile(t, dir, "fields.json", []byte(totalField))
	outPath := filepath.Join(dir, "page2.png")

	out, err := runCLI(t, newCLIApp(testConfig()),
		"preview", "--pdf", pdfPath, "--fields", fieldsPath, "--page", "2", "--out", outPath)
	if err != nil {
		t.Fatalf("preview command failed: %v", err)
	}
	var output ops.PreviewOutput
	if err := json.Unmarshal([]byte(out), &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.Page != 2 {
		t.Errorf("expected page=2, got %d", output.Page)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open preview: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("preview is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 200 {
		t.Errorf("preview size = %dx%d, want 300x200", b.Dx(), b.Dy())
	}
}

func TestCLIReport(t *testing.T) {
	dir := t.TempDir()
	pdfPath := writeFile(t, dir, "form.pdf", testPDF([2]int{612, 792}))
	fieldsPath := writeFile(t, dir, "fields.json", []byte(totalField))

	out, err := runCLI(t, newCLIApp(testConfig()), "report", "--pdf", pdfPath, "--fields", fieldsPath)
	if err != nil {
		t.Fatalf("report command failed: %v", err)
	}
	if !strings.Contains(out, "# form.pdf") {
		t.Errorf("expected document title heading, got:\n%s", out)
	}
	if !strings.Contains(out, "| total |") {
		t.Errorf("expected total row, got:\n%s", out)
	}
}

// TestCLIErrorHandling tests error handling in CLI commands.
func TestCLIErrorHandling(t *testing.T) {
	dir := t.TempDir()
	garbage := writeFile(t, dir, "broken.pdf", []byte("not a pdf"))
	notArray := writeFile(t, dir, "object.json", []byte(`{"x":1}`))
	app := newCLIApp(testConfig())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"pages without path", []string{"pages"}, "[INVALID_REQUEST]"},
		{"pages missing file", []string{"pages", filepath.Join(dir, "missing.pdf")}, "[FILE_NOT_FOUND]"},
		{"pages garbage", []string{"pages", garbage}, "[LOAD_FAILED]"},
		{"import not an array", []string{"import", "--fields", notArray}, "[MALFORMED_INPUT]"},
		{"preview bad page", []string{"preview", "--pdf", garbage, "--page", "0", "--out", filepath.Join(dir, "x.png")}, "[INVALID_REQUEST]"},
		{"serve watch without fields", []string{"serve", "--watch"}, "[INVALID_REQUEST]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, app, tt.args...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestOpenSessionBlankCanvas(t *testing.T) {
	dir := t.TempDir()
	pdfPath := writeFile(t, dir, "form.pdf", testPDF([2]int{200, 100}))

	tests := []struct {
		name      string
		pdf       string
		blank     int
		wantDoc   string
		wantPages int
	}{
		{"blank pages without pdf", "", 2, "blank", 2},
		{"pdf wins over blank", pdfPath, 3, "form.pdf", 1},
		{"no blank pages", "", 0, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh, err := openSession(context.Background(), testConfig(), tt.pdf, "", tt.blank)
			if err != nil {
				t.Fatalf("openSession failed: %v", err)
			}
			_ = sh.Do(func(s *session.Session) error {
				view := s.View()
				if view.Document != tt.wantDoc {
					t.Errorf("document = %q, want %q", view.Document, tt.wantDoc)
				}
				if s.NumPages() != tt.wantPages {
					t.Errorf("pages = %d, want %d", s.NumPages(), tt.wantPages)
				}
				if tt.wantPages > 0 && s.Viewport().IsZero() {
					t.Error("expected a non-zero viewport")
				}
				return nil
			})
		})
	}
}

func TestLocalConfigLeavesOriginal(t *testing.T) {
	cfg := testConfig()
	local := localConfig(cfg)
	if !local.AllowUnsafePaths {
		t.Error("expected local config to allow unsafe paths")
	}
	if cfg.AllowUnsafePaths {
		t.Error("original config was modified")
	}
}

// TestIsCLIMode tests the isCLIMode function.
func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{name: "no args", args: []string{"fieldmark"}, expected: false},
		{name: "pages command", args: []string{"fieldmark", "pages"}, expected: true},
		{name: "serve command", args: []string{"fieldmark", "serve"}, expected: true},
		{name: "ui command", args: []string{"fieldmark", "ui"}, expected: true},
		{name: "help flag", args: []string{"fieldmark", "--help"}, expected: true},
		{name: "version flag", args: []string{"fieldmark", "--version"}, expected: true},
		{name: "short help flag", args: []string{"fieldmark", "-h"}, expected: true},
		{name: "short version flag", args: []string{"fieldmark", "-v"}, expected: true},
		{name: "unknown arg defaults to MCP", args: []string{"fieldmark", "--unknown"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isCLIMode(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestIsHelpOrVersion tests the isHelpOrVersion function.
func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{name: "no args", args: []string{"fieldmark"}, expected: false},
		{name: "help flag", args: []string{"fieldmark", "--help"}, expected: true},
		{name: "short help flag", args: []string{"fieldmark", "-h"}, expected: true},
		{name: "version flag", args: []string{"fieldmark", "--version"}, expected: true},
		{name: "short version flag", args: []string{"fieldmark", "-v"}, expected: true},
		{name: "help subcommand", args: []string{"fieldmark", "help"}, expected: true},
		{name: "export command is not help", args: []string{"fieldmark", "export"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isHelpOrVersion(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestReadStdinWithLimit tests the readStdin function respects size limits.
func TestReadStdinWithLimit(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatalf("Failed to create pipe: %v", err)
		}
		go func() {
			_, _ = w.WriteString("  [ ]\n")
			w.Close()
		}()

		oldStdin := os.Stdin
		os.Stdin = r
		defer func() { os.Stdin = oldStdin }()

		result, err := readStdin(1000)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if string(result) != "[ ]" {
			t.Errorf("expected %q, got %q", "[ ]", result)
		}
	})

	t.Run("exceeds limit", func(t *testing.T) {
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatalf("Failed to create pipe: %v", err)
		}
		go func() {
			_, _ = w.WriteString(strings.Repeat("x", 100))
			w.Close()
		}()

		oldStdin := os.Stdin
		os.Stdin = r
		defer func() { os.Stdin = oldStdin }()

		if _, err := readStdin(50); err == nil {
			t.Error("expected error for oversized stdin")
		}
	})
}
