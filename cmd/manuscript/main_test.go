package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/yuanying/manuscript/internal/book"
	"github.com/yuanying/manuscript/internal/config"
)

func TestReadGlobalOptions_Defaults(t *testing.T) {
	cmd := newRootCmd()
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		t.Fatalf("readGlobalOptions() error = %v", err)
	}
	if opts.LogLevel != "" || opts.LogFormat != "" || opts.ConfigPath != "" {
		t.Fatalf("opts = %+v, want empty overrides", opts)
	}
}

func TestReadGlobalOptions_Verbose(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--log-level", "warn", "--verbose", "--log-format", "JSON"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	opts, err := readGlobalOptions(cmd)
	if err != nil {
		t.Fatalf("readGlobalOptions() error = %v", err)
	}
	// --verbose overrides log-level to debug
	if opts.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", opts.LogLevel)
	}
	if opts.LogFormat != "json" {
		t.Fatalf("LogFormat = %q, want json", opts.LogFormat)
	}
}

func TestReadGlobalOptions_Invalid(t *testing.T) {
	tests := map[string][]string{
		"--log-level":  {"--log-level", "trace"},
		"--log-format": {"--log-format", "xml"},
	}
	for flag, args := range tests {
		cmd := newRootCmd()
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatalf("ParseFlags() error = %v", err)
		}
		_, err := readGlobalOptions(cmd)
		if err == nil || !strings.Contains(err.Error(), flag) {
			t.Fatalf("expected %s validation error, got %v", flag, err)
		}
	}
}

func TestBuildLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := buildLogger(&buf, "warn", "console")
	if err != nil {
		t.Fatalf("buildLogger() error = %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("Logger should not be enabled at INFO level when level is warn")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("Logger should be enabled at WARN level")
	}
	if _, err := buildLogger(&buf, "info", "yaml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func readPDFOptionsForTest(t *testing.T, flagArgs ...string) (exportOptions, error) {
	t.Helper()
	cfg := config.Default()
	cmd := newExportFormatCmd(&app{cfg: &cfg}, formatPDF, "")
	if err := cmd.ParseFlags(flagArgs); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	return readExportOptions(cmd, formatPDF, &cfg)
}

func TestReadExportOptions_PDFDefaults(t *testing.T) {
	opts, err := readPDFOptionsForTest(t)
	if err != nil {
		t.Fatalf("readExportOptions() error = %v", err)
	}
	if opts.PDF.PageSize != "A4" || opts.PDF.Margin != 20 || opts.PDF.CoverQuality != 90 {
		t.Fatalf("PDF = %+v, want config defaults", opts.PDF)
	}
}

func TestReadExportOptions_PDFFlags(t *testing.T) {
	opts, err := readPDFOptionsForTest(t,
		"--page-size", "Letter",
		"--margin", "0",
		"--font", "/fonts/a.ttf",
		"--input", "p.json",
		"-o", "out.pdf",
		"--no-history",
	)
	if err != nil {
		t.Fatalf("readExportOptions() error = %v", err)
	}
	if opts.PDF.PageSize != "Letter" || opts.PDF.Margin != 0 || opts.PDF.FontPath != "/fonts/a.ttf" {
		t.Fatalf("PDF = %+v", opts.PDF)
	}
	if opts.InputPath != "p.json" || opts.OutputPath != "out.pdf" || !opts.NoHistory {
		t.Fatalf("opts = %+v", opts)
	}
}

func TestReadExportOptions_Invalid(t *testing.T) {
	_, err := readPDFOptionsForTest(t, "--page-size", "B9")
	if err == nil || !strings.Contains(err.Error(), "--page-size") {
		t.Fatalf("expected page-size validation error, got %v", err)
	}
	_, err = readPDFOptionsForTest(t, "--margin", "-3")
	if err == nil || !strings.Contains(err.Error(), "--margin") {
		t.Fatalf("expected margin validation error, got %v", err)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	meta := book.Metadata{Title: "My Book"}
	tests := map[string]string{
		formatEPUB:     filepath.Join("out", "My_Book.epub"),
		formatMarkdown: filepath.Join("out", "My_Book_markdown.zip"),
		formatPDF:      filepath.Join("out", "My_Book.pdf"),
	}
	for format, want := range tests {
		if got := defaultOutputPath("out", meta, format); got != want {
			t.Errorf("defaultOutputPath(%s) = %q, want %q", format, got, want)
		}
	}
}

func TestSuggestInput(t *testing.T) {
	got, err := suggestInput(strings.NewReader("ignored"), []string{"from arg"})
	if err != nil || got != "from arg" {
		t.Fatalf("suggestInput(arg) = %q, %v", got, err)
	}
	got, err = suggestInput(strings.NewReader("from stdin"), []string{"-"})
	if err != nil || got != "from stdin" {
		t.Fatalf("suggestInput(-) = %q, %v", got, err)
	}
	if _, err := suggestInput(strings.NewReader("  \n"), nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

type cliEnv struct {
	dir    string
	config string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cfg := filepath.Join(dir, "config.toml")
	body := "[store]\ndir = " + quoteTOML(filepath.Join(dir, "store")) +
		"\n[export]\ndir = " + quoteTOML(filepath.Join(dir, "out")) +
		"\n[log]\nlevel = \"error\"\n"
	if err := os.WriteFile(cfg, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cliEnv{dir: dir, config: cfg}
}

func quoteTOML(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append(args, "--config", e.config))
	err := root.Execute()
	return out.String(), err
}

func (e cliEnv) writeProject(t *testing.T, p book.Project) string {
	t.Helper()
	path := filepath.Join(e.dir, "project.json")
	if err := writeProjectFile(path, p); err != nil {
		t.Fatalf("writeProjectFile() error = %v", err)
	}
	return path
}

func TestCLI_ExportImportRoundTrip(t *testing.T) {
	env := newCLIEnv(t)
	input := env.writeProject(t, book.Project{
		Metadata: book.Metadata{Title: "Test Book", Author: "Tester"},
		Chapters: []book.Chapter{
			{ID: "b", Title: "Second", Content: "Two.", Order: 1},
			{ID: "a", Title: "First", Content: "# First\n\nOne.", Order: 0},
		},
	})

	out, err := env.run(t, "export", "epub", "--input", input)
	if err != nil {
		t.Fatalf("export epub error = %v", err)
	}
	epubPath := filepath.Join(env.dir, "out", "Test_Book.epub")
	if !strings.Contains(out, epubPath) {
		t.Fatalf("export output = %q, want path %s", out, epubPath)
	}

	out, err = env.run(t, "project", "history")
	if err != nil {
		t.Fatalf("project history error = %v", err)
	}
	if !strings.Contains(out, "Test_Book.epub") {
		t.Fatalf("history = %q", out)
	}

	imported := filepath.Join(env.dir, "imported.json")
	if _, err := env.run(t, "import", epubPath, "-o", imported); err != nil {
		t.Fatalf("import error = %v", err)
	}
	p, err := readProjectFile(imported)
	if err != nil {
		t.Fatalf("readProjectFile() error = %v", err)
	}
	if p.Metadata.Title != "Test Book" || p.Metadata.Publisher != book.DefaultPublisher {
		t.Fatalf("metadata = %+v", p.Metadata)
	}
	if len(p.Chapters) != 2 || p.Chapters[0].Title != "First" || p.Chapters[1].Title != "Second" {
		t.Fatalf("chapters = %+v, want sorted by order", p.Chapters)
	}
}

func TestCLI_ExportMarkdownAndPDF(t *testing.T) {
	env := newCLIEnv(t)
	input := env.writeProject(t, book.Project{
		Metadata: book.Metadata{Title: "Bundle", Author: "A"},
		Chapters: []book.Chapter{{Title: "Only", Content: "Text with *style*."}},
	})

	mdPath := filepath.Join(env.dir, "bundle.zip")
	if _, err := env.run(t, "export", "markdown", "--input", input, "-o", mdPath, "--no-history"); err != nil {
		t.Fatalf("export markdown error = %v", err)
	}
	pdfPath := filepath.Join(env.dir, "bundle.pdf")
	if _, err := env.run(t, "export", "pdf", "--input", input, "-o", pdfPath, "--page-size", "A5", "--no-history"); err != nil {
		t.Fatalf("export pdf error = %v", err)
	}
	data, err := os.ReadFile(pdfPath)
	if err != nil || !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("pdf output invalid: %v", err)
	}
	if _, err := os.Stat(mdPath); err != nil {
		t.Fatalf("markdown bundle missing: %v", err)
	}

	out, err := env.run(t, "project", "history")
	if err != nil {
		t.Fatalf("project history error = %v", err)
	}
	if !strings.Contains(out, "No exports recorded.") {
		t.Fatalf("history = %q, want empty", out)
	}
}

func TestCLI_SavedProjectLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	if _, err := env.run(t, "export", "epub"); err == nil || !strings.Contains(err.Error(), "no saved project") {
		t.Fatalf("export without project error = %v", err)
	}

	input := env.writeProject(t, book.Project{
		Metadata: book.Metadata{Title: "Saved", Author: "A"},
		Chapters: []book.Chapter{{Title: "C1", Content: "abc"}},
	})
	if _, err := env.run(t, "project", "save", input); err != nil {
		t.Fatalf("project save error = %v", err)
	}

	out, err := env.run(t, "project", "show")
	if err != nil {
		t.Fatalf("project show error = %v", err)
	}
	if !strings.Contains(out, "Saved") || !strings.Contains(out, "C1") {
		t.Fatalf("show = %q", out)
	}

	out, err = env.run(t, "project", "clear")
	if err != nil {
		t.Fatalf("project clear error = %v", err)
	}
	if want := filepath.Join(env.dir, "store", "manuscript.db"); !strings.Contains(out, want) {
		t.Fatalf("clear output = %q, want store path %s", out, want)
	}
	if _, err := env.run(t, "project", "show"); err == nil {
		t.Fatal("project show after clear should fail")
	}
}

func TestCLI_SuggestRejectsUnknownTask(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "suggest", "--task", "translate", "text")
	if err == nil || !strings.Contains(err.Error(), "--task") {
		t.Fatalf("expected task validation error, got %v", err)
	}
}
