package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yuanying/manuscript/internal/book"
	"github.com/yuanying/manuscript/internal/config"
	"github.com/yuanying/manuscript/internal/epub"
	"github.com/yuanying/manuscript/internal/export"
	"github.com/yuanying/manuscript/internal/store"
)

const (
	formatEPUB     = "epub"
	formatMarkdown = "markdown"
	formatPDF      = "pdf"
)

type exportOptions struct {
	Format     string
	InputPath  string
	OutputPath string
	CoverPath  string
	NoHistory  bool
	PDF        export.PDFOptions
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the project as EPUB, a Markdown bundle or PDF",
	}
	cmd.AddCommand(
		newExportFormatCmd(a, formatEPUB, "Export an EPUB 3 archive"),
		newExportFormatCmd(a, formatMarkdown, "Export a ZIP of Markdown files"),
		newExportFormatCmd(a, formatPDF, "Export a PDF"),
	)
	return cmd
}

func newExportFormatCmd(a *app, format, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   format,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readExportOptions(cmd, format, a.cfg)
			if err != nil {
				return err
			}
			return a.runExport(cmd.Context(), cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.String("input", "", "Project JSON file (default: the saved project)")
	flags.StringP("output", "o", "", "Output file path (default: <export dir>/<title>.<ext>)")
	flags.String("cover", "", "Cover image file, replacing the project cover")
	flags.Bool("no-history", false, "Do not record the export in the file history")
	if format == formatPDF {
		flags.String("page-size", "", "Page size: A3, A4, A5, Letter, Legal (default: from config)")
		flags.Float64("margin", -1, "Page margin in millimetres (default: from config)")
		flags.String("font", "", "TrueType font for body text (default: from config)")
	}
	return cmd
}

func readExportOptions(cmd *cobra.Command, format string, cfg *config.Config) (exportOptions, error) {
	flags := cmd.Flags()
	opts := exportOptions{Format: format}
	var err error
	if opts.InputPath, err = flags.GetString("input"); err != nil {
		return opts, err
	}
	if opts.OutputPath, err = flags.GetString("output"); err != nil {
		return opts, err
	}
	if opts.CoverPath, err = flags.GetString("cover"); err != nil {
		return opts, err
	}
	if opts.NoHistory, err = flags.GetBool("no-history"); err != nil {
		return opts, err
	}

	if format != formatPDF {
		return opts, nil
	}

	opts.PDF = export.PDFOptions{
		PageSize:     cfg.PDF.PageSize,
		Margin:       cfg.PDF.Margin,
		FontPath:     cfg.PDF.FontPath,
		CoverQuality: cfg.PDF.CoverQuality,
	}
	if flags.Changed("page-size") {
		size, _ := flags.GetString("page-size")
		switch strings.ToLower(size) {
		case "a3", "a4", "a5", "letter", "legal":
			opts.PDF.PageSize = size
		default:
			return opts, fmt.Errorf("invalid --page-size %q: must be A3, A4, A5, Letter or Legal", size)
		}
	}
	if flags.Changed("margin") {
		margin, _ := flags.GetFloat64("margin")
		if margin < 0 {
			return opts, fmt.Errorf("invalid --margin %v: must not be negative", margin)
		}
		opts.PDF.Margin = margin
	}
	if flags.Changed("font") {
		opts.PDF.FontPath, _ = flags.GetString("font")
	}
	return opts, nil
}

// defaultOutputPath is <dir>/<sanitized title>.<ext>.
func defaultOutputPath(dir string, meta book.Metadata, format string) string {
	var name string
	switch format {
	case formatEPUB:
		name = epub.Filename(meta)
	case formatMarkdown:
		name = export.MarkdownFilename(meta)
	default:
		name = export.PDFFilename(meta)
	}
	return filepath.Join(dir, name)
}

func (a *app) runExport(ctx context.Context, cmd *cobra.Command, opts exportOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	project, err := a.loadProject(ctx, opts.InputPath)
	if err != nil {
		return err
	}
	meta := project.Metadata
	a.applyBookDefaults(&meta)

	if opts.CoverPath != "" {
		raw, err := os.ReadFile(opts.CoverPath)
		if err != nil {
			return fmt.Errorf("read cover: %w", err)
		}
		cover, err := export.PrepareCover(raw, a.cfg.Export.CoverMaxWidth, a.cfg.Export.CoverQuality)
		if err != nil {
			return err
		}
		meta.Cover = cover
	}

	chapters := book.SortByOrder(project.Chapters)

	var data []byte
	switch opts.Format {
	case formatEPUB:
		data, err = epub.Write(meta, chapters)
	case formatMarkdown:
		data, err = export.MarkdownBundle(meta, chapters, time.Now())
	case formatPDF:
		data, err = export.PDFBundle(meta, chapters, opts.PDF)
	default:
		err = fmt.Errorf("unknown export format %q", opts.Format)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", opts.Format, err)
	}

	out := opts.OutputPath
	if out == "" {
		out = defaultOutputPath(a.cfg.Export.Dir, meta, opts.Format)
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	a.logger.Info("export complete",
		zap.String("format", opts.Format),
		zap.String("path", out),
		zap.Int("chapters", len(chapters)),
		zap.Int("bytes", len(data)),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", out, humanize.Bytes(uint64(len(data))))

	if !opts.NoHistory {
		a.recordHistory(ctx, out, opts.Format, int64(len(data)))
	}
	return nil
}

// recordHistory appends to the file history. Failures are logged and do not
// fail the export.
func (a *app) recordHistory(ctx context.Context, path, format string, size int64) {
	s, err := a.openStore()
	if err != nil {
		a.logger.Warn("file history not recorded", zap.Error(err))
		return
	}
	defer s.Close()

	if _, err := s.AppendHistory(ctx, store.HistoryRecord{
		Filename: filepath.Base(path),
		Format:   format,
		Size:     size,
	}); err != nil {
		a.logger.Warn("file history not recorded", zap.Error(err))
	}
}
