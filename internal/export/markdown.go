// Package export builds the secondary export artifacts: a ZIP bundle of
// Markdown files and a paginated PDF.
package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yuanying/manuscript/internal/archive"
	"github.com/yuanying/manuscript/internal/book"
	"github.com/yuanying/manuscript/internal/transcode"
)

const (
	chaptersDir      = "chapters"
	metadataFilename = "metadata.json"
)

// bundleMetadata is the metadata.json side-file of a Markdown bundle.
type bundleMetadata struct {
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Publisher    string    `json:"publisher"`
	Description  string    `json:"description"`
	Language     string    `json:"language"`
	ISBN         string    `json:"isbn,omitempty"`
	Tags         []string  `json:"tags"`
	ChapterCount int       `json:"chapterCount"`
	ExportedAt   time.Time `json:"exportedAt"`
}

// MarkdownFilename returns the download name for the Markdown bundle.
func MarkdownFilename(meta book.Metadata) string {
	return book.SanitizeFilename(meta.Title) + "_markdown.zip"
}

// MarkdownBundle returns a ZIP holding one Markdown file per chapter under
// chapters/, the whole book concatenated into <title>.md, a metadata.json
// side-file and the cover, when there is one. Each chapter file starts with
// a "# <title>" line unless its content already does.
func MarkdownBundle(meta book.Metadata, chapters []book.Chapter, now time.Time) ([]byte, error) {
	if now.IsZero() {
		now = time.Now()
	}
	zw := archive.NewWriter(now)

	width := len(strconv.Itoa(len(chapters)))
	if width < 2 {
		width = 2
	}

	parts := make([]string, 0, len(chapters)+1)
	parts = append(parts, bookHeader(meta))

	for i, ch := range chapters {
		text := transcode.EnsureMarkdownTitle(ch.Title, ch.Content)
		name := fmt.Sprintf("%s/%0*d_%s.md", chaptersDir, width, i+1, book.SanitizeFilename(ch.Title))
		if err := zw.WriteDeflated(name, []byte(ensureTrailingNewline(text))); err != nil {
			return nil, fmt.Errorf("markdown bundle: %w", err)
		}
		parts = append(parts, strings.TrimRight(text, "\n"))
	}

	whole := strings.Join(parts, "\n\n") + "\n"
	if err := zw.WriteDeflated(book.ExportFilename(meta.Title, "md"), []byte(whole)); err != nil {
		return nil, fmt.Errorf("markdown bundle: %w", err)
	}

	side, err := json.MarshalIndent(newBundleMetadata(meta, len(chapters), now), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("markdown bundle: encode metadata: %w", err)
	}
	if err := zw.WriteDeflated(metadataFilename, side); err != nil {
		return nil, fmt.Errorf("markdown bundle: %w", err)
	}

	if meta.Cover.Valid() {
		if err := zw.WriteDeflated("cover."+meta.Cover.Extension(), meta.Cover.Data); err != nil {
			return nil, fmt.Errorf("markdown bundle: %w", err)
		}
	}

	data, err := zw.Bytes()
	if err != nil {
		return nil, fmt.Errorf("markdown bundle: %w", err)
	}
	return data, nil
}

func bookHeader(meta book.Metadata) string {
	var sb strings.Builder
	sb.WriteString("# " + meta.Title)
	if meta.Author != "" {
		sb.WriteString("\n\n" + meta.Author)
	}
	if meta.Description != "" {
		sb.WriteString("\n\n> " + strings.ReplaceAll(strings.TrimSpace(meta.Description), "\n", "\n> "))
	}
	sb.WriteString("\n\n---")
	return sb.String()
}

func newBundleMetadata(meta book.Metadata, count int, now time.Time) bundleMetadata {
	tags := make([]string, 0, len(meta.Tags))
	for _, t := range meta.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return bundleMetadata{
		Title:        meta.Title,
		Author:       meta.Author,
		Publisher:    meta.PublisherOrDefault(),
		Description:  meta.Description,
		Language:     meta.LanguageOrDefault(),
		ISBN:         strings.TrimSpace(meta.ISBN),
		Tags:         tags,
		ChapterCount: count,
		ExportedAt:   now.UTC(),
	}
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
