package epub

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuanying/manuscript/internal/archive"
	"github.com/yuanying/manuscript/internal/book"
	"github.com/yuanying/manuscript/internal/transcode"
	"github.com/yuanying/manuscript/internal/xhtml"
)

const (
	mimetypeContent = "application/epub+zip"
	oebpsDir        = "OEBPS"
	opfPath         = oebpsDir + "/content.opf"
	ncxHref         = "toc.ncx"
	stylesheetHref  = "style.css"
	coverItemID     = "cover-image"
)

// Writer serializes books into EPUB 3 archives. The zero value is ready to
// use; the hooks exist so tests can pin otherwise random output.
type Writer struct {
	// Now returns the modification timestamp. Defaults to time.Now.
	Now func() time.Time
	// NewIdentifier returns the package unique identifier. Defaults to a
	// random urn:uuid.
	NewIdentifier func() string
}

// chapterFile is the per-export file mapping of one chapter.
type chapterFile struct {
	ID       string // chap<n>
	Filename string // chapter_<n>.xhtml
	Title    string
}

// Write is shorthand for (&Writer{}).Write.
func Write(meta book.Metadata, chapters []book.Chapter) ([]byte, error) {
	return (&Writer{}).Write(meta, chapters)
}

// Filename returns the download name for the EPUB of meta.
func Filename(meta book.Metadata) string {
	return book.ExportFilename(meta.Title, "epub")
}

// Write builds an EPUB 3 archive from the metadata and chapters. Chapters are
// emitted in slice order; their Order field is not consulted. The input is
// not validated: a cover with only one of data or MIME type is ignored.
func (w *Writer) Write(meta book.Metadata, chapters []book.Chapter) ([]byte, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	identifier := "urn:uuid:" + uuid.NewString()
	if w.NewIdentifier != nil {
		identifier = w.NewIdentifier()
	}
	modified := now().UTC()

	zw := archive.NewWriter(modified)

	if err := zw.WriteStored("mimetype", []byte(mimetypeContent)); err != nil {
		return nil, err
	}

	container, err := buildContainer(opfPath)
	if err != nil {
		return nil, err
	}
	if err := zw.WriteDeflated(containerPath, container); err != nil {
		return nil, err
	}

	var cover *book.Cover
	if meta.Cover.Valid() {
		cover = meta.Cover
		if err := zw.WriteDeflated(oebpsDir+"/"+coverHref(cover), cover.Data); err != nil {
			return nil, err
		}
	}

	lang := meta.LanguageOrDefault()
	files := make([]chapterFile, 0, len(chapters))
	for i, ch := range chapters {
		f := chapterFile{
			ID:       fmt.Sprintf("chap%d", i+1),
			Filename: fmt.Sprintf("chapter_%d.xhtml", i+1),
			Title:    ch.Title,
		}

		doc, err := chapterDocument(ch, lang)
		if err != nil {
			return nil, fmt.Errorf("chapter %d: %w", i+1, err)
		}
		if err := zw.WriteDeflated(oebpsDir+"/"+f.Filename, doc); err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	if err := zw.WriteDeflated(oebpsDir+"/"+stylesheetHref, []byte(stylesheet)); err != nil {
		return nil, err
	}

	opf, err := buildPackage(packageInput{
		Meta:       meta,
		Identifier: identifier,
		Modified:   modified,
		Cover:      cover,
		Chapters:   files,
	})
	if err != nil {
		return nil, err
	}
	if err := zw.WriteDeflated(opfPath, opf); err != nil {
		return nil, err
	}

	ncx, err := buildNCX(identifier, meta.Title, files)
	if err != nil {
		return nil, err
	}
	if err := zw.WriteDeflated(oebpsDir+"/"+ncxHref, ncx); err != nil {
		return nil, err
	}

	return zw.Bytes()
}

// chapterDocument renders one chapter as a standalone XHTML document. Raw
// HTML in the Markdown is re-parsed, so the result is well-formed whatever
// the author typed.
func chapterDocument(ch book.Chapter, lang string) ([]byte, error) {
	html, err := transcode.MarkdownToHTML(ch.Content)
	if err != nil {
		return nil, err
	}
	body := transcode.ChapterBody(ch.Title, html)
	return xhtml.Document(ch.Title, lang, stylesheetHref, body)
}

func coverHref(c *book.Cover) string {
	return "images/cover." + c.Extension()
}
