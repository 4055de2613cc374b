package epub

import (
	"errors"

	"github.com/yuanying/manuscript/internal/archive"
	"github.com/yuanying/manuscript/internal/book"
)

const (
	defaultTitle  = "Untitled"
	defaultAuthor = "Unknown"
)

// Result is the book recovered from an EPUB together with a per-spine-item
// account of what was loaded and what was skipped.
type Result struct {
	Metadata book.Metadata
	Chapters []book.Chapter
	Entries  []SpineEntry
	// Cover is the manifest item detected as the cover image, nil when the
	// package declares none. Metadata.Cover stays nil if its file is missing.
	Cover *CoverInfo
}

// SpineEntry is the outcome for one spine itemref: either Chapter is set, or
// Skip explains why it is not.
type SpineEntry struct {
	Index   int
	IDRef   string
	Href    string
	Chapter *book.Chapter
	Skip    *SkipError
}

// Loaded reports whether the entry produced a chapter.
func (e SpineEntry) Loaded() bool {
	return e.Chapter != nil
}

// Skipped returns the entries that produced no chapter.
func (r *Result) Skipped() []SpineEntry {
	var out []SpineEntry
	for _, e := range r.Entries {
		if !e.Loaded() {
			out = append(out, e)
		}
	}
	return out
}

// Read parses an EPUB archive back into a book. Structural failures
// (unreadable archive, missing container.xml, missing rootfile path, missing
// package document) return a *FormatError. Individual spine items that cannot
// be resolved are skipped and reported in Result.Entries. An empty spine is
// not an error.
func Read(data []byte) (*Result, error) {
	r, err := archive.Open(data)
	if err != nil {
		return nil, formatError("", errors.Join(ErrBadArchive, err))
	}

	opfPath, err := findPackagePath(r)
	if err != nil {
		return nil, err
	}

	opfData, err := r.ReadFile(opfPath)
	if err != nil {
		return nil, formatError(opfPath, ErrNoPackage)
	}

	pkg, err := ParsePackage(opfData, packageDir(opfPath))
	if err != nil {
		return nil, formatError(opfPath, err)
	}

	res := &Result{
		Metadata: bookMetadata(pkg.Metadata),
		Chapters: []book.Chapter{},
	}
	res.Cover = pkg.DetectCover()
	res.Metadata.Cover = loadCover(r, res.Cover)

	for i, idref := range pkg.Spine {
		entry := SpineEntry{Index: i, IDRef: idref}

		ch, skip, err := readSpineItem(r, pkg, i, idref, &entry)
		if err != nil {
			return nil, err
		}
		if skip != nil {
			entry.Skip = skip
		} else {
			entry.Chapter = ch
			res.Chapters = append(res.Chapters, *ch)
		}
		res.Entries = append(res.Entries, entry)
	}

	return res, nil
}

// readSpineItem loads one spine item. A non-nil *SkipError means the item
// was skipped; a non-nil error is fatal.
func readSpineItem(r *archive.Reader, pkg *Package, index int, idref string, entry *SpineEntry) (*book.Chapter, *SkipError, error) {
	item, ok := pkg.Manifest[idref]
	if !ok {
		return nil, &SkipError{IDRef: idref, Err: ErrNotInManifest}, nil
	}
	entry.Href = item.Href

	if !isContentMediaType(item.MediaType) {
		return nil, &SkipError{IDRef: idref, Href: item.Href, Err: ErrNotContent}, nil
	}

	if !r.Has(item.Href) {
		return nil, &SkipError{IDRef: idref, Href: item.Href, Err: ErrMissingEntry}, nil
	}
	data, err := r.ReadFile(item.Href)
	if err != nil {
		return nil, &SkipError{IDRef: idref, Href: item.Href, Err: errors.Join(ErrUnreadable, err)}, nil
	}

	content, err := loadChapter(data, index)
	if err != nil {
		if errors.Is(err, ErrUnparsable) {
			return nil, &SkipError{IDRef: idref, Href: item.Href, Err: err}, nil
		}
		return nil, nil, err
	}

	return &book.Chapter{
		ID:      book.NewChapterID(),
		Title:   content.Title,
		Content: content.Markdown,
		Order:   index,
	}, nil, nil
}

func bookMetadata(md PackageMetadata) book.Metadata {
	m := book.Metadata{
		Title:       first(md.Titles),
		Author:      first(md.Creators),
		Description: first(md.Descriptions),
		Publisher:   first(md.Publishers),
		Language:    first(md.Languages),
		ISBN:        md.ISBN(),
		Tags:        []string{},
	}
	if m.Title == "" {
		m.Title = defaultTitle
	}
	if m.Author == "" {
		m.Author = defaultAuthor
	}
	if m.Language == "" {
		m.Language = book.DefaultLanguage
	}
	for _, s := range md.Subjects {
		if s != "" {
			m.Tags = append(m.Tags, s)
		}
	}
	return m
}

// loadCover returns the detected cover image, or nil when the package has
// none or its file is missing.
func loadCover(r *archive.Reader, info *CoverInfo) *book.Cover {
	if info == nil {
		return nil
	}
	data, err := r.ReadFile(info.Href)
	if err != nil || len(data) == 0 {
		return nil
	}
	return &book.Cover{Data: data, MediaType: info.MediaType}
}
