package epub

import (
	"errors"
	"fmt"
)

// Structural problems that make an archive unusable as an EPUB. They are
// always delivered wrapped in a *FormatError.
var (
	ErrNoContainer = errors.New("META-INF/container.xml not found")
	ErrNoRootfile  = errors.New("no rootfile path in container.xml")
	ErrNoPackage   = errors.New("package document not found")
	ErrBadArchive  = errors.New("not a readable ZIP archive")
	ErrBadXML      = errors.New("malformed XML")
)

// Reasons a single spine item is skipped. They are delivered wrapped in a
// *SkipError and never abort a read.
var (
	ErrNotInManifest = errors.New("spine item has no manifest entry")
	ErrMissingEntry  = errors.New("manifest item missing from archive")
	ErrUnreadable    = errors.New("archive entry could not be decompressed")
	ErrNotContent    = errors.New("spine item is not an XHTML document")
	ErrUnparsable    = errors.New("content document could not be parsed")
)

// FormatError reports that the input is not a structurally valid EPUB.
type FormatError struct {
	Path string // archive entry involved, if any
	Err  error
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("epub: invalid format: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("epub: invalid format: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// SkipError records why a spine item produced no chapter.
type SkipError struct {
	IDRef string
	Href  string
	Err   error
}

func (e *SkipError) Error() string {
	if e.Href != "" {
		return fmt.Sprintf("skip spine item %q (%s): %v", e.IDRef, e.Href, e.Err)
	}
	return fmt.Sprintf("skip spine item %q: %v", e.IDRef, e.Err)
}

func (e *SkipError) Unwrap() error { return e.Err }

func formatError(path string, err error) error {
	return &FormatError{Path: path, Err: err}
}
