package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned when an entry does not exist in the archive.
var ErrNotFound = errors.New("entry not found")

// Reader gives path-addressed access to the entries of an in-memory ZIP.
type Reader struct {
	zr    *zip.Reader
	files map[string]*zip.File
}

// Open parses data as a ZIP archive.
func Open(data []byte) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	r := &Reader{
		zr:    zr,
		files: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		name := NormalizePath(f.Name)
		// First occurrence wins for duplicated names.
		if _, exists := r.files[name]; !exists {
			r.files[name] = f
		}
	}
	return r, nil
}

// Has reports whether the archive contains the entry.
func (r *Reader) Has(name string) bool {
	_, ok := r.files[NormalizePath(name)]
	return ok
}

// ReadFile returns the decompressed contents of an entry.
func (r *Reader) ReadFile(name string) ([]byte, error) {
	name = NormalizePath(name)
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Entries returns the entry headers in archive order.
func (r *Reader) Entries() []zip.FileHeader {
	headers := make([]zip.FileHeader, 0, len(r.zr.File))
	for _, f := range r.zr.File {
		headers = append(headers, f.FileHeader)
	}
	return headers
}

// Names returns the normalized entry names in archive order.
func (r *Reader) Names() []string {
	names := make([]string, 0, len(r.zr.File))
	for _, f := range r.zr.File {
		names = append(names, NormalizePath(f.Name))
	}
	return names
}

// NormalizePath converts an entry name to the canonical form used for
// lookups: forward slashes, no leading "./" or "/", dot segments resolved.
func NormalizePath(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean(name), "./")
}
