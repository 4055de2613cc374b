// Package archive reads and writes the ZIP containers used by EPUB and the
// export bundles.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"hash/crc32"
	"time"
)

// Writer builds a ZIP archive in memory.
type Writer struct {
	buf     bytes.Buffer
	zw      *zip.Writer
	modTime time.Time
	closed  bool
}

// NewWriter returns an empty archive writer. Entries are stamped with
// modTime; a zero modTime uses the current time.
func NewWriter(modTime time.Time) *Writer {
	if modTime.IsZero() {
		modTime = time.Now()
	}
	w := &Writer{modTime: modTime}
	w.zw = zip.NewWriter(&w.buf)
	return w
}

// WriteStored adds an uncompressed entry. CRC and sizes are written in the
// local header, so the entry carries no data descriptor. OCF requires this
// form for the leading mimetype entry.
func (w *Writer) WriteStored(name string, data []byte) error {
	fh := &zip.FileHeader{
		Name:               name,
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE(data),
		CompressedSize64:   uint64(len(data)),
		UncompressedSize64: uint64(len(data)),
		Modified:           w.modTime,
	}
	fw, err := w.zw.CreateRaw(fh)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// WriteDeflated adds a compressed entry.
func (w *Writer) WriteDeflated(name string, data []byte) error {
	fw, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: w.modTime,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Bytes finalizes the archive and returns its contents. No entries may be
// added afterwards.
func (w *Writer) Bytes() ([]byte, error) {
	if !w.closed {
		if err := w.zw.Close(); err != nil {
			return nil, fmt.Errorf("finalize archive: %w", err)
		}
		w.closed = true
	}
	return w.buf.Bytes(), nil
}
