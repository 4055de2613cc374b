// Test program for the EPUB reader.
//
// Usage:
//
//	go run ./cmd/test/epub_reader/main.go <epub-file-path> (<entry-name> ...)
//
// This program:
// - Lists the archive entries in stored order with their compression method
// - Reads the EPUB back into a book
// - Displays metadata and the outcome of every spine item
// - Prints the named archive entries, if any
package main

import (
	"archive/zip"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/yuanying/manuscript/internal/archive"
	"github.com/yuanying/manuscript/internal/epub"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/test/epub_reader/main.go <epub-file> (<entry-name> ...)")
		os.Exit(1)
	}

	epubPath := os.Args[1]
	entryNames := os.Args[2:]

	data, err := os.ReadFile(epubPath)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", epubPath, err)
	}

	r, err := archive.Open(data)
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	entries := r.Entries()
	fmt.Printf("Total entries: %d\n", len(entries))
	for _, h := range entries {
		method := "deflated"
		if h.Method == zip.Store {
			method = "stored"
		}
		fmt.Printf("  - %-40s %8d bytes  %s\n", h.Name, h.UncompressedSize64, method)
	}

	res, err := epub.Read(data)
	if err != nil {
		var fe *epub.FormatError
		if errors.As(err, &fe) {
			log.Fatalf("Not a readable EPUB: %v", fe)
		}
		log.Fatalf("Failed to read EPUB: %v", err)
	}

	m := res.Metadata
	fmt.Println("\nMetadata:")
	fmt.Printf("  Title:       %s\n", m.Title)
	fmt.Printf("  Author:      %s\n", m.Author)
	fmt.Printf("  Publisher:   %s\n", m.Publisher)
	fmt.Printf("  Language:    %s\n", m.Language)
	fmt.Printf("  ISBN:        %s\n", m.ISBN)
	fmt.Printf("  Tags:        %v\n", m.Tags)
	if c := res.Cover; c != nil {
		fmt.Printf("  Cover:       %s [%s] (found via %s)\n", c.Href, c.ManifestID, c.DetectionMethod)
		if m.Cover.Valid() {
			fmt.Printf("               %s, %d bytes\n", m.Cover.MediaType, len(m.Cover.Data))
		} else {
			fmt.Println("               ✗ file missing from archive")
		}
	}

	fmt.Printf("\nSpine (%d items, %d chapters):\n", len(res.Entries), len(res.Chapters))
	for _, e := range res.Entries {
		if e.Loaded() {
			fmt.Printf("  %3d ✓ %-30s %s (%d chars)\n", e.Index, e.Href, e.Chapter.Title, len(e.Chapter.Content))
			continue
		}
		fmt.Printf("  %3d ✗ %-30s %v\n", e.Index, e.IDRef, e.Skip)
	}

	for _, name := range entryNames {
		content, err := r.ReadFile(name)
		if err != nil {
			log.Fatalf("Failed to read entry %s: %v", name, err)
		}
		fmt.Printf("\n--- %s (%d bytes) ---\n%s\n", name, len(content), content)
	}
}
