package epub

import (
	"path"
	"strings"
)

// CoverInfo describes the cover image found in a package.
type CoverInfo struct {
	ManifestID      string
	Href            string
	MediaType       string
	DetectionMethod string // "properties", "meta", "guide", "filename"
}

// DetectCover finds the cover image in the manifest. Methods are tried in
// priority order:
//  1. properties="cover-image" (EPUB 3)
//  2. meta name="cover" (EPUB 2)
//  3. guide type="cover" pointing directly at an image
//  4. an image whose basename contains "cover"
//
// Returns nil if no cover image is found.
func (p *Package) DetectCover() *CoverInfo {
	for _, id := range p.ManifestOrder {
		item := p.Manifest[id]
		for _, prop := range item.Properties {
			if prop == "cover-image" {
				return coverInfo(item, "properties")
			}
		}
	}

	if p.Metadata.CoverID != "" {
		if item, ok := p.Manifest[p.Metadata.CoverID]; ok && isImageMediaType(item.MediaType) {
			return coverInfo(item, "meta")
		}
	}

	for _, ref := range p.Guide {
		if !strings.EqualFold(ref.Type, "cover") {
			continue
		}
		target, _, _ := strings.Cut(ref.Href, "#")
		for _, id := range p.ManifestOrder {
			item := p.Manifest[id]
			if item.Href == target && isImageMediaType(item.MediaType) {
				return coverInfo(item, "guide")
			}
		}
	}

	for _, id := range p.ManifestOrder {
		item := p.Manifest[id]
		if !isImageMediaType(item.MediaType) {
			continue
		}
		if strings.Contains(strings.ToLower(path.Base(item.Href)), "cover") {
			return coverInfo(item, "filename")
		}
	}

	return nil
}

func coverInfo(item ManifestItem, method string) *CoverInfo {
	return &CoverInfo{
		ManifestID:      item.ID,
		Href:            item.Href,
		MediaType:       item.MediaType,
		DetectionMethod: method,
	}
}

// isImageMediaType checks if a media type is a raster image (SVG excluded).
func isImageMediaType(mediaType string) bool {
	if mediaType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}

// isContentMediaType reports whether a spine item can hold chapter text.
// Items without a declared media type are given the benefit of the doubt.
func isContentMediaType(mediaType string) bool {
	if mediaType == "" {
		return true
	}
	return strings.Contains(mediaType, "html")
}
