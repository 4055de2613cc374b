package epub

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/yuanying/manuscript/internal/archive"
)

const (
	containerPath    = "META-INF/container.xml"
	packageMediaType = "application/oebps-package+xml"
	containerNS      = "urn:oasis:names:tc:opendocument:xmlns:container"
)

// buildContainer returns container.xml pointing at the package document.
func buildContainer(opfPath string) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	container := doc.CreateElement("container")
	container.CreateAttr("version", "1.0")
	container.CreateAttr("xmlns", containerNS)

	rootfiles := container.CreateElement("rootfiles")
	rootfile := rootfiles.CreateElement("rootfile")
	rootfile.CreateAttr("full-path", opfPath)
	rootfile.CreateAttr("media-type", packageMediaType)

	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize container.xml: %w", err)
	}
	return data, nil
}

// findPackagePath reads container.xml and returns the package document path.
// A rootfile declaring the OPF media type wins; otherwise the first rootfile
// with a path is used.
func findPackagePath(r *archive.Reader) (string, error) {
	data, err := r.ReadFile(containerPath)
	if err != nil {
		return "", formatError(containerPath, ErrNoContainer)
	}

	doc, err := readXML(data)
	if err != nil {
		return "", formatError(containerPath, err)
	}

	var fallback string
	for _, rf := range doc.FindElements("//rootfile") {
		fullPath := rf.SelectAttrValue("full-path", "")
		if fullPath == "" {
			continue
		}
		mediaType := rf.SelectAttrValue("media-type", "")
		if mediaType == packageMediaType || mediaType == "" {
			return archive.NormalizePath(fullPath), nil
		}
		if fallback == "" {
			fallback = fullPath
		}
	}
	if fallback != "" {
		return archive.NormalizePath(fallback), nil
	}
	return "", formatError(containerPath, ErrNoRootfile)
}

// readXML parses an XML document leniently; reading systems routinely accept
// packages that are not strictly well-formed.
func readXML(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadXML, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrBadXML)
	}
	return doc, nil
}
