package epub

import (
	"net/url"
	"path"
	"strings"

	"github.com/beevik/etree"
	"github.com/yuanying/manuscript/internal/archive"
)

// Package is the parsed OPF package document. It only lives for the
// duration of a read.
type Package struct {
	Metadata      PackageMetadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in document order
	Spine         []string                // idrefs in reading order
	Guide         []GuideReference
}

// PackageMetadata holds the raw Dublin Core values of the package.
type PackageMetadata struct {
	Titles       []string
	Creators     []string
	Descriptions []string
	Publishers   []string
	Languages    []string
	Identifiers  []Identifier
	Subjects     []string
	UniqueID     string // value of package/@unique-identifier
	CoverID      string // EPUB 2 <meta name="cover" content="...">
}

// Identifier is a dc:identifier element.
type Identifier struct {
	ID     string
	Scheme string
	Value  string
	Type   string // EPUB 3 identifier-type refinement, e.g. "15" for ISBN
}

// ManifestItem is one manifest entry with its href resolved against the
// package document directory.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// GuideReference is an EPUB 2 guide entry.
type GuideReference struct {
	Type string
	Href string
}

// ParsePackage parses an OPF document. opfDir is the directory holding the
// document inside the archive ("" for the archive root).
func ParsePackage(data []byte, opfDir string) (*Package, error) {
	doc, err := readXML(data)
	if err != nil {
		return nil, err
	}
	root := doc.Root()

	pkg := &Package{
		Manifest: make(map[string]ManifestItem),
	}
	pkg.Metadata = parseMetadata(root)

	for _, item := range root.FindElements(".//manifest/item") {
		id := item.SelectAttrValue("id", "")
		if id == "" {
			continue
		}
		mi := ManifestItem{
			ID:         id,
			Href:       resolveHref(opfDir, item.SelectAttrValue("href", "")),
			MediaType:  strings.TrimSpace(item.SelectAttrValue("media-type", "")),
			Properties: strings.Fields(item.SelectAttrValue("properties", "")),
		}
		if _, dup := pkg.Manifest[id]; !dup {
			pkg.ManifestOrder = append(pkg.ManifestOrder, id)
		}
		pkg.Manifest[id] = mi
	}

	for _, ref := range root.FindElements(".//spine/itemref") {
		pkg.Spine = append(pkg.Spine, ref.SelectAttrValue("idref", ""))
	}

	for _, ref := range root.FindElements(".//guide/reference") {
		pkg.Guide = append(pkg.Guide, GuideReference{
			Type: ref.SelectAttrValue("type", ""),
			Href: resolveHref(opfDir, ref.SelectAttrValue("href", "")),
		})
	}

	return pkg, nil
}

func parseMetadata(root *etree.Element) PackageMetadata {
	md := PackageMetadata{
		UniqueID: root.SelectAttrValue("unique-identifier", ""),
	}

	meta := root.FindElement(".//metadata")
	if meta == nil {
		return md
	}

	md.Titles = texts(meta, "title")
	md.Creators = texts(meta, "creator")
	md.Descriptions = texts(meta, "description")
	md.Publishers = texts(meta, "publisher")
	md.Languages = texts(meta, "language")
	md.Subjects = texts(meta, "subject")

	// identifier-type refinements: refines="#id" -> value
	idTypes := make(map[string]string)
	for _, m := range meta.FindElements(".//meta") {
		switch {
		case m.SelectAttrValue("name", "") == "cover" && md.CoverID == "":
			md.CoverID = m.SelectAttrValue("content", "")
		case m.SelectAttrValue("property", "") == "identifier-type":
			idTypes[m.SelectAttrValue("refines", "")] = strings.TrimSpace(m.Text())
		}
	}

	for _, e := range meta.FindElements(".//identifier") {
		id := e.SelectAttrValue("id", "")
		md.Identifiers = append(md.Identifiers, Identifier{
			ID:     id,
			Scheme: e.SelectAttrValue("scheme", ""),
			Value:  strings.TrimSpace(e.Text()),
			Type:   idTypes["#"+id],
		})
	}

	return md
}

// texts returns the trimmed text of every descendant with the given local
// name, regardless of namespace prefix.
func texts(parent *etree.Element, tag string) []string {
	var out []string
	for _, e := range parent.FindElements(".//" + tag) {
		out = append(out, strings.TrimSpace(e.Text()))
	}
	return out
}

// ISBN picks the identifier that best represents an ISBN. An identifier
// marked as ISBN wins; otherwise the first identifier that is not the
// package's unique identifier; otherwise the first identifier, unless it is
// a generated urn:uuid.
func (md PackageMetadata) ISBN() string {
	for _, id := range md.Identifiers {
		if id.isISBN() {
			return strings.TrimPrefix(id.Value, "urn:isbn:")
		}
	}
	for _, id := range md.Identifiers {
		if md.UniqueID == "" || id.ID != md.UniqueID {
			return id.Value
		}
	}
	if len(md.Identifiers) > 0 && !strings.HasPrefix(md.Identifiers[0].Value, "urn:uuid:") {
		return md.Identifiers[0].Value
	}
	return ""
}

func (id Identifier) isISBN() bool {
	return strings.EqualFold(id.Scheme, "ISBN") ||
		strings.EqualFold(id.ID, "isbn") ||
		id.Type == "15" ||
		strings.HasPrefix(strings.ToLower(id.Value), "urn:isbn:")
}

// resolveHref resolves a manifest href against the package directory.
func resolveHref(opfDir, href string) string {
	href, _, _ = strings.Cut(href, "#")
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	if href == "" {
		return ""
	}
	if opfDir == "" {
		return archive.NormalizePath(href)
	}
	return archive.NormalizePath(path.Join(opfDir, href))
}

// packageDir returns everything before the last '/' of the package path.
func packageDir(opfPath string) string {
	if i := strings.LastIndex(opfPath, "/"); i >= 0 {
		return opfPath[:i]
	}
	return ""
}

func first(values []string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
