package epub

import (
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/yuanying/manuscript/internal/book"
	"github.com/yuanying/manuscript/internal/xhtml"
)

const (
	opfNS = "http://www.idpf.org/2007/opf"
	dcNS  = "http://purl.org/dc/elements/1.1/"
	ncxNS = "http://www.daisy.org/z3986/2005/ncx/"
)

type packageInput struct {
	Meta       book.Metadata
	Identifier string
	Modified   time.Time
	Cover      *book.Cover
	Chapters   []chapterFile
}

// buildPackage renders content.opf. Optional metadata (ISBN, subjects,
// cover) is omitted entirely when absent.
func buildPackage(in packageInput) ([]byte, error) {
	m := in.Meta
	doc := xhtml.NewDocument()

	pkg := doc.CreateElement("package")
	pkg.CreateAttr("xmlns", opfNS)
	pkg.CreateAttr("version", "3.0")
	pkg.CreateAttr("unique-identifier", "BookId")
	pkg.CreateAttr("xml:lang", m.LanguageOrDefault())

	metadata := pkg.CreateElement("metadata")
	metadata.CreateAttr("xmlns:dc", dcNS)
	metadata.CreateAttr("xmlns:opf", opfNS)

	id := metadata.CreateElement("dc:identifier")
	id.CreateAttr("id", "BookId")
	id.SetText(in.Identifier)

	metadata.CreateElement("dc:title").SetText(m.Title)
	creator := metadata.CreateElement("dc:creator")
	creator.CreateAttr("id", "creator")
	creator.SetText(m.Author)
	metadata.CreateElement("dc:publisher").SetText(m.PublisherOrDefault())
	metadata.CreateElement("dc:description").SetText(m.Description)
	metadata.CreateElement("dc:language").SetText(m.LanguageOrDefault())

	modified := metadata.CreateElement("meta")
	modified.CreateAttr("property", "dcterms:modified")
	modified.SetText(in.Modified.UTC().Format("2006-01-02T15:04:05Z"))

	if isbn := strings.TrimSpace(m.ISBN); isbn != "" {
		isbnElem := metadata.CreateElement("dc:identifier")
		isbnElem.CreateAttr("id", "isbn")
		isbnElem.CreateAttr("opf:scheme", "ISBN")
		isbnElem.SetText(isbn)

		refine := metadata.CreateElement("meta")
		refine.CreateAttr("refines", "#isbn")
		refine.CreateAttr("property", "identifier-type")
		refine.CreateAttr("scheme", "onix:codelist5")
		refine.SetText("15")
	}
	for _, tag := range m.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			metadata.CreateElement("dc:subject").SetText(tag)
		}
	}
	if in.Cover != nil {
		coverMeta := metadata.CreateElement("meta")
		coverMeta.CreateAttr("name", "cover")
		coverMeta.CreateAttr("content", coverItemID)
	}

	manifest := pkg.CreateElement("manifest")
	addManifestItem(manifest, "css", stylesheetHref, "text/css")
	addManifestItem(manifest, "ncx", ncxHref, "application/x-dtbncx+xml")
	if in.Cover != nil {
		item := addManifestItem(manifest, coverItemID, coverHref(in.Cover), in.Cover.MediaType)
		item.CreateAttr("properties", "cover-image")
	}
	for _, f := range in.Chapters {
		addManifestItem(manifest, f.ID, f.Filename, "application/xhtml+xml")
	}

	spine := pkg.CreateElement("spine")
	spine.CreateAttr("toc", "ncx")
	for _, f := range in.Chapters {
		spine.CreateElement("itemref").CreateAttr("idref", f.ID)
	}

	doc.Indent(2)
	return xhtml.Serialize(doc)
}

func addManifestItem(manifest *etree.Element, id, href, mediaType string) *etree.Element {
	item := manifest.CreateElement("item")
	item.CreateAttr("id", id)
	item.CreateAttr("href", href)
	item.CreateAttr("media-type", mediaType)
	return item
}

// buildNCX renders toc.ncx with one navPoint per chapter.
func buildNCX(identifier, title string, chapters []chapterFile) ([]byte, error) {
	doc := xhtml.NewDocument()

	ncx := doc.CreateElement("ncx")
	ncx.CreateAttr("xmlns", ncxNS)
	ncx.CreateAttr("version", "2005-1")

	head := ncx.CreateElement("head")
	for _, kv := range [][2]string{
		{"dtb:uid", identifier},
		{"dtb:depth", "1"},
		{"dtb:totalPageCount", "0"},
		{"dtb:maxPageNumber", "0"},
	} {
		meta := head.CreateElement("meta")
		meta.CreateAttr("name", kv[0])
		meta.CreateAttr("content", kv[1])
	}

	ncx.CreateElement("docTitle").CreateElement("text").SetText(title)

	navMap := ncx.CreateElement("navMap")
	for i, f := range chapters {
		order := strconv.Itoa(i + 1)
		navPoint := navMap.CreateElement("navPoint")
		navPoint.CreateAttr("id", "navPoint-"+order)
		navPoint.CreateAttr("playOrder", order)
		navPoint.CreateElement("navLabel").CreateElement("text").SetText(f.Title)
		navPoint.CreateElement("content").CreateAttr("src", f.Filename)
	}

	doc.Indent(2)
	return xhtml.Serialize(doc)
}
