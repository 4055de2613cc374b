package xhtml

import (
	"fmt"

	"github.com/beevik/etree"
)

const (
	// Namespace is the XHTML namespace URI.
	Namespace = "http://www.w3.org/1999/xhtml"

	xhtml11Doctype = `DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd"`
)

// NewDocument returns an empty document that starts with the UTF-8 XML
// declaration.
func NewDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	return doc
}

// Serialize writes doc out as bytes.
func Serialize(doc *etree.Document) ([]byte, error) {
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize xml: %w", err)
	}
	return data, nil
}

// Document wraps an HTML body fragment in a minimal XHTML 1.1 document that
// links the given stylesheet. The fragment is parsed as HTML and re-emitted
// as XML, so stray or unbalanced tags never make the result malformed.
func Document(title, lang, stylesheet, body string) ([]byte, error) {
	doc := NewDocument()
	doc.CreateText("\n")
	doc.CreateDirective(xhtml11Doctype)
	doc.CreateText("\n")

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", Namespace)
	html.CreateAttr("xml:lang", lang)
	html.CreateText("\n")

	head := html.CreateElement("head")
	head.CreateText("\n")
	meta := head.CreateElement("meta")
	meta.CreateAttr("http-equiv", "Content-Type")
	meta.CreateAttr("content", "application/xhtml+xml; charset=utf-8")
	head.CreateText("\n")
	titleElem := head.CreateElement("title")
	titleElem.CreateText(title)
	head.CreateText("\n")
	if stylesheet != "" {
		link := head.CreateElement("link")
		link.CreateAttr("rel", "stylesheet")
		link.CreateAttr("type", "text/css")
		link.CreateAttr("href", stylesheet)
		head.CreateText("\n")
	}
	html.CreateText("\n")

	bodyElem := html.CreateElement("body")
	bodyElem.CreateText("\n")
	if err := AppendHTML(bodyElem, body); err != nil {
		return nil, err
	}
	html.CreateText("\n")
	doc.CreateText("\n")

	return Serialize(doc)
}
