package xhtml

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const xlinkNamespace = "http://www.w3.org/1999/xlink"

// voidElements are written self-closing; every other empty HTML element
// keeps an explicit end tag so HTML parsers reading the XHTML agree on the
// structure.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var foreignNamespaces = map[string]string{
	"svg":  "http://www.w3.org/2000/svg",
	"math": "http://www.w3.org/1998/Math/MathML",
}

// AppendHTML parses fragment the way a browser parses the content of <body>
// and appends the result to parent. Unbalanced tags are closed, entities are
// decoded to characters, and comments are dropped.
func AppendHTML(parent *etree.Element, fragment string) error {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return fmt.Errorf("parse html fragment: %w", err)
	}
	for _, n := range nodes {
		appendNode(parent, n, "")
	}
	return nil
}

func appendNode(parent *etree.Element, n *html.Node, parentNS string) {
	switch n.Type {
	case html.TextNode:
		parent.CreateText(n.Data)
	case html.ElementNode:
		if !isXMLName(n.Data) || strings.Contains(n.Data, ":") {
			// Keep the content of tags whose names XML cannot express.
			appendChildren(parent, n, parentNS)
			return
		}
		el := parent.CreateElement(n.Data)
		if uri, ok := foreignNamespaces[n.Namespace]; ok && n.Namespace != parentNS {
			el.CreateAttr("xmlns", uri)
			if n.Namespace == "svg" {
				el.CreateAttr("xmlns:xlink", xlinkNamespace)
			}
		}
		for _, a := range n.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			} else if strings.Contains(key, ":") {
				continue
			}
			if key == "xmlns" || strings.HasPrefix(key, "xmlns:") || !isXMLName(key) {
				continue
			}
			el.CreateAttr(key, a.Val)
		}
		appendChildren(el, n, n.Namespace)
		if len(el.Child) == 0 && n.Namespace == "" && !voidElements[n.Data] {
			el.CreateText("")
		}
	}
}

func appendChildren(parent *etree.Element, n *html.Node, ns string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendNode(parent, c, ns)
	}
}

// isXMLName reports whether s is a valid XML name with at most one prefix.
func isXMLName(s string) bool {
	if s == "" || strings.Count(s, ":") > 1 || strings.HasPrefix(s, ":") || strings.HasSuffix(s, ":") {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == ':' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}
