package transcode

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is the tag name and trimmed text of an HTML element.
type Element struct {
	Tag  string
	Text string
}

// FirstBlockElement parses fragment and returns its first top-level element.
// Top-level text and comments are skipped. It keeps no state between calls.
func FirstBlockElement(fragment string) (Element, bool) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return Element{}, false
	}

	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		return Element{Tag: n.Data, Text: strings.TrimSpace(textContent(n))}, true
	}
	return Element{}, false
}

// IsHeading reports whether tag is h1 through h6.
func IsHeading(tag string) bool {
	switch strings.ToLower(tag) {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
