package xhtml

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/beevik/etree"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"a & b", "a &amp; b"},
		{`<tag attr="v">'x'</tag>`, "&lt;tag attr=&quot;v&quot;&gt;&apos;x&apos;&lt;/tag&gt;"},
		{"&amp;", "&amp;amp;"},
		{"日本語", "日本語"},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeMatchesSerializedText(t *testing.T) {
	in := `Tom & "Jerry" <b>'s</b>`
	doc := etree.NewDocument()
	doc.CreateElement("r").SetText(in)
	out, err := Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if want := "<r>" + Escape(in) + "</r>"; string(out) != want {
		t.Errorf("serialized = %s, want %s", out, want)
	}
}

func appendHTMLString(t *testing.T, fragment string) string {
	t.Helper()
	doc := etree.NewDocument()
	root := doc.CreateElement("body")
	if err := AppendHTML(root, fragment); err != nil {
		t.Fatalf("AppendHTML(%q) error = %v", fragment, err)
	}
	out, err := Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	s := string(out)
	assertWellFormed(t, out)
	return strings.TrimSuffix(strings.TrimPrefix(s, "<body>"), "</body>")
}

func TestAppendHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"hr", "<p>a</p><hr><p>b</p>", "<p>a</p><hr/><p>b</p>"},
		{"br", "line<br>next<BR >", "line<br/>next<br/>"},
		{"img attrs", `<img src="a.png" alt="A">`, `<img src="a.png" alt="A"/>`},
		{"already closed", `<img src="a.png" /><br/>`, `<img src="a.png"/><br/>`},
		{"input from task list", `<input checked="" disabled="" type="checkbox">`, `<input checked="" disabled="" type="checkbox"/>`},
		{"unclosed span", "<p>x <span>y</p>", "<p>x <span>y</span></p>"},
		{"empty element keeps end tag", "<p></p><table><tbody><tr><td></td></tr></tbody></table>", "<p></p><table><tbody><tr><td></td></tr></tbody></table>"},
		{"entities become characters", "<p>a&nbsp;b &mdash; &amp; &lt;</p>", "<p>a\u00a0b \u2014 &amp; &lt;</p>"},
		{"comment dropped", "<p>a<!-- -- x -->b</p>", "<p>ab</p>"},
		{"stray end tag", "<p>a</div>b</p>", "<p>ab</p>"},
		{"prefixed attribute dropped", `<p foo:bar="1" class="c">x</p>`, `<p class="c">x</p>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := appendHTMLString(t, tt.in); got != tt.want {
				t.Errorf("AppendHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAppendHTML_UnknownTagsStayWellFormed(t *testing.T) {
	for _, in := range []string{
		"<p>Use List<String> here</p>",
		"<p>Map<K, V> and a<b</p>",
		"x <span>y",
		"<p>a<foo:bar>b</foo:bar></p>",
	} {
		appendHTMLString(t, in)
	}
}

func TestAppendHTML_SVG(t *testing.T) {
	got := appendHTMLString(t, `<svg viewBox="0 0 1 1"><image xlink:href="a.png"></image></svg>`)
	for _, want := range []string{
		`xmlns="http://www.w3.org/2000/svg"`,
		`xmlns:xlink="http://www.w3.org/1999/xlink"`,
		`viewBox="0 0 1 1"`,
		`xlink:href="a.png"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("svg output missing %s: %s", want, got)
		}
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument()
	root := doc.CreateElement("root")
	root.CreateAttr("b", "2")
	root.CreateAttr("a", `1"`)
	out, err := Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	want := `<?xml version="1.0" encoding="UTF-8"?><root b="2" a="1&quot;"/>`
	if string(out) != want {
		t.Errorf("Serialize() = %s, want %s", out, want)
	}
}

func TestDocument(t *testing.T) {
	doc, err := Document(`Tom & "Jerry"`, "en", "style.css", "<h1>Tom</h1><p>x<br>y</p>")
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	s := string(doc)

	if !strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`+"\n<!DOCTYPE html PUBLIC") {
		t.Errorf("declaration or doctype missing:\n%s", s)
	}
	for _, want := range []string{
		"<title>Tom &amp; &quot;Jerry&quot;</title>",
		`<link rel="stylesheet" type="text/css" href="style.css"/>`,
		`<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en">`,
		"<h1>Tom</h1><p>x<br/>y</p>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("document missing %s:\n%s", want, s)
		}
	}
	assertWellFormed(t, doc)
}

func TestDocument_EmptyTitle(t *testing.T) {
	doc, err := Document("", "ja", "", "")
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	s := string(doc)
	if !strings.Contains(s, "<title></title>") {
		t.Errorf("empty title should keep an end tag:\n%s", s)
	}
	if strings.Contains(s, "<link") {
		t.Errorf("stylesheet link written without a stylesheet:\n%s", s)
	}
	assertWellFormed(t, doc)
}

func assertWellFormed(t *testing.T, data []byte) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(string(data)))
	dec.Strict = true
	for {
		_, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			t.Fatalf("not well-formed XML: %v\n%s", err, data)
		}
	}
}
