package transcode

import (
	"strings"
	"testing"
)

func TestMarkdownToHTML(t *testing.T) {
	out, err := MarkdownToHTML("# Intro\n\nSome *text* here.\n\n---\n\n- a\n- b\n")
	if err != nil {
		t.Fatalf("MarkdownToHTML() error = %v", err)
	}
	for _, want := range []string{"<h1>Intro</h1>", "<em>text</em>", "<hr>", "<li>a</li>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownToHTML_Empty(t *testing.T) {
	out, err := MarkdownToHTML("")
	if err != nil {
		t.Fatalf("MarkdownToHTML() error = %v", err)
	}
	if strings.TrimSpace(out) != "" {
		t.Errorf("MarkdownToHTML(\"\") = %q, want empty", out)
	}
}

func TestHTMLToMarkdown(t *testing.T) {
	out, err := HTMLToMarkdown("<h2>Part</h2><p>Hello <strong>world</strong>.</p><ul><li>one</li></ul>")
	if err != nil {
		t.Fatalf("HTMLToMarkdown() error = %v", err)
	}
	for _, want := range []string{"## Part", "Hello **world**.", "- one"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownRoundTrip(t *testing.T) {
	src := "Paragraph one.\n\nParagraph **two**."
	html, err := MarkdownToHTML(src)
	if err != nil {
		t.Fatalf("MarkdownToHTML() error = %v", err)
	}
	back, err := HTMLToMarkdown(html)
	if err != nil {
		t.Fatalf("HTMLToMarkdown() error = %v", err)
	}
	if back != src {
		t.Errorf("round trip = %q, want %q", back, src)
	}
}

func TestFirstBlockElement(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		wantTag  string
		wantText string
		wantOK   bool
	}{
		{"heading first", "<h1> Intro </h1><p>Body</p>", "h1", "Intro", true},
		{"leading whitespace", "\n  <p>Para <em>x</em></p>", "p", "Para x", true},
		{"comment skipped", "<!-- c --><h2>Two</h2>", "h2", "Two", true},
		{"text only", "just text", "", "", false},
		{"empty", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el, ok := FirstBlockElement(tt.fragment)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if el.Tag != tt.wantTag || el.Text != tt.wantText {
				t.Errorf("FirstBlockElement() = %+v, want {%s %s}", el, tt.wantTag, tt.wantText)
			}
		})
	}
}

func TestChapterBody(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		fragment  string
		wantCount int
		wantStart string
	}{
		{"title already present", "Intro", "<h1>Intro</h1>\n<p>Body</p>", 1, "<h1>Intro</h1>"},
		{"h2 title present", "Intro", "<h2>Intro</h2><p>Body</p>", 0, "<h2>Intro</h2>"},
		{"different heading", "Intro", "<h1>Other</h1><p>Body</p>", 1, "<h1>Intro</h1>"},
		{"no heading", "Intro", "<p>Body</p>", 1, "<h1>Intro</h1>"},
		{"empty content", "Intro", "", 1, "<h1>Intro</h1>"},
		{"title escaped", "A & B", "<p>x</p>", 1, "<h1>A &amp; B</h1>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChapterBody(tt.title, tt.fragment)
			if !strings.HasPrefix(got, tt.wantStart) {
				t.Errorf("ChapterBody() = %q, want prefix %q", got, tt.wantStart)
			}
			if n := strings.Count(got, "<h1>"); n != tt.wantCount {
				t.Errorf("ChapterBody() has %d <h1>, want %d: %q", n, tt.wantCount, got)
			}
		})
	}
}

func TestEnsureMarkdownTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		want    string
	}{
		{"present", "Intro", "# Intro\n\nBody", "# Intro\n\nBody"},
		{"present case-insensitive", "Intro", "  # INTRO\nBody", "  # INTRO\nBody"},
		{"missing", "Intro", "Body", "# Intro\n\nBody"},
		{"other heading", "Intro", "## Intro\nBody", "# Intro\n\n## Intro\nBody"},
		{"empty", "Intro", "", "# Intro\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnsureMarkdownTitle(tt.title, tt.content); got != tt.want {
				t.Errorf("EnsureMarkdownTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
