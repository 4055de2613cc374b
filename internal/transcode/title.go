package transcode

import (
	"strings"

	"github.com/yuanying/manuscript/internal/xhtml"
)

// ChapterBody returns the chapter HTML with its title heading. When the
// fragment already opens with a heading whose text equals the title the
// fragment is returned unchanged; otherwise an <h1> with the title is
// prepended so the title is rendered exactly once.
func ChapterBody(title, fragment string) string {
	if el, ok := FirstBlockElement(fragment); ok && IsHeading(el.Tag) && el.Text == strings.TrimSpace(title) {
		return fragment
	}
	return "<h1>" + xhtml.Escape(title) + "</h1>\n" + fragment
}

// EnsureMarkdownTitle is the Markdown counterpart of ChapterBody: content
// that already starts with "# <title>" (case-insensitive) is left alone,
// anything else gets a "# <title>" line prepended.
func EnsureMarkdownTitle(title, content string) string {
	heading := "# " + title
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(strings.ToLower(trimmed), strings.ToLower(heading)) {
		return content
	}
	if trimmed == "" {
		return heading + "\n"
	}
	return heading + "\n\n" + content
}
