package epub

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuanying/manuscript/internal/transcode"
)

// chapterContent is the title and Markdown recovered from one XHTML file.
type chapterContent struct {
	Title    string
	Markdown string
}

// loadChapter parses an XHTML content document. The first h1 or h2 in the
// body becomes the title and is removed from the body so the Markdown does
// not repeat it. position is the 0-based spine index, used to synthesize a
// title when the document has no heading.
func loadChapter(data []byte, position int) (*chapterContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}

	title := ""
	heading := body.Find("h1, h2").First()
	if heading.Length() > 0 {
		title = strings.TrimSpace(heading.Text())
		if title != "" {
			heading.Remove()
		}
	}
	if title == "" {
		title = fmt.Sprintf("Chapter %d", position+1)
	}

	inner, err := body.Html()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	markdown, err := transcode.HTMLToMarkdown(inner)
	if err != nil {
		return nil, err
	}

	return &chapterContent{Title: title, Markdown: markdown}, nil
}
