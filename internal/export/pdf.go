package export

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jung-kurt/gofpdf"
	"github.com/yuanying/manuscript/internal/book"
	"github.com/yuanying/manuscript/internal/transcode"
	"golang.org/x/net/html"
)

const (
	defaultPageSize = "A4"
	defaultMargin   = 20.0 // mm
	bodyFontSize    = 11.0
	lineHeight      = 6.0 // mm
	utf8Family      = "body"
	coreFamily      = "Helvetica"
	monoFamily      = "Courier"
	coverDPI        = 150.0
)

var headingSizes = map[string]float64{
	"h1": 20, "h2": 16, "h3": 14, "h4": 12, "h5": 11, "h6": 11,
}

// PDFOptions controls PDF layout.
type PDFOptions struct {
	// PageSize is a gofpdf page size name such as "A4", "A5" or "Letter".
	PageSize string
	// Margin is the page margin in millimetres.
	Margin float64
	// FontPath points to a TrueType font used for all text. Without it the
	// core Helvetica font is used, which only covers Latin-1.
	FontPath string
	// CoverQuality is the JPEG quality of the embedded cover.
	CoverQuality int
	// Now stamps the document creation date. Defaults to time.Now.
	Now func() time.Time
}

// PDFFilename returns the download name for the PDF export.
func PDFFilename(meta book.Metadata) string {
	return book.ExportFilename(meta.Title, "pdf")
}

// PDFBundle renders the book as a PDF: a title page followed by each
// chapter starting on a new page. Every call builds its own document.
func PDFBundle(meta book.Metadata, chapters []book.Chapter, opts PDFOptions) ([]byte, error) {
	pdf, err := renderPDF(meta, chapters, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf bundle: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfWriter lays out HTML blocks on a gofpdf document.
type pdfWriter struct {
	pdf    *gofpdf.Fpdf
	family string
	mono   string
	tr     func(string) string
	width  float64 // printable width in mm
	margin float64
}

func renderPDF(meta book.Metadata, chapters []book.Chapter, opts PDFOptions) (*gofpdf.Fpdf, error) {
	size := opts.PageSize
	if size == "" {
		size = defaultPageSize
	}
	margin := opts.Margin
	if margin <= 0 {
		margin = defaultMargin
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	pdf := gofpdf.New("P", "mm", size, "")
	if pdf.Err() {
		return nil, fmt.Errorf("pdf bundle: %w", pdf.Error())
	}
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetCreator(meta.PublisherOrDefault(), true)
	pdf.SetCreationDate(now())

	w := &pdfWriter{pdf: pdf, family: coreFamily, mono: monoFamily, tr: pdf.UnicodeTranslatorFromDescriptor(""), margin: margin}
	if opts.FontPath != "" {
		font, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("pdf bundle: read font: %w", err)
		}
		for _, style := range []string{"", "B", "I", "BI"} {
			pdf.AddUTF8FontFromBytes(utf8Family, style, font)
		}
		w.family = utf8Family
		w.mono = utf8Family
		w.tr = func(s string) string { return s }
	}
	pageW, _ := pdf.GetPageSize()
	w.width = pageW - 2*margin

	if err := w.titlePage(meta, opts.CoverQuality); err != nil {
		return nil, err
	}

	for i, ch := range chapters {
		if err := w.chapter(ch); err != nil {
			return nil, fmt.Errorf("pdf bundle: chapter %d: %w", i+1, err)
		}
	}

	if pdf.Err() {
		return nil, fmt.Errorf("pdf bundle: %w", pdf.Error())
	}
	return pdf, nil
}

func (w *pdfWriter) titlePage(meta book.Metadata, quality int) error {
	pdf := w.pdf
	pdf.AddPage()

	pdf.SetFont(w.family, "B", 24)
	pdf.MultiCell(w.width, 12, w.tr(meta.Title), "", "C", false)
	pdf.Ln(4)
	if meta.Author != "" {
		pdf.SetFont(w.family, "", 14)
		pdf.MultiCell(w.width, 8, w.tr(meta.Author), "", "C", false)
	}
	pdf.SetFont(w.family, "I", 10)
	pdf.MultiCell(w.width, 6, w.tr(meta.PublisherOrDefault()), "", "C", false)
	pdf.Ln(6)

	if !meta.Cover.Valid() {
		return pdf.Error()
	}

	_, pageH := pdf.GetPageSize()
	boxW := w.width
	boxH := pageH - w.margin - pdf.GetY()
	if boxW <= 0 || boxH <= 0 {
		return nil
	}

	fitter := imageFitter{
		MaxWidth:    int(boxW / 25.4 * coverDPI),
		MaxHeight:   int(boxH / 25.4 * coverDPI),
		JPEGQuality: quality,
	}
	img, err := fitter.prepare(meta.Cover.Data)
	if err != nil {
		return fmt.Errorf("pdf bundle: cover: %w", err)
	}

	imgType := "JPG"
	if img.MediaType == "image/png" {
		imgType = "PNG"
	}
	options := gofpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader("cover", options, bytes.NewReader(img.Data))
	if pdf.Err() {
		return fmt.Errorf("pdf bundle: cover: %w", pdf.Error())
	}

	dispW := float64(img.Width) / coverDPI * 25.4
	dispH := float64(img.Height) / coverDPI * 25.4
	if scale := min(boxW/dispW, boxH/dispH); scale < 1 {
		dispW *= scale
		dispH *= scale
	}
	x := w.margin + (boxW-dispW)/2
	pdf.ImageOptions("cover", x, pdf.GetY(), dispW, dispH, false, options, 0, "")
	return pdf.Error()
}

func (w *pdfWriter) chapter(ch book.Chapter) error {
	body, err := transcode.MarkdownToHTML(ch.Content)
	if err != nil {
		return err
	}
	body = transcode.ChapterBody(ch.Title, body)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse chapter html: %w", err)
	}

	w.pdf.AddPage()
	w.pdf.Bookmark(w.tr(ch.Title), 0, -1)
	doc.Find("body").Children().Each(func(_ int, s *goquery.Selection) {
		w.block(s)
	})
	return w.pdf.Error()
}

// block renders one block-level element.
func (w *pdfWriter) block(s *goquery.Selection) {
	pdf := w.pdf
	tag := goquery.NodeName(s)
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		size := headingSizes[tag]
		pdf.Ln(2)
		pdf.SetFont(w.family, "B", size)
		pdf.MultiCell(w.width, size*0.5, w.tr(collapse(s.Text())), "", "L", false)
		pdf.Ln(2)
	case "p":
		w.paragraph(s, 0)
	case "ul", "ol":
		w.list(s, tag == "ol", 0)
	case "pre":
		pdf.SetFont(w.mono, "", 9)
		pdf.SetFillColor(245, 245, 245)
		pdf.MultiCell(w.width, 4.5, w.tr(strings.TrimRight(s.Text(), "\n")), "", "L", true)
		pdf.Ln(2)
	case "blockquote":
		left, top, right, _ := pdf.GetMargins()
		pdf.SetLeftMargin(left + 8)
		w.width -= 8
		pdf.SetX(left + 8)
		s.Children().Each(func(_ int, c *goquery.Selection) { w.block(c) })
		if s.Children().Length() == 0 {
			w.paragraph(s, 0)
		}
		w.width += 8
		pdf.SetMargins(left, top, right)
		pdf.SetX(left)
	case "hr":
		pdf.Ln(2)
		y := pdf.GetY()
		left, _, _, _ := pdf.GetMargins()
		pdf.SetDrawColor(160, 160, 160)
		pdf.Line(left, y, left+w.width, y)
		pdf.Ln(4)
	case "table":
		pdf.SetFont(w.family, "", bodyFontSize-1)
		s.Find("tr").Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th, td").Each(func(_ int, c *goquery.Selection) {
				cells = append(cells, collapse(c.Text()))
			})
			pdf.MultiCell(w.width, lineHeight, w.tr(strings.Join(cells, " | ")), "B", "L", false)
		})
		pdf.Ln(2)
	case "img":
		// Chapter images have no archive to resolve against.
		if alt, ok := s.Attr("alt"); ok && alt != "" {
			pdf.SetFont(w.family, "I", bodyFontSize)
			pdf.MultiCell(w.width, lineHeight, w.tr("["+alt+"]"), "", "C", false)
		}
	default:
		if strings.TrimSpace(s.Text()) != "" {
			w.paragraph(s, 0)
		}
	}
}

func (w *pdfWriter) paragraph(s *goquery.Selection, indent float64) {
	pdf := w.pdf
	left, _, _, _ := pdf.GetMargins()
	pdf.SetX(left + indent)
	pdf.SetFont(w.family, "", bodyFontSize)
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.inline(c, "")
		}
	}
	pdf.Ln(lineHeight)
	pdf.Ln(2)
}

func (w *pdfWriter) list(s *goquery.Selection, ordered bool, depth int) {
	pdf := w.pdf
	indent := 6.0 * float64(depth+1)
	s.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		marker := "-"
		if ordered {
			marker = strconv.Itoa(i+1) + "."
		}
		left, _, _, _ := pdf.GetMargins()
		pdf.SetX(left + indent - 5)
		pdf.SetFont(w.family, "", bodyFontSize)
		pdf.Write(lineHeight, w.tr(marker+" "))
		for _, n := range li.Nodes {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
					continue
				}
				if c.Type == html.ElementNode && c.Data == "p" {
					for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
						w.inline(cc, "")
					}
					continue
				}
				w.inline(c, "")
			}
		}
		pdf.Ln(lineHeight)
		li.ChildrenFiltered("ul, ol").Each(func(_ int, sub *goquery.Selection) {
			w.list(sub, goquery.NodeName(sub) == "ol", depth+1)
		})
	})
	pdf.Ln(2)
}

// inline writes a run of inline content, switching font style for emphasis.
func (w *pdfWriter) inline(n *html.Node, style string) {
	pdf := w.pdf
	switch n.Type {
	case html.TextNode:
		text := collapseInline(n.Data)
		if text == "" {
			return
		}
		if style == "code" {
			pdf.SetFont(w.mono, "", bodyFontSize-1)
		} else {
			pdf.SetFont(w.family, style, bodyFontSize)
		}
		pdf.Write(lineHeight, w.tr(text))
		return
	case html.ElementNode:
	default:
		return
	}

	next := style
	switch n.Data {
	case "br":
		pdf.Ln(lineHeight)
		return
	case "strong", "b":
		next = addStyle(style, "B")
	case "em", "i":
		next = addStyle(style, "I")
	case "code":
		next = "code"
	case "img":
		for _, a := range n.Attr {
			if a.Key == "alt" && a.Val != "" {
				pdf.SetFont(w.family, "I", bodyFontSize)
				pdf.Write(lineHeight, w.tr("["+a.Val+"]"))
			}
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.inline(c, next)
	}
}

func addStyle(style, s string) string {
	if style == "code" || strings.Contains(style, s) {
		return style
	}
	if s == "B" {
		return "B" + style
	}
	return style + s
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// collapseInline folds whitespace runs to single spaces but keeps a leading
// or trailing space so adjacent runs stay separated.
func collapseInline(s string) string {
	if s == "" {
		return ""
	}
	body := collapse(s)
	if body == "" {
		return " "
	}
	if isSpace(s[0]) {
		body = " " + body
	}
	if isSpace(s[len(s)-1]) {
		body += " "
	}
	return body
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
