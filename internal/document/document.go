// Package document wraps raw HTML in a queryable goquery tree and pulls the
// page's resource lists out of it.
package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/raysh454/sitelens/internal/utils"
)

// ErrEmptyDocument is returned when there is no response body to parse.
var ErrEmptyDocument = errors.New("empty document")

// Document is a parsed page. It is owned by a single scan and must not be
// shared between concurrent scans.
type Document struct {
	// HTML is the raw markup as received.
	HTML string
	// Lower is HTML lower-cased once for substring signature matching.
	Lower string

	Base *utils.URLTools
	Doc  *goquery.Document

	bodyText *string
}

// Parse builds a Document from html, resolving relative references against
// base. Malformed markup is tolerated; only an empty body is an error.
func Parse(html, base string) (*Document, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrEmptyDocument
	}
	b, err := utils.NewURLTools(base)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{
		HTML:  html,
		Lower: strings.ToLower(html),
		Base:  b,
		Doc:   doc,
	}, nil
}

// Find runs a CSS selector over the whole document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.Doc.Find(selector)
}

// Count returns how many elements match selector.
func (d *Document) Count(selector string) int {
	return d.Doc.Find(selector).Length()
}

// Attr returns the attribute of the first element matching selector.
func (d *Document) Attr(selector, attr string) (string, bool) {
	return d.Doc.Find(selector).First().Attr(attr)
}

// MetaContent returns the content of the first meta tag matching selector,
// trimmed.
func (d *Document) MetaContent(selector string) string {
	v, _ := d.Attr(selector, "content")
	return strings.TrimSpace(v)
}

// Title returns the trimmed <title> text.
func (d *Document) Title() string {
	return strings.TrimSpace(d.Doc.Find("title").First().Text())
}

// Lang returns the <html lang> attribute, or "".
func (d *Document) Lang() string {
	v, _ := d.Attr("html", "lang")
	return strings.TrimSpace(v)
}

// BodyText returns the visible text of <body> with script and style content
// removed. The result is computed once.
func (d *Document) BodyText() string {
	if d.bodyText != nil {
		return *d.bodyText
	}
	var b strings.Builder
	for _, n := range d.Doc.Find("body").Nodes {
		writeText(&b, n)
	}
	text := b.String()
	d.bodyText = &text
	return text
}

// hiddenElements never contribute visible text.
var hiddenElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
}

// blockElements break words at their boundaries.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "option": true, "p": true, "pre": true, "section": true,
	"table": true, "td": true, "th": true, "tr": true, "ul": true,
}

// writeText appends the text under n, separating block elements with a
// space so adjacent paragraphs do not run together.
func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if hiddenElements[n.Data] {
			return
		}
	}
	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte(' ')
	}
}

// Words splits the visible body text on whitespace.
func (d *Document) Words() []string {
	return strings.Fields(d.BodyText())
}

// InlineScripts returns the bodies of <script> elements without a src.
func (d *Document) InlineScripts() []string {
	var out []string
	d.Doc.Find("script:not([src])").Each(func(_ int, s *goquery.Selection) {
		if body := strings.TrimSpace(s.Text()); body != "" {
			out = append(out, body)
		}
	})
	return out
}

// Resolve resolves ref against the document base.
func (d *Document) Resolve(ref string) (string, error) {
	return d.Base.Resolve(ref)
}
