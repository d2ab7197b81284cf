package cleaner

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/cfscrape/models"
	"golang.org/x/net/html"
)

// Cleaner turns extracted Codeforces statement HTML into Markdown.
//
// Two stages:
//
//	Stage 1 (normalize): map raw $$$ delimiters, undo MathJax rendering,
//	                     promote section titles to
//	                     headings, flatten sample-test line wrappers
//	Stage 2 (markdown):  html-to-markdown v2 conversion
//
// The converter is created once and reused across all requests (goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
	domain      string
}

// NewCleaner initialises the Cleaner. domain resolves relative links and
// images, e.g. "https://codeforces.com".
func NewCleaner(domain string) *Cleaner {
	return &Cleaner{
		mdConverter: newMarkdownConverter(),
		domain:      strings.TrimSuffix(domain, "/"),
	}
}

// StatementMarkdown converts the inner HTML of a .problem-statement
// element to Markdown with $-delimited TeX.
func (c *Cleaner) StatementMarkdown(statementHTML string) (string, error) {
	normalized, err := normalizeStatement(statementHTML)
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeInternal, "failed to parse statement HTML", err)
	}

	md, err := ToMarkdown(c.mdConverter, normalized, c.domain)
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeInternal, "markdown conversion failed", err)
	}
	return strings.TrimSpace(md), nil
}

// mathJaxOutput matches the visual output MathJax injects next to each
// source <script type="math/tex">.
const mathJaxOutput = ".MathJax_Preview, .MathJax, .MathJax_Display, .MathJax_CHTML, .MathJax_SVG, .MJX_Assistive_MathML"

// normalizeStatement rewrites Codeforces-specific markup into plain HTML
// that converts cleanly.
func normalizeStatement(statementHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(statementHTML))
	if err != nil {
		return "", err
	}

	doc.Find(mathJaxOutput).Remove()
	doc.Find(".input-output-copier").Remove()

	// Must run before the scripts below are turned into $-delimited text,
	// otherwise adjacent formulas like $$x$$$y$ get merged.
	rewriteRawMath(doc)

	// MathJax keeps the TeX source in script tags; restore it as text.
	doc.Find(`script[type^="math/tex"]`).Each(func(_ int, s *goquery.Selection) {
		delim := "$"
		if strings.Contains(s.AttrOr("type", ""), "mode=display") {
			delim = "$$"
		}
		s.ReplaceWithHtml(html.EscapeString(delim + s.Text() + delim))
	})

	doc.Find(".header .title").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml("<h2>" + html.EscapeString(s.Text()) + "</h2>")
	})
	doc.Find(".header .property-title").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml("<strong>" + html.EscapeString(s.Text()) + ":</strong> ")
	})
	doc.Find(".section-title").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml("<h3>" + html.EscapeString(s.Text()) + "</h3>")
	})

	// Newer sample tests wrap every line in its own div inside <pre>.
	doc.Find("pre .test-example-line").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml(html.EscapeString(s.Text()) + "\n")
	})

	return doc.Find("body").Html()
}

// rawMathDelimiters maps Codeforces' $$$inline$$$ and $$$$$$display$$$$$$
// source delimiters, which survive when MathJax never ran, to the usual
// Markdown ones.
var rawMathDelimiters = strings.NewReplacer("$$$$$$", "$$", "$$$", "$")

// rewriteRawMath applies rawMathDelimiters to every text node outside
// script and style elements.
func rewriteRawMath(doc *goquery.Document) {
	doc.Find("*").Not("script, style").Contents().Each(func(_ int, s *goquery.Selection) {
		if n := s.Get(0); n.Type == html.TextNode {
			n.Data = rawMathDelimiters.Replace(n.Data)
		}
	})
}
