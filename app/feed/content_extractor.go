package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
)

var (
	spaceRe     = regexp.MustCompile(`[ \t\x{00a0}]+`)
	blankLineRe = regexp.MustCompile(`\n{3,}`)
)

// Article is the readable part of a press-release page.
type Article struct {
	Title string
	Text  string
}

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

func (e *ContentExtractor) Run(data []byte) (*Article, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty")
	}

	title := pageTitle(data)

	article, err := readability.FromReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	var buf strings.Builder
	if err := article.RenderText(&buf); err != nil {
		return nil, fmt.Errorf("failed to render content: %w", err)
	}

	text := normalizeText(buf.String())
	if text == "" {
		return nil, fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", title,
		"content_length", len(text))

	return &Article{Title: title, Text: text}, nil
}

// pageTitle prefers og:title over the document title.
func pageTitle(data []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	og, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	return strings.TrimSpace(cmp.Or(strings.TrimSpace(og), doc.Find("title").First().Text()))
}

// HTMLToText flattens an HTML fragment into paragraphs separated by blank
// lines. Plain text input is returned normalised.
func HTMLToText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if !strings.Contains(fragment, "<") {
		return normalizeText(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return normalizeText(fragment)
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")

	var parts []string
	blocks := doc.Find("p, li, h1, h2, h3, h4, h5, h6, blockquote, pre")
	if blocks.Length() == 0 {
		return normalizeText(doc.Text())
	}
	blocks.Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li").Length() > 0 {
			return
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	return normalizeText(strings.Join(parts, "\n\n"))
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")

	return strings.TrimSpace(blankLineRe.ReplaceAllString(s, "\n\n"))
}
