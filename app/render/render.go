// Package render turns sanitized channel text into HTML for html-shape
// channels such as the newsletter and press release.
package render

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	bulletRe      = regexp.MustCompile(`(?m)^[ \t]*•[ \t]*`)
	placeholderRe = regexp.MustCompile(`(?m)^[ \t]*\[(?:IMAGE|이미지)\s*[:：]\s*([^\]]*)\][ \t]*$`)
	mdSpecialRe   = regexp.MustCompile("([\\\\`*_<>])")
)

type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^image-slot$`)).OnElements("figure")

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithUnsafe()),
		),
		policy: p,
	}
}

// HTML renders plain channel text. Blank lines separate paragraphs,
// "• " lines become list items and image placeholders become figure slots.
func (r *Renderer) HTML(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	src := mdSpecialRe.ReplaceAllString(text, `\$1`)
	src = bulletRe.ReplaceAllString(src, "- ")
	src = placeholderRe.ReplaceAllStringFunc(src, func(m string) string {
		desc := strings.TrimSpace(placeholderRe.FindStringSubmatch(m)[1])
		return "\n\n" + fmt.Sprintf(`<figure class="image-slot">%s</figure>`, html.EscapeString(desc)) + "\n\n"
	})

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render html: %w", err)
	}

	return strings.TrimSpace(r.policy.Sanitize(buf.String())), nil
}

// Page renders a titled document, with an optional preheader line.
func (r *Renderer) Page(title, preheader, body string) (string, error) {
	content, err := r.HTML(body)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString("<h1>" + html.EscapeString(title) + "</h1>\n")
	}
	if preheader != "" {
		sb.WriteString("<p><em>" + html.EscapeString(preheader) + "</em></p>\n")
	}
	sb.WriteString(content)
	return sb.String(), nil
}
