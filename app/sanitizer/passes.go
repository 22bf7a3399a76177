package sanitizer

import (
	"regexp"
	"strings"
)

const bulletGlyph = "• "

var (
	fencedCodeRe    = regexp.MustCompile("(?ms)^[ \\t]*```[^\\n]*\\n.*?^[ \\t]*```[ \\t]*$")
	strayFenceRe    = regexp.MustCompile("(?m)^[ \\t]*```[^\\n]*$")
	horizontalRe    = regexp.MustCompile(`(?m)^[ \t]*(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	headingRe       = regexp.MustCompile(`(?m)^[ \t]*#{1,6}(?:[ \t]+|$)`)
	blockquoteRe    = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	bulletRe        = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	boldStarRe      = regexp.MustCompile(`\*\*([^\n]+?)\*\*`)
	boldUnderRe     = regexp.MustCompile(`__([^\n]+?)__`)
	italicStarRe    = regexp.MustCompile(`(?m)(^|[^*\p{L}\p{N}])\*([^*\s](?:[^*\n]*[^*\s])?)\*`)
	italicUnderRe   = regexp.MustCompile(`(?m)(^|[^_\p{L}\p{N}])_([^_\s](?:[^_\n]*[^_\s])?)_`)
	strikeRe        = regexp.MustCompile(`~~([^\n]+?)~~`)
	inlineCodeRe    = regexp.MustCompile("`([^`\\n]+)`")
	linkRe          = regexp.MustCompile(`!?\[([^\]\n]*)\]\(([^)\n]*)\)`)
	trailingSpaceRe = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRunRe      = regexp.MustCompile(`\n{4,}`)
	loneMarkupRe    = regexp.MustCompile("(?m)^[ \\t]*(?:\\*{1,2}|_{1,2}|~~|`{1,2}|[-+•])[ \\t]*$")

	sectionLabelRe = regexp.MustCompile(`(?mi)^([ \t]*(?:•[ \t]*)?)[\[【](?:제목|본문|인트로|도입|도입부|소제목|마무리|결론|CTA|해시태그|SEO 키워드|SEO키워드|키워드|태그|이미지 가이드|이미지가이드|캡션|요약|헤드라인|부제|리드|슬라이드|Title|Body|Intro|Hashtags|Caption|Summary|Headline|Keywords)[\]】][ \t]*[:：]?[ \t]*`)
	tagLineRe      = regexp.MustCompile(`(?mi)^[ \t]*[\[【](?:태그|해시태그|tags?|hashtags?)[ \t]*[:：][^\]】\n]*[\]】][ \t]*(?:\n|$)`)
)

// StripMarkdown removes markdown markup while keeping the text it wraps.
func StripMarkdown(text string, keepDividers bool) string {
	s := fencedCodeRe.ReplaceAllString(text, "")
	s = strayFenceRe.ReplaceAllString(s, "")

	divider := ""
	if keepDividers {
		divider = "---"
	}
	s = horizontalRe.ReplaceAllString(s, divider)

	s = headingRe.ReplaceAllString(s, "")
	s = blockquoteRe.ReplaceAllString(s, "")
	s = bulletRe.ReplaceAllString(s, bulletGlyph)
	s = boldStarRe.ReplaceAllString(s, "$1")
	s = boldUnderRe.ReplaceAllString(s, "$1")
	s = italicStarRe.ReplaceAllString(s, "$1$2")
	s = italicUnderRe.ReplaceAllString(s, "$1$2")
	s = strikeRe.ReplaceAllString(s, "$1")
	s = inlineCodeRe.ReplaceAllString(s, "$1")
	s = linkRe.ReplaceAllString(s, "$1")
	s = loneMarkupRe.ReplaceAllString(s, "")

	return NormalizeWhitespace(s)
}

// StripSectionLabels removes bracketed section markers such as [제목] at the
// start of a line, or right after a bullet, and keeps the rest of the line.
func StripSectionLabels(text string) string {
	return sectionLabelRe.ReplaceAllString(text, "$1")
}

// StripTagLines drops bracketed tag-list lines like "[태그: #a #b]".
func StripTagLines(text string) string {
	return tagLineRe.ReplaceAllString(text, "")
}

// NormalizeWhitespace trims trailing spaces, collapses three or more blank
// lines into one and trims the whole text.
func NormalizeWhitespace(text string) string {
	s := trailingSpaceRe.ReplaceAllString(text, "")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
