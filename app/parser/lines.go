package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const maxTitleRunes = 60

var (
	imagePlaceholderRe = regexp.MustCompile(`\[(?i:IMAGE|이미지)[ \t]*[:：][ \t]*([^\]\n]+)\]`)
	slideMarkerRe      = regexp.MustCompile(`(?i)^[ \t]*[\[(]?(?:슬라이드|slide)[ \t]*(\d+)[\])]?[ \t]*[:：.)\-]?[ \t]*(.*)$`)
	blankRunRe         = regexp.MustCompile(`\n{3,}`)
)

var (
	titleLabels      = []string{"제목", "title", "subject"}
	subtitleLabels   = []string{"부제", "subtitle"}
	preheaderLabels  = []string{"프리헤더", "미리보기 문구", "preheader"}
	tagLabels        = []string{"해시태그", "태그", "hashtags", "tags"}
	seoLabels        = []string{"SEO 키워드", "SEO키워드", "SEO keywords", "키워드", "keywords"}
	imageGuideLabels = []string{"이미지 가이드", "이미지가이드", "image guide", "이미지"}
	captionLabels    = []string{"캡션", "caption"}
)

// CharCount is the rune count of the NFC-normalised text, the length a
// reader sees once the text is rendered.
func CharCount(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// cleanBody joins lines, collapses runs of blank lines and trims.
func cleanBody(lines []string) string {
	joined := strings.Join(lines, "\n")
	joined = blankRunRe.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}

func joinParagraphs(parts []string) string {
	return strings.Join(parts, "\n\n")
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// hashtagLine reports whether every token on the line is a hashtag and
// returns the tags without their leading '#'.
func hashtagLine(line string) ([]string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false
	}

	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		tag := strings.TrimLeft(f, "#")
		if !strings.HasPrefix(f, "#") || tag == "" {
			return nil, false
		}
		tags = append(tags, tag)
	}
	return tags, true
}

// labeledValue matches "label: value" lines, case-insensitively, with an
// ASCII or full-width colon.
func labeledValue(line string, labels ...string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, label := range labels {
		if len(trimmed) < len(label) || !strings.EqualFold(trimmed[:len(label)], label) {
			continue
		}
		rest := strings.TrimSpace(trimmed[len(label):])
		for _, colon := range []string{":", "："} {
			if strings.HasPrefix(rest, colon) {
				return strings.TrimSpace(strings.TrimPrefix(rest, colon)), true
			}
		}
	}
	return "", false
}

// splitList splits a keyword list on commas, or on whitespace when no comma
// is present.
func splitList(s string) []string {
	var parts []string
	if strings.ContainsAny(s, ",、") {
		parts = strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '、' })
	} else {
		parts = strings.Fields(s)
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(p), "#")); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func hasContentAfter(lines []string, i int) bool {
	for _, l := range lines[i+1:] {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

// looksLikeTitle treats a short leading line that is not a sentence as a title.
func looksLikeTitle(line string, hasMore bool) bool {
	line = strings.TrimSpace(line)
	if line == "" || !hasMore {
		return false
	}
	if utf8.RuneCountInString(line) > maxTitleRunes {
		return false
	}
	if strings.HasPrefix(line, "•") || strings.HasPrefix(line, "#") || imagePlaceholderRe.MatchString(line) {
		return false
	}
	return !strings.HasSuffix(line, ".") && !strings.HasSuffix(line, "。")
}

// cutDivider splits text at the first line consisting only of "---".
func cutDivider(text string) (before, after string, found bool) {
	lines := splitLines(text)
	for i, l := range lines {
		if strings.TrimSpace(l) == "---" {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return text, "", false
}

// splitHashtags separates hashtag lines from body lines.
func splitHashtags(text string) (string, []string) {
	var body []string
	var tags []string
	for _, line := range splitLines(text) {
		if t, ok := hashtagLine(line); ok {
			tags = append(tags, t...)
			continue
		}
		if v, ok := labeledValue(line, tagLabels...); ok {
			tags = append(tags, splitList(v)...)
			continue
		}
		body = append(body, line)
	}
	return cleanBody(body), tags
}

func stripPlaceholders(text string) string {
	stripped := imagePlaceholderRe.ReplaceAllString(text, "")
	return cleanBody(splitLines(stripped))
}
