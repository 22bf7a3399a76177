package review

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/catalog"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/sanitizer"
)

var (
	factTokenRe = regexp.MustCompile(`\d[\d,.]*(?:%|[가-힣]|[A-Za-z]{1,3})?`)
	sentenceRe  = regexp.MustCompile(`[^.!?。]+[.!?。]*\s*`)
)

// FactTokens extracts the numeric and date tokens of a confirmed value,
// e.g. "3년 계약, 연 300대 규모" yields ["3년", "300대"].
func FactTokens(value string) []string {
	var tokens []string
	for _, m := range factTokenRe.FindAllString(value, -1) {
		m = strings.TrimRight(m, ".,")
		if m != "" {
			tokens = append(tokens, m)
		}
	}
	return tokens
}

func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// tokenPattern matches token as a whole number: "3년" does not match inside
// "2023년" and "300" does not match inside "3000".
func tokenPattern(token string) *regexp.Regexp {
	expr := `(?:^|[^\d.,])` + regexp.QuoteMeta(token)
	if last := token[len(token)-1]; last >= '0' && last <= '9' {
		expr += `(?:$|[^\d])`
	}
	return regexp.MustCompile(expr)
}

// MissingFacts returns, per confirmed key, the tokens absent from text.
// Spacing differences are ignored.
func MissingFacts(text string, confirmed map[string]string) map[string][]string {
	haystack := compact(text)
	missing := make(map[string][]string)
	for key, value := range confirmed {
		for _, token := range FactTokens(value) {
			if !tokenPattern(compact(token)).MatchString(haystack) {
				missing[key] = append(missing[key], token)
			}
		}
	}
	return missing
}

// CheckFacts raises a critical fact_omission issue for every confirmed
// numeric or date token missing from text.
func CheckFacts(text string, confirmed map[string]string, label func(string) string) []Issue {
	missing := MissingFacts(text, confirmed)

	var issues []Issue
	for _, key := range sortedKeys(missing) {
		for _, token := range missing[key] {
			issues = append(issues, Issue{
				Severity: SeverityCritical,
				Category: CategoryFactOmission,
				Message:  fmt.Sprintf("확정 정보 '%s'의 '%s'가 본문에 없습니다", label(key), token),
				Quote:    confirmed[key],
				Section:  "본문",
			})
		}
	}
	return issues
}

// CheckForbidden raises a red forbidden_term issue for every configured
// term present in text.
func CheckForbidden(text string, terms []catalog.ForbiddenTerm) []Issue {
	var issues []Issue
	for _, term := range terms {
		if !strings.Contains(text, term.Term) {
			continue
		}
		msg := fmt.Sprintf("금지 표현 '%s'을(를) 사용했습니다", term.Term)
		if term.Replacement != "" {
			msg += fmt.Sprintf(" ('%s'(으)로 대체)", term.Replacement)
		}
		issues = append(issues, Issue{
			Severity: SeverityRed,
			Category: CategoryForbiddenTerm,
			Message:  msg,
			Quote:    sentenceContaining(text, term.Term),
			Section:  "본문",
		})
	}
	return issues
}

// ReplaceForbidden rewrites forbidden terms with their safe phrasing and
// drops the sentence when no phrasing is defined.
func ReplaceForbidden(text string, terms []catalog.ForbiddenTerm) string {
	ordered := make([]catalog.ForbiddenTerm, len(terms))
	copy(ordered, terms)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Term) > len(ordered[j].Term)
	})

	changed := false
	for _, term := range ordered {
		if !strings.Contains(text, term.Term) {
			continue
		}
		changed = true
		if term.Replacement != "" {
			text = strings.ReplaceAll(text, term.Term, term.Replacement)
			continue
		}
		text = dropSentences(text, term.Term)
	}

	if !changed {
		return text
	}
	return sanitizer.NormalizeWhitespace(text)
}

// RestoreFacts appends every confirmed value that still has missing tokens
// as a "label: value" line, ahead of a "---" divider when there is one.
func RestoreFacts(text string, confirmed map[string]string, label func(string) string) string {
	missing := MissingFacts(text, confirmed)
	if len(missing) == 0 {
		return text
	}

	lines := make([]string, 0, len(missing))
	for _, key := range sortedKeys(missing) {
		lines = append(lines, fmt.Sprintf("%s: %s", label(key), strings.TrimSpace(confirmed[key])))
	}
	block := strings.Join(lines, "\n")

	parts := strings.Split(text, "\n")
	for i, l := range parts {
		if strings.TrimSpace(l) == "---" {
			before := strings.TrimRight(strings.Join(parts[:i], "\n"), "\n ")
			after := strings.Join(parts[i:], "\n")
			return before + "\n\n" + block + "\n\n" + after
		}
	}

	return strings.TrimRight(text, "\n ") + "\n\n" + block
}

func dropSentences(text, term string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.Contains(line, term) {
			continue
		}
		var kept []string
		for _, s := range sentenceRe.FindAllString(line, -1) {
			if !strings.Contains(s, term) {
				kept = append(kept, s)
			}
		}
		lines[i] = strings.TrimSpace(strings.Join(kept, ""))
	}
	return strings.Join(lines, "\n")
}

func sentenceContaining(text, term string) string {
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, term) {
			continue
		}
		for _, s := range sentenceRe.FindAllString(line, -1) {
			if strings.Contains(s, term) {
				return strings.TrimSpace(s)
			}
		}
		return strings.TrimSpace(line)
	}
	return term
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
