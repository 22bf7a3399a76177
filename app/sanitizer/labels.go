package sanitizer

import "strings"

var defaultChannelLabels = []string{
	"네이버 블로그", "네이버블로그", "Naver Blog", "NaverBlog", "naver-blog", "블로그", "Blog",
	"카카오톡", "카카오", "카카오 채널", "KakaoTalk", "Kakao",
	"인스타그램", "인스타", "Instagram",
	"링크드인", "LinkedIn", "Linked In",
	"뉴스레터", "Newsletter",
	"보도자료", "Press Release", "PressRelease",
}

const labelBrackets = "[]()【】<>「」"

const labelSeparators = ":：-–—|· "

type labelSet map[string]struct{}

func newLabelSet(labels []string) labelSet {
	set := make(labelSet, len(labels))
	for _, l := range labels {
		if key := labelKey(l); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

func labelKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, labelSeparators)
	s = strings.Trim(s, labelBrackets+" ")
	s = strings.TrimRight(s, labelSeparators)
	return strings.ToLower(strings.TrimSpace(s))
}

// strip removes leading lines that consist only of a channel name.
func (set labelSet) strip(text string) string {
	for {
		first, rest, found := strings.Cut(text, "\n")
		if _, ok := set[labelKey(first)]; !ok || labelKey(first) == "" {
			return text
		}
		if !found {
			return ""
		}
		text = strings.TrimLeft(rest, " \t\n")
	}
}
