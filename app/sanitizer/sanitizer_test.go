package sanitizer

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSanitize_BoldKeepsKoreanText(t *testing.T) {
	got := Sanitize("**브릿츠메디**가 태국에 진출")
	if got != "브릿츠메디가 태국에 진출" {
		t.Errorf("Expected '브릿츠메디가 태국에 진출', got '%s'", got)
	}
}

func TestSanitize_TagLineRemoved(t *testing.T) {
	body := "브릿츠메디가 태국 시장에 진출했습니다.\n현지 파트너와 3년 계약을 체결했습니다."
	input := body + "\n\n[태그: #브릿츠메디 #토르RF #태국 #피부과]"

	got := Sanitize(input)

	if strings.Contains(got, "#브릿츠메디") {
		t.Errorf("Expected hashtag to be removed, got '%s'", got)
	}
	if strings.Contains(got, "[태그") {
		t.Errorf("Expected tag marker to be removed, got '%s'", got)
	}
	if got != body {
		t.Errorf("Expected body lines unchanged, got '%s'", got)
	}
}

func TestSanitize_ChannelLabelFirstLine(t *testing.T) {
	got := Sanitize("LinkedIn\n본문...")
	if !strings.HasPrefix(got, "본문...") {
		t.Errorf("Expected output to start with '본문...', got '%s'", got)
	}
}

func TestSanitize_EmptyAndMarkupOnly(t *testing.T) {
	inputs := []string{"", "   \n\n ", "```\ncode\n```", "---", "# ", "**LinkedIn**", "**", "**\n\n__", "- "}
	for _, in := range inputs {
		if got := Sanitize(in); got != "" {
			t.Errorf("Sanitize(%q) = %q, expected empty string", in, got)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	samples := []string{
		"**브릿츠메디**가 태국에 진출",
		"## LinkedIn\n\n**토르RF** 글로벌 확장\n\n- 첫째\n- 둘째\n\n#브릿츠메디 #토르RF",
		"[제목] [본문] 리프테라 출시\n\n\n\n\n본문 내용\n[태그: #a #b]",
		"카카오톡:\n\n📢 *신제품* 소식!\n[IMAGE: 제품 사진]\n> 인용\n`code`",
		"***\n___\n본문 ****중첩**** 강조\r\n끝",
		"[Instagram]\n캡션입니다 [링크](https://example.com)\n\n#태그1 #태그2",
		"snake_case_name and 2*3*4",
	}
	for _, s := range samples {
		once := Sanitize(s)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q\nonce:  %q\ntwice: %q", s, once, twice)
		}
	}

	divided := New(WithDividers())
	for _, s := range samples {
		once := divided.Sanitize(s)
		if twice := divided.Sanitize(once); once != twice {
			t.Errorf("Divider sanitizer not idempotent for %q\nonce:  %q\ntwice: %q", s, once, twice)
		}
	}
}

func TestSanitize_ImagePlaceholderKept(t *testing.T) {
	input := "도입 문단\n\n[IMAGE: 토르RF 시술 장면]\n\n본문 문단"
	if got := Sanitize(input); got != input {
		t.Errorf("Expected image placeholder to survive, got '%s'", got)
	}
}

func TestSanitizer_PassOrder(t *testing.T) {
	want := []string{"markdown", "channel-label", "section-label", "tag-line", "whitespace"}
	if diff := cmp.Diff(want, New().PassNames()); diff != "" {
		t.Errorf("Pass order mismatch (-want +got):\n%s", diff)
	}
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		dividers bool
		want     string
	}{
		{"heading", "# 제목\n\n본문", false, "제목\n\n본문"},
		{"deep heading", "###### 소제목", false, "소제목"},
		{"bullets", "- 첫째\n* 둘째\n+ 셋째", false, "• 첫째\n• 둘째\n• 셋째"},
		{"fenced code", "```go\nfmt.Println()\n```\n본문", false, "본문"},
		{"inline code", "`code` 사용", false, "code 사용"},
		{"link", "[브릿츠메디](https://britzmedi.com) 방문", false, "브릿츠메디 방문"},
		{"image link", "![로고](logo.png) 설명", false, "로고 설명"},
		{"blockquote", "> 인용문", false, "인용문"},
		{"bold underscore", "__강조__ 문장", false, "강조 문장"},
		{"italic star", "*강조* 문장", false, "강조 문장"},
		{"italic underscore", "_기울임_ 표현", false, "기울임 표현"},
		{"strikethrough", "~~취소~~ 완료", false, "취소 완료"},
		{"snake case kept", "snake_case_name", false, "snake_case_name"},
		{"arithmetic kept", "2*3*4", false, "2*3*4"},
		{"hashtags kept", "#브릿츠메디 #토르RF", false, "#브릿츠메디 #토르RF"},
		{"rule removed", "본문\n\n---\n\n끝", false, "본문\n\n끝"},
		{"rule kept as divider", "본문\n\n***\n\n끝", true, "본문\n\n---\n\n끝"},
		{"blank lines collapsed", "a\n\n\n\n\nb", false, "a\n\nb"},
		{"trimmed", "  \n본문\n  ", false, "본문"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdown(tt.input, tt.dividers); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestChannelLabelPass(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bracketed", "[LinkedIn]\n본문", "본문"},
		{"korean with colon", "링크드인:\n본문", "본문"},
		{"trailing dash", "네이버 블로그 -\n제목", "제목"},
		{"case insensitive", "INSTAGRAM\n캡션", "캡션"},
		{"repeated labels", "instagram\n\nKakao\n캡션", "캡션"},
		{"label inside sentence", "LinkedIn 마케팅 전략\n본문", "LinkedIn 마케팅 전략\n본문"},
		{"label only", "LinkedIn", ""},
		{"label not on first line", "본문\nLinkedIn", "본문\nLinkedIn"},
	}

	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSanitizer_WithLabels(t *testing.T) {
	input := "브릿츠 뉴스\n이번 달 소식"

	if got := Sanitize(input); got != input {
		t.Errorf("Expected unknown label to be kept, got %q", got)
	}
	if got := New(WithLabels("브릿츠 뉴스")).Sanitize(input); got != "이번 달 소식" {
		t.Errorf("Expected custom label to be stripped, got %q", got)
	}
}

func TestStripSectionLabels(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"title", "[제목] 브릿츠메디 태국 진출", "브릿츠메디 태국 진출"},
		{"cta with colon", "[CTA]: 지금 문의하세요", "지금 문의하세요"},
		{"seo keywords", "[SEO 키워드] 리프팅, 고주파", "리프팅, 고주파"},
		{"english", "[Intro] Hello", "Hello"},
		{"mid line kept", "본문 중 [제목] 표현", "본문 중 [제목] 표현"},
		{"placeholder kept", "[IMAGE: 시술 장면]", "[IMAGE: 시술 장면]"},
		{"after bullet", "• [제목] 브릿츠메디", "• 브릿츠메디"},
		{"after indented bullet", "  •[소제목]: 핵심 포인트", "  •핵심 포인트"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripSectionLabels(tt.input); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}

	if got := Sanitize("[본문]\n내용"); got != "내용" {
		t.Errorf("Expected label-only line to disappear, got %q", got)
	}
	if got := Sanitize("- [제목] 브릿츠메디\n- [본문] 내용"); got != "• 브릿츠메디\n• 내용" {
		t.Errorf("Expected labels after bullets to be stripped, got %q", got)
	}
}

func TestStripTagLines(t *testing.T) {
	input := "본문\n[Tags: #britzmedi #thunder]\n끝"
	if got := StripTagLines(input); got != "본문\n끝" {
		t.Errorf("Expected tag line removed, got %q", got)
	}

	inline := "본문 [태그: 예시] 설명"
	if got := StripTagLines(inline); got != inline {
		t.Errorf("Expected inline bracket kept, got %q", got)
	}
}
