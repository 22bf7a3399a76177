package prompt

import (
	"fmt"
	"strings"
)

const reviewIntro = `당신은 의료기기 마케팅 콘텐츠 검수자입니다. 아래 검수 대상을 원문과 비교해 문제를 찾고, JSON 배열로만 답하세요.
각 항목 형식: {"severity":"critical|red|yellow","category":"...","message":"...","quote":"...","section":"..."}
분류 기준:
- critical: 확정 정보나 원문의 숫자, 날짜, 수량 누락(fact_omission) 또는 원문과 다른 수치(fact_error)
- red: 금지 표현 사용(forbidden_term), 원문에 없는 사실이나 계산된 수치(fabrication)
- yellow: 분량(length), 형식(format), 톤(tone) 문제
quote에는 문제가 된 문장을 그대로 옮기고, section에는 해당 위치(제목, 본문, 해시태그 등)를 적습니다.
문제가 없으면 [] 만 출력하세요.
`

const autoFixIntro = `당신은 의료기기 마케팅 콘텐츠 편집자입니다. 아래 콘텐츠에서 지적된 문제만 최소한으로 고치세요.
- 확정 정보의 숫자, 날짜, 수량이 빠졌다면 문맥에 맞는 문장에 원문 그대로 넣으세요.
- 금지 표현은 지정된 대체 표현으로 바꾸고, 대체 표현이 없으면 해당 주장을 삭제하세요.
- 지적되지 않은 문장은 바꾸지 마세요.
`

// BuildReview returns the prompt asking the model for a JSON issue list.
func (b *Builder) BuildReview(content, channelID string, src Source, confirmed map[string]string) string {
	var sb strings.Builder
	sb.WriteString(reviewIntro + "\n")

	b.writeChannelSummary(&sb, channelID)
	b.writeConfirmed(&sb, confirmed)
	b.writeForbiddenSummary(&sb)

	sb.WriteString(headerSource + "\n")
	if src.Title != "" {
		sb.WriteString(fmt.Sprintf("제목: %s\n", src.Title))
	}
	sb.WriteString(strings.TrimSpace(src.Body) + "\n\n")

	sb.WriteString("【검수 대상】\n")
	sb.WriteString(strings.TrimSpace(content) + "\n")
	return sb.String()
}

// BuildAutoFix returns the prompt asking the model to rewrite content so the
// given issues are resolved.
func (b *Builder) BuildAutoFix(content, channelID string, fixes []Fix, confirmed map[string]string) string {
	var sb strings.Builder
	sb.WriteString(autoFixIntro)
	sb.WriteString("- " + plainTextRule + "\n")
	sb.WriteString("- " + NoFabricationDirective + "\n")
	sb.WriteString("- " + NoArithmeticDirective + "\n")
	if ch, err := b.catalog.Channel(channelID); err == nil && ch.Divider {
		sb.WriteString("- \"---\" 구분선과 그 뒤의 영어 본문 구조를 유지하세요.\n")
	}
	sb.WriteString("\n")

	b.writeChannelSummary(&sb, channelID)
	b.writeConfirmed(&sb, confirmed)
	b.writeForbiddenSummary(&sb)

	sb.WriteString("【지적된 문제】\n")
	for i, f := range fixes {
		sb.WriteString(fmt.Sprintf("%d. [%s/%s] %s", i+1, f.Severity, f.Category, f.Message))
		if f.Quote != "" {
			sb.WriteString(fmt.Sprintf(" (문장: \"%s\")", f.Quote))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString("【수정 대상】\n")
	sb.WriteString(strings.TrimSpace(content) + "\n\n")
	sb.WriteString("수정된 전체 콘텐츠만 출력하세요. 설명은 쓰지 않습니다.\n")
	return sb.String()
}

func (b *Builder) writeChannelSummary(sb *strings.Builder, channelID string) {
	ch, err := b.catalog.Channel(channelID)
	if err != nil {
		sb.WriteString(fmt.Sprintf("채널: %s\n\n", channelID))
		return
	}
	sb.WriteString(fmt.Sprintf(headerChannel, ch.Name) + "\n")
	if ch.Range.Max > 0 {
		sb.WriteString(fmt.Sprintf("- 분량: %d~%d자\n", ch.Range.Min, ch.Range.Max))
	}
	for _, rule := range ch.Rules {
		sb.WriteString("- " + rule + "\n")
	}
	sb.WriteString("\n")
}

func (b *Builder) writeConfirmed(sb *strings.Builder, confirmed map[string]string) {
	if len(confirmed) == 0 {
		return
	}
	sb.WriteString("【확정 정보】\n")
	for _, key := range sortedKeys(confirmed) {
		if v := strings.TrimSpace(confirmed[key]); v != "" {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", b.catalog.FieldLabel(key), v))
		}
	}
	sb.WriteString("\n")
}

func (b *Builder) writeForbiddenSummary(sb *strings.Builder) {
	terms := b.catalog.Forbidden()
	if len(terms) == 0 {
		return
	}
	sb.WriteString("【금지 표현】\n")
	for _, t := range terms {
		if t.Replacement != "" {
			sb.WriteString(fmt.Sprintf("- %s → %s\n", t.Term, t.Replacement))
		} else {
			sb.WriteString(fmt.Sprintf("- %s → (삭제)\n", t.Term))
		}
	}
	sb.WriteString("\n")
}
