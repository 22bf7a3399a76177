// Package prompt composes the generation, review and auto-fix prompts sent
// to the model. Builders are deterministic given their inputs and Options.Today.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/catalog"
)

const (
	headerBrand    = "【브랜드 정보】"
	headerFacts    = "【사실 정확성 규칙】"
	headerTags     = "【태그 및 금지 표현 규칙】"
	headerChannel  = "【채널 형식: %s】"
	headerSource   = "【원문】"
	headerExtra    = "【추가 요청】"
	headerLearning = "【학습된 편집 기준】"
	headerType     = "【콘텐츠 유형 규칙: %s】"
)

// Catalog is the slice of the channel catalog the builders read.
type Catalog interface {
	Channel(id string) (*catalog.Channel, error)
	ContentType(id string) (*catalog.ContentType, error)
	Brand() catalog.Brand
	Forbidden() []catalog.ForbiddenTerm
	FieldLabel(key string) string
}

type Builder struct {
	catalog Catalog
}

func NewBuilder(c Catalog) *Builder {
	return &Builder{catalog: c}
}

// Build returns the generation prompt for one channel, or "" when the
// channel is not in the catalog.
func (b *Builder) Build(channelID string, src Source, opts Options) string {
	ch, err := b.catalog.Channel(channelID)
	if err != nil {
		return ""
	}

	var sb strings.Builder
	b.writeBrand(&sb, opts.Today)
	b.writeFactRules(&sb, opts.ConfirmedFields)
	b.writeTagRules(&sb)
	writeChannel(&sb, ch, opts)
	b.writeSource(&sb, src)
	writeExtra(&sb, opts.ExtraContext)
	writeLearning(&sb, opts.Learning)
	if src.Type != "" && src.Type != catalog.TypePressRelease {
		b.writeTypeRules(&sb, src.Type)
	}

	sb.WriteString(fmt.Sprintf("위 규칙에 맞춰 %s용 콘텐츠 본문만 출력하세요. 설명이나 머리말은 쓰지 않습니다.\n", ch.Name))
	return sb.String()
}

func (b *Builder) writeBrand(sb *strings.Builder, today time.Time) {
	brand := b.catalog.Brand()
	if today.IsZero() {
		today = time.Now()
	}

	sb.WriteString(headerBrand + "\n")
	sb.WriteString(fmt.Sprintf("회사: %s\n", brand.Company))
	if len(brand.Products) > 0 {
		sb.WriteString(fmt.Sprintf("제품: %s\n", strings.Join(brand.Products, ", ")))
	}
	if ctx := strings.TrimSpace(brand.Context); ctx != "" {
		sb.WriteString(ctx + "\n")
	}
	sb.WriteString(fmt.Sprintf("오늘 날짜: %s\n\n", today.Format("2006-01-02")))
}

func (b *Builder) writeFactRules(sb *strings.Builder, confirmed map[string]string) {
	sb.WriteString(headerFacts + "\n")
	sb.WriteString("- " + FactCompletenessDirective + "\n")
	sb.WriteString("- " + periodQuantityRule + "\n")
	sb.WriteString("- " + factOmissionRule + "\n")
	sb.WriteString("- " + NoFabricationDirective + "\n")
	sb.WriteString("- " + NoArithmeticDirective + "\n")

	if len(confirmed) > 0 {
		sb.WriteString("확정 정보 (반드시 그대로 포함):\n")
		for _, key := range sortedKeys(confirmed) {
			if v := strings.TrimSpace(confirmed[key]); v != "" {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", b.catalog.FieldLabel(key), v))
			}
		}
	}
	sb.WriteString("\n")
}

func (b *Builder) writeTagRules(sb *strings.Builder) {
	sb.WriteString(headerTags + "\n")
	sb.WriteString("- " + noTagRule + "\n")

	terms := b.catalog.Forbidden()
	if len(terms) > 0 {
		names := make([]string, 0, len(terms))
		for _, t := range terms {
			names = append(names, "\""+t.Term+"\"")
		}
		sb.WriteString(fmt.Sprintf("- 의료기기 광고 심의 기준상 다음 표현은 사용할 수 없습니다: %s\n", strings.Join(names, ", ")))
		for _, t := range terms {
			if t.Replacement != "" {
				sb.WriteString(fmt.Sprintf("  - \"%s\" 대신 \"%s\"\n", t.Term, t.Replacement))
			}
		}
	}
	sb.WriteString("\n")
}

func writeChannel(sb *strings.Builder, ch *catalog.Channel, opts Options) {
	sb.WriteString(fmt.Sprintf(headerChannel, ch.Name) + "\n")
	switch {
	case ch.Range.Max > 0:
		sb.WriteString(fmt.Sprintf("- 분량: %d~%d자\n", ch.Range.Min, ch.Range.Max))
	case ch.Range.Min > 0:
		sb.WriteString(fmt.Sprintf("- 분량: %d자 이상\n", ch.Range.Min))
	}
	if ch.Tone != "" {
		sb.WriteString(fmt.Sprintf("- 톤: %s\n", ch.Tone))
	}
	sb.WriteString("- " + plainTextRule + "\n")

	if opts.Carousel && ch.ID == "instagram" {
		sb.WriteString("- " + carouselRule + "\n")
	} else {
		for _, rule := range ch.Rules {
			sb.WriteString("- " + rule + "\n")
		}
	}

	if opts.Language != "" && ch.SupportsLanguage(opts.Language) {
		sb.WriteString("- " + languageRules[opts.Language] + "\n")
	}
	sb.WriteString("\n")
}

func (b *Builder) writeSource(sb *strings.Builder, src Source) {
	sb.WriteString(headerSource + "\n")

	typeName := src.Type
	var fields []catalog.ContentField
	if ct, err := b.catalog.ContentType(src.Type); err == nil {
		typeName = ct.Name
		fields = ct.Fields
	}
	if typeName != "" {
		sb.WriteString(fmt.Sprintf("유형: %s\n", typeName))
	}
	if src.Title != "" {
		sb.WriteString(fmt.Sprintf("제목: %s\n", src.Title))
	}
	if src.Category != "" {
		sb.WriteString(fmt.Sprintf("카테고리: %s\n", src.Category))
	}
	if src.Date != "" {
		sb.WriteString(fmt.Sprintf("날짜: %s\n", src.Date))
	}

	written := make(map[string]bool, len(fields))
	for _, f := range fields {
		if v := src.Metadata[f.Key]; v != "" {
			sb.WriteString(fmt.Sprintf("%s: %s\n", f.Label, v))
			written[f.Key] = true
		}
	}
	for _, key := range sortedKeys(src.Metadata) {
		if !written[key] && src.Metadata[key] != "" {
			sb.WriteString(fmt.Sprintf("%s: %s\n", key, src.Metadata[key]))
		}
	}

	sb.WriteString("본문:\n")
	sb.WriteString(strings.TrimSpace(src.Body))
	sb.WriteString("\n\n")
}

func writeExtra(sb *strings.Builder, extra string) {
	extra = strings.TrimSpace(extra)
	if extra == "" {
		return
	}
	sb.WriteString(headerExtra + "\n")
	sb.WriteString(extra + "\n\n")
}

func writeLearning(sb *strings.Builder, l *Learning) {
	if l.empty() {
		return
	}

	sb.WriteString(headerLearning + "\n")
	writeList(sb, "이전 편집에서 반복된 수정 패턴:", l.EditPatterns)
	writeList(sb, "브랜드 보이스 규칙:", l.VoiceRules)
	writeList(sb, "확인된 사실:", l.Facts)
	sb.WriteString("\n")
}

func (b *Builder) writeTypeRules(sb *strings.Builder, typeID string) {
	ct, err := b.catalog.ContentType(typeID)
	if err != nil {
		return
	}

	sb.WriteString(fmt.Sprintf(headerType, ct.Name) + "\n")
	if len(ct.Fields) > 0 {
		labels := make([]string, 0, len(ct.Fields))
		for _, f := range ct.Fields {
			labels = append(labels, f.Label)
		}
		sb.WriteString(fmt.Sprintf("- 원문에 있는 %s 정보를 빠짐없이 반영하세요.\n", strings.Join(labels, ", ")))
	}
	for _, rule := range ct.Rules {
		sb.WriteString("- " + rule + "\n")
	}
	sb.WriteString("\n")
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(title + "\n")
	for _, item := range items {
		sb.WriteString("- " + item + "\n")
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
