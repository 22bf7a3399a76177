package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/catalog"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/llm"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/prompt"
)

type fakeCompleter struct {
	reply func(req llm.Request) (string, error)
	calls []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (llm.Result, error) {
	f.calls = append(f.calls, req)
	text, err := f.reply(req)
	if err != nil {
		return llm.Result{}, err
	}
	return llm.Result{Text: text}, nil
}

func newTestReviewer(t *testing.T, f *fakeCompleter) *Reviewer {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	return NewReviewer(f, prompt.NewBuilder(c), c)
}

var dealFacts = map[string]string{
	"dealValue": "3년 계약, 연 300대 규모",
	"dealDate":  "4월 15일",
}

const draftMissingUnits = "브릿츠메디가 태국 시암 메디컬과 4월 15일 3년 계약을 체결했습니다. 토르RF가 동남아 시장에 본격 진출합니다."

func TestReview_FlagsMissingConfirmedFact(t *testing.T) {
	f := &fakeCompleter{reply: func(llm.Request) (string, error) { return "[]", nil }}
	r := newTestReviewer(t, f)

	issues := r.Review(context.Background(), draftMissingUnits, "kakao", prompt.Source{Type: catalog.TypePressRelease}, dealFacts)

	if len(issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d: %+v", len(issues), issues)
	}
	if issues[0].Category != CategoryFactOmission || issues[0].Severity != SeverityCritical {
		t.Errorf("Expected critical fact_omission, got %+v", issues[0])
	}
	if !strings.Contains(issues[0].Message, "300대") {
		t.Errorf("Expected message to name the missing token, got '%s'", issues[0].Message)
	}
	if f.calls[0].Step != "review:kakao" {
		t.Errorf("Expected step 'review:kakao', got '%s'", f.calls[0].Step)
	}
}

func TestReview_UnreadableResponse(t *testing.T) {
	f := &fakeCompleter{reply: func(llm.Request) (string, error) { return "검수 결과: 문제 없음", nil }}
	r := newTestReviewer(t, f)

	issues := r.Review(context.Background(), "토르RF 소개", "kakao", prompt.Source{}, nil)

	if len(issues) != 1 {
		t.Fatalf("Expected only the placeholder issue, got %+v", issues)
	}
	if issues[0].Severity != SeverityYellow || issues[0].Category != CategoryReviewFailed {
		t.Errorf("Expected yellow review_failed, got %+v", issues[0])
	}
}

func TestReview_ModelFailureStillReturnsDeterministicIssues(t *testing.T) {
	f := &fakeCompleter{reply: func(llm.Request) (string, error) {
		return "", &llm.APIError{Status: 500, Message: "boom"}
	}}
	r := newTestReviewer(t, f)

	issues := r.Review(context.Background(), "부작용 없는 시술입니다.", "kakao", prompt.Source{}, nil)

	var cats []string
	for _, i := range issues {
		cats = append(cats, i.Category)
	}
	if diff := cmp.Diff([]string{CategoryForbiddenTerm, CategoryReviewFailed}, cats); diff != "" {
		t.Errorf("Category mismatch (-want +got):\n%s", diff)
	}
}

func TestReview_SortsAndDeduplicates(t *testing.T) {
	reply := `검수 결과입니다.
` + "```json" + `
[
  {"severity":"YELLOW","category":"tone","message":"톤이 딱딱합니다"},
  {"severity":"red","category":"forbidden_term","message":"금지 표현","quote":"부작용 없는 시술입니다."},
  {"severity":"critical","category":"fact_error","message":"날짜 오류","quote":"4월 16일"}
]
` + "```"
	f := &fakeCompleter{reply: func(llm.Request) (string, error) { return reply, nil }}
	r := newTestReviewer(t, f)

	issues := r.Review(context.Background(), "부작용 없는 시술입니다.", "kakao", prompt.Source{}, nil)

	var got []string
	for _, i := range issues {
		got = append(got, i.Severity+"/"+i.Category)
	}
	want := []string{"critical/fact_error", "red/forbidden_term", "yellow/tone"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Issue order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIssues_SkipsBracketedProse(t *testing.T) {
	issues, err := ParseIssues(`[IMAGE: 제품 사진] 참고. 결과: [{"severity":"unknown","message":"확인 필요"}] 끝 [1]`)
	if err != nil {
		t.Fatalf("Expected array to be found, got %v", err)
	}
	want := []Issue{{Severity: SeverityYellow, Category: CategoryGeneral, Message: "확인 필요"}}
	if diff := cmp.Diff(want, issues); diff != "" {
		t.Errorf("Issues mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseIssues("no array here"); err == nil {
		t.Error("Expected error when no array is present")
	}
}

func TestAutoFix_RestoresMissingFact(t *testing.T) {
	// a model that ignores the instructions and echoes the draft
	f := &fakeCompleter{reply: func(req llm.Request) (string, error) { return "**" + draftMissingUnits + "**", nil }}
	r := newTestReviewer(t, f)

	issues := CheckFacts(draftMissingUnits, dealFacts, func(k string) string { return k })
	fixed, err := r.AutoFix(context.Background(), draftMissingUnits, "kakao", issues, dealFacts)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !strings.Contains(fixed, "300대") {
		t.Errorf("Expected fixed text to contain '300대', got:\n%s", fixed)
	}
	if !strings.Contains(fixed, "계약 규모: 3년 계약, 연 300대 규모") {
		t.Errorf("Expected labelled fact line, got:\n%s", fixed)
	}
	if strings.Contains(fixed, "**") {
		t.Errorf("Expected model output to be sanitized, got:\n%s", fixed)
	}
	if remaining := CheckFacts(fixed, dealFacts, func(k string) string { return k }); len(remaining) != 0 {
		t.Errorf("Expected no fact omissions after fix, got %+v", remaining)
	}
	if f.calls[0].Step != "autofix:kakao" {
		t.Errorf("Expected step 'autofix:kakao', got '%s'", f.calls[0].Step)
	}
}

func TestAutoFix_NoIssuesIsNoOp(t *testing.T) {
	f := &fakeCompleter{reply: func(llm.Request) (string, error) { return "changed", nil }}
	r := newTestReviewer(t, f)

	once, _ := r.AutoFix(context.Background(), draftMissingUnits, "kakao", []Issue{{Severity: SeverityYellow, Message: "x"}}, dealFacts)

	remaining := r.Check(once, dealFacts)
	if len(remaining) != 0 {
		t.Fatalf("Expected no issues after the first fix, got %+v", remaining)
	}
	twice, _ := r.AutoFix(context.Background(), once, "kakao", remaining, dealFacts)

	if once != twice {
		t.Errorf("Expected auto-fix with no issues to be a no-op, got '%s' vs '%s'", once, twice)
	}
	if len(f.calls) != 1 {
		t.Errorf("Expected a single model call, got %d", len(f.calls))
	}
}

func TestAutoFix_ModelFailureKeepsDeterministicRepair(t *testing.T) {
	f := &fakeCompleter{reply: func(llm.Request) (string, error) { return "", errors.New("network down") }}
	r := newTestReviewer(t, f)

	content := "부작용 없는 시술입니다. 100% 효과를 약속합니다. 상담하세요."
	fixed, err := r.AutoFix(context.Background(), content, "kakao", []Issue{{Severity: SeverityRed, Category: CategoryForbiddenTerm}}, nil)
	if err == nil {
		t.Error("Expected the model error to be returned")
	}

	want := "안전성을 고려해 설계된 시술입니다. 상담하세요."
	if fixed != want {
		t.Errorf("Expected '%s', got '%s'", want, fixed)
	}
}

func TestRestoreFacts_BeforeDivider(t *testing.T) {
	text := "한국어 본문\n\n---\n\nEnglish body"
	got := RestoreFacts(text, map[string]string{"dealDate": "4월 15일"}, func(string) string { return "계약일" })

	want := "한국어 본문\n\n계약일: 4월 15일\n\n---\n\nEnglish body"
	if got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestFactTokens(t *testing.T) {
	tests := []struct {
		value string
		want  []string
	}{
		{"3년 계약, 연 300대 규모", []string{"3년", "300대"}},
		{"4월 15일", []string{"4월", "15일"}},
		{"매출 1,200만 달러.", []string{"1,200만"}},
		{"시암 메디컬", nil},
		{"정확도 98.5%", []string{"98.5%"}},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, FactTokens(tt.value)); diff != "" {
				t.Errorf("Token mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMissingFacts_IgnoresSpacing(t *testing.T) {
	missing := MissingFacts("연 300 대 규모로 4월15일 체결", dealFacts)
	if diff := cmp.Diff(map[string][]string{"dealValue": {"3년"}}, missing); diff != "" {
		t.Errorf("Missing facts mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingFacts_NumberBoundaries(t *testing.T) {
	deal := map[string]string{"dealValue": dealFacts["dealValue"]}

	tests := []struct {
		name      string
		text      string
		confirmed map[string]string
		want      map[string][]string
	}{
		{"year contains duration", "브릿츠메디는 2023년 설립 이후 연 300대 규모로 공급합니다.", deal, map[string][]string{"dealValue": {"3년"}}},
		{"larger quantity", "3년 계약으로 연 1300대 규모를 공급합니다.", deal, map[string][]string{"dealValue": {"300대"}}},
		{"both embedded", "브릿츠메디는 2023년 이후 연 1300대 규모로 공급합니다.", deal, map[string][]string{"dealValue": {"3년", "300대"}}},
		{"decimal prefix", "점유율 1.3년 연 300대", deal, map[string][]string{"dealValue": {"3년"}}},
		{"exact facts", "3년 계약, 연 300대 규모", deal, map[string][]string{}},
		{"bare number in larger number", "공급 3000", map[string]string{"units": "300"}, map[string][]string{"units": {"300"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, MissingFacts(tt.text, tt.confirmed)); diff != "" {
				t.Errorf("Missing facts mismatch (-want +got):\n%s", diff)
			}
		})
	}

	issues := CheckFacts("브릿츠메디는 2023년 이후 연 1300대 규모로 공급합니다.", deal, func(k string) string { return k })
	if len(issues) != 2 || issues[0].Severity != SeverityCritical {
		t.Errorf("Expected two critical fact_omission issues, got %+v", issues)
	}
	restored := RestoreFacts("브릿츠메디는 2023년 이후 연 1300대 규모로 공급합니다.", deal, func(string) string { return "계약 규모" })
	if !strings.HasSuffix(restored, "계약 규모: 3년 계약, 연 300대 규모") {
		t.Errorf("Expected restored fact line, got:\n%s", restored)
	}
}

func TestSortIssues_Stable(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityYellow, Message: "y1"},
		{Severity: SeverityCritical, Message: "c1"},
		{Severity: SeverityYellow, Message: "y2"},
		{Severity: SeverityRed, Message: "r1"},
		{Severity: SeverityCritical, Message: "c2"},
	}
	SortIssues(issues)

	var got []string
	for _, i := range issues {
		got = append(got, i.Message)
	}
	if diff := cmp.Diff([]string{"c1", "c2", "r1", "y1", "y2"}, got); diff != "" {
		t.Errorf("Order mismatch (-want +got):\n%s", diff)
	}
	if !HasBlocking(issues) {
		t.Error("Expected blocking issues")
	}
}
