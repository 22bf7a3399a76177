package render

import (
	"strings"
	"testing"
)

func TestRenderer_HTML(t *testing.T) {
	r := NewRenderer()

	body := "브릿츠메디 4월 소식입니다.\n\n• 토르RF 태국 출시\n• 리프테라 학회 발표\n\n[IMAGE: 제품 사진]\n\n<script>alert(1)</script>"
	out, err := r.HTML(body)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, want := range []string{
		"<p>브릿츠메디 4월 소식입니다.</p>",
		"<li>토르RF 태국 출시</li>",
		"<li>리프테라 학회 발표</li>",
		`<figure class="image-slot">제품 사진</figure>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<script") {
		t.Errorf("Expected script to be neutralised, got:\n%s", out)
	}
}

func TestRenderer_HTMLKeepsLiteralMarkup(t *testing.T) {
	r := NewRenderer()

	out, err := r.HTML("단가 2*3 구성")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out, "2*3") {
		t.Errorf("Expected asterisk to survive as text, got %s", out)
	}
	if strings.Contains(out, "<em>") {
		t.Errorf("Expected no emphasis, got %s", out)
	}
}

func TestRenderer_HTMLEmpty(t *testing.T) {
	out, err := NewRenderer().HTML("  \n ")
	if err != nil || out != "" {
		t.Errorf("Expected empty output, got %q (err %v)", out, err)
	}
}

func TestRenderer_Page(t *testing.T) {
	out, err := NewRenderer().Page("4월 뉴스레터 <특집>", "이번 달 소식", "본문")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !strings.HasPrefix(out, "<h1>4월 뉴스레터 &lt;특집&gt;</h1>") {
		t.Errorf("Expected escaped heading, got:\n%s", out)
	}
	if !strings.Contains(out, "<p><em>이번 달 소식</em></p>") {
		t.Errorf("Expected preheader, got:\n%s", out)
	}
}
