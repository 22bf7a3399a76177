package feed

import (
	"testing"
)

func TestFilterer_Run(t *testing.T) {
	items := []Item{
		{Title: "토르RF 태국 공급 계약", Categories: []string{"보도자료"}},
		{Title: "채용 공고: 마케팅 매니저", Categories: []string{"공지"}},
		{Title: "ULTHERA 비교 연구", Categories: []string{"보도자료"}},
		{Title: "리프테라 학회 발표", Categories: []string{"연구"}},
	}

	cfg := &Config{
		Filters: []ConfigFilter{
			{Field: "title", Excludes: []string{"채용", "ulthera"}},
			{Field: "categories", Includes: []string{"보도자료", "연구"}},
		},
	}

	kept, skipped := NewFilterer().Run(items, cfg)

	if len(kept) != 2 {
		t.Fatalf("Expected 2 kept items, got %d", len(kept))
	}
	if kept[0].Title != "토르RF 태국 공급 계약" || kept[1].Title != "리프테라 학회 발표" {
		t.Errorf("Unexpected kept items: %+v", kept)
	}

	if len(skipped) != 2 {
		t.Fatalf("Expected 2 skipped items, got %d", len(skipped))
	}
	for _, item := range skipped {
		if !item.IsFiltered || item.FilterReason == "" {
			t.Errorf("Expected skipped item to carry a reason, got %+v", item)
		}
	}
}

func TestFilterer_IncludeRequired(t *testing.T) {
	cfg := &Config{Filters: []ConfigFilter{{Field: "link", Includes: []string{"/news/"}}}}

	kept, skipped := NewFilterer().Run([]Item{
		{Link: "https://britzmedi.com/news/1"},
		{Link: "https://britzmedi.com/careers/1"},
	}, cfg)

	if len(kept) != 1 || len(skipped) != 1 {
		t.Fatalf("Expected 1 kept and 1 skipped, got %d and %d", len(kept), len(skipped))
	}
	if skipped[0].Link != "https://britzmedi.com/careers/1" {
		t.Errorf("Unexpected skipped item: %s", skipped[0].Link)
	}
}

func TestFilterer_NoFilters(t *testing.T) {
	kept, skipped := NewFilterer().Run([]Item{{Title: "a"}, {Title: "b"}}, &Config{})
	if len(kept) != 2 || len(skipped) != 0 {
		t.Errorf("Expected every item kept, got %d kept %d skipped", len(kept), len(skipped))
	}
}

func TestFold_ComposesHangul(t *testing.T) {
	// decomposed jamo must match the composed syllable
	if fold("\u1100\u1161") != fold("\uac00") {
		t.Error("Expected decomposed and composed forms to fold equally")
	}
	if fold("ThorRF") != "thorrf" {
		t.Errorf("Expected lower case, got %s", fold("ThorRF"))
	}
}
