package feed

import (
	"testing"
	"time"
)

const newsroomRSS = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>BRITZMEDI Newsroom</title>
    <link>https://britzmedi.com/news</link>
    <description>보도자료</description>
    <language>ko</language>
    <item>
      <title>  브릿츠메디, 태국 시암 메디컬과 토르RF 공급 계약  </title>
      <link>https://britzmedi.com/news/1</link>
      <description><![CDATA[<p>브릿츠메디가 4월 15일 계약을 체결했다.</p><p>계약 규모는 300대다.</p>]]></description>
      <guid>news-1</guid>
      <pubDate>Tue, 15 Apr 2025 09:00:00 +0900</pubDate>
      <category>보도자료</category>
    </item>
    <item>
      <title>리프테라 학회 발표</title>
      <link>https://britzmedi.com/news/2</link>
      <description>대한피부과학회 발표 요약</description>
    </item>
  </channel>
</rss>`

func TestParser_Run(t *testing.T) {
	metadata, items, err := NewParser().Run([]byte(newsroomRSS))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if metadata.Title != "BRITZMEDI Newsroom" {
		t.Errorf("Expected title 'BRITZMEDI Newsroom', got: %s", metadata.Title)
	}
	if metadata.Language != "ko" {
		t.Errorf("Expected language 'ko', got: %s", metadata.Language)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(items))
	}

	first := items[0]
	if first.Title != "브릿츠메디, 태국 시암 메디컬과 토르RF 공급 계약" {
		t.Errorf("Expected trimmed title, got: %q", first.Title)
	}
	if first.GUID != "news-1" {
		t.Errorf("Expected GUID 'news-1', got: %s", first.GUID)
	}
	if first.PublishedAt.IsZero() {
		t.Error("Expected published date to be parsed")
	}
	if first.ContentHash != ContentHash(first.Title, first.Link) {
		t.Errorf("Expected content hash of title and link, got: %s", first.ContentHash)
	}

	// without a guid the link identifies the entry
	if items[1].GUID != "https://britzmedi.com/news/2" {
		t.Errorf("Expected link as GUID, got: %s", items[1].GUID)
	}
}

func TestParser_RunInvalid(t *testing.T) {
	if _, _, err := NewParser().Run([]byte("not a feed")); err == nil {
		t.Error("Expected error for invalid feed data")
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash("제목", "https://britzmedi.com/news/1")
	b := ContentHash("제목", "https://britzmedi.com/news/1")
	c := ContentHash("제목", "https://britzmedi.com/news/2")

	if a != b {
		t.Error("Expected identical input to hash identically")
	}
	if a == c {
		t.Error("Expected different links to hash differently")
	}
	if len(a) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(a))
	}
}

func TestToSource(t *testing.T) {
	item := Item{
		Title:       "토르RF 태국 출시",
		Link:        "https://britzmedi.com/news/1",
		Description: "<p>브릿츠메디가 4월 15일 계약을 체결했다.</p><p>계약 규모는 300대다.</p>",
		PublishedAt: time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC),
	}

	src := ToSource(item, ConfigSettings{Category: "해외 진출"})

	if src.Type != "press_release" {
		t.Errorf("Expected default type 'press_release', got: %s", src.Type)
	}
	if src.Body != "브릿츠메디가 4월 15일 계약을 체결했다.\n\n계약 규모는 300대다." {
		t.Errorf("Unexpected body: %q", src.Body)
	}
	if src.Date != "2025-04-15" {
		t.Errorf("Expected date '2025-04-15', got: %s", src.Date)
	}
	if src.Category != "해외 진출" {
		t.Errorf("Expected category, got: %s", src.Category)
	}
	if src.Metadata["link"] != item.Link {
		t.Errorf("Expected link metadata, got: %v", src.Metadata)
	}

	item.Content = "<p>전문 본문</p>"
	if got := ToSource(item, ConfigSettings{ContentType: "research"}); got.Body != "전문 본문" || got.Type != "research" {
		t.Errorf("Expected content to win over description, got: %+v", got)
	}
}
