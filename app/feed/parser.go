package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/catalog"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/prompt"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
	}

	if feed.PublishedParsed != nil {
		metadata.FeedPublishedAt = feed.PublishedParsed
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		normalized := p.normalizeItem(item)
		normalized.ContentHash = ContentHash(normalized.Title, normalized.Link)
		items = append(items, normalized)
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       strings.TrimSpace(item.Title),
		Link:        item.Link,
		Description: item.Description,
		Content:     item.Content,
		Categories:  item.Categories,
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		normalized.PublishedAt = *item.UpdatedParsed
	}

	return normalized
}

// ContentHash identifies an imported source across feeds and manual imports.
func ContentHash(title, link string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s", title, link)))
	return hex.EncodeToString(hash[:])
}

// ToSource converts an entry into a repurposing source. The body is the
// plain text of the entry content, or of its description when empty.
func ToSource(item Item, settings ConfigSettings) prompt.Source {
	body := HTMLToText(cmp.Or(item.Content, item.Description))

	src := prompt.Source{
		Type:     cmp.Or(settings.ContentType, catalog.TypePressRelease),
		Title:    item.Title,
		Body:     body,
		Category: settings.Category,
		Metadata: map[string]string{"link": item.Link},
	}
	if !item.PublishedAt.IsZero() {
		src.Date = item.PublishedAt.Format("2006-01-02")
	}
	return src
}
