package tasks

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/database"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/feed"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/parser"
)

// Entries with less body text than this are completed from the linked page
// when the source allows extraction.
const minBodyRunes = 200

type ImportFeedTask struct {
	Task
	FeedConfig       *feed.Config
	fetcher          *Fetcher
	parser           *feed.Parser
	filterer         *feed.Filterer
	contentExtractor *feed.ContentExtractor
	contentRepo      database.ContentRepository
}

func NewImportFeedTask(feedConfig *feed.Config, fetcher *Fetcher, parser *feed.Parser, filterer *feed.Filterer, contentExtractor *feed.ContentExtractor, contentRepo database.ContentRepository) *ImportFeedTask {
	return &ImportFeedTask{
		Task:             NewTask(TaskTypeImportFeed, feedConfig.Name),
		FeedConfig:       feedConfig,
		fetcher:          fetcher,
		parser:           parser,
		filterer:         filterer,
		contentExtractor: contentExtractor,
		contentRepo:      contentRepo,
	}
}

func (t *ImportFeedTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	settings := t.FeedConfig.Settings
	if !settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.Subject)
		return nil
	}

	timeout := time.Duration(settings.Timeout) * time.Second
	data, err := t.fetcher.FetchFeed(ctx, t.FeedConfig.URL, timeout)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	_, items, err := t.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}
	if settings.MaxItems > 0 && len(items) > settings.MaxItems {
		items = items[:settings.MaxItems]
	}

	duplicateCount := 0
	var fresh []feed.Item
	for _, item := range items {
		exists, err := t.contentRepo.HashExists(ctx, item.ContentHash)
		if err != nil {
			return fmt.Errorf("failed to check for duplicates: %w", err)
		}
		if exists {
			duplicateCount++
			continue
		}
		fresh = append(fresh, item)
	}

	kept, skipped := t.filterer.Run(fresh, t.FeedConfig)
	for _, item := range skipped {
		slog.Debug("entry filtered", "source", t.Subject, "title", item.Title, "reason", item.FilterReason)
	}

	newCount := 0
	for _, item := range kept {
		if err := t.importItem(ctx, item, timeout); err != nil {
			return err
		}
		newCount++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source", t.Subject,
		"duration", t.GetDuration(),
		"total", len(items),
		"duplicates", duplicateCount,
		"filtered", len(skipped),
		"new", newCount)

	return nil
}

func (t *ImportFeedTask) importItem(ctx context.Context, item feed.Item, timeout time.Duration) error {
	src := feed.ToSource(item, t.FeedConfig.Settings)

	if t.FeedConfig.Settings.ExtractContent && item.Link != "" && parser.CharCount(src.Body) < minBodyRunes {
		article, err := t.extract(ctx, item.Link, timeout)
		if err != nil {
			slog.Warn("Failed to extract article, keeping feed text", "source", t.Subject, "url", item.Link, "error", err)
		} else {
			src.Body = article.Text
			src.Title = cmp.Or(src.Title, article.Title)
		}
	}

	c := &database.Content{
		Title:       src.Title,
		SourceType:  src.Type,
		Body:        src.Body,
		Category:    src.Category,
		SourceURL:   item.Link,
		ContentHash: item.ContentHash,
	}
	if err := t.contentRepo.CreateContent(ctx, c); err != nil {
		return fmt.Errorf("failed to store imported entry: %w", err)
	}

	slog.Debug("entry imported", "source", t.Subject, "content_id", c.ID, "title", c.Title, "chars", parser.CharCount(c.Body))
	return nil
}

func (t *ImportFeedTask) extract(ctx context.Context, url string, timeout time.Duration) (*feed.Article, error) {
	data, err := t.fetcher.FetchPage(ctx, url, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article content: %w", err)
	}
	return t.contentExtractor.Run(data)
}
