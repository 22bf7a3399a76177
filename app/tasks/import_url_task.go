package tasks

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/catalog"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/database"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/feed"
)

const importURLTimeout = 30 * time.Second

// ImportURLTask turns a single press-release page into a draft content item.
// The API runs it inline so the new item can be returned to the caller.
type ImportURLTask struct {
	Task
	URL              string
	ContentType      string
	Content          *database.Content
	fetcher          *Fetcher
	contentExtractor *feed.ContentExtractor
	contentRepo      database.ContentRepository
}

func NewImportURLTask(url, contentType string, fetcher *Fetcher, contentExtractor *feed.ContentExtractor, contentRepo database.ContentRepository) *ImportURLTask {
	return &ImportURLTask{
		Task:             NewTask(TaskTypeImportURL, url),
		URL:              url,
		ContentType:      cmp.Or(contentType, catalog.TypePressRelease),
		fetcher:          fetcher,
		contentExtractor: contentExtractor,
		contentRepo:      contentRepo,
	}
}

func (t *ImportURLTask) Execute(ctx context.Context) error {
	data, err := t.fetcher.FetchPage(ctx, t.URL, importURLTimeout)
	if err != nil {
		return fmt.Errorf("failed to fetch article content: %w", err)
	}

	article, err := t.contentExtractor.Run(data)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	hash := feed.ContentHash(article.Title, t.URL)
	exists, err := t.contentRepo.HashExists(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s was already imported", database.ErrDuplicate, t.URL)
	}

	c := &database.Content{
		Title:       article.Title,
		SourceType:  t.ContentType,
		Body:        article.Text,
		SourceURL:   t.URL,
		ContentHash: hash,
	}
	if err := t.contentRepo.CreateContent(ctx, c); err != nil {
		return fmt.Errorf("failed to store imported article: %w", err)
	}
	t.Content = c

	slog.Info("Task completed",
		"type", t.GetType(),
		"url", t.URL,
		"content_id", c.ID,
		"duration", t.GetDuration())

	return nil
}
