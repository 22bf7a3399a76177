package api

import (
	"context"
	"time"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/catalog"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/feed"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/pipeline"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/prompt"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/review"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/usage"
)

type GeneratorInterface interface {
	Run(cf feed.ChannelFeed, entries []feed.Entry) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

// CatalogInterface is the read side of the channel catalog.
type CatalogInterface interface {
	Channel(id string) (*catalog.Channel, error)
	Channels() []catalog.Channel
	ContentType(id string) (*catalog.ContentType, error)
	ContentTypes() []catalog.ContentType
}

var _ CatalogInterface = (*catalog.Catalog)(nil)

// PipelineInterface generates, reviews and fixes channel content.
type PipelineInterface interface {
	Run(ctx context.Context, req pipeline.Request) *pipeline.Result
	Reviewer() *review.Reviewer
}

var _ PipelineInterface = (*pipeline.Pipeline)(nil)

type UsageInterface interface {
	Summary() usage.Summary
	Daily(ctx context.Context, day time.Time) (usage.DailyStats, error)
}

var _ UsageInterface = (*usage.Tracker)(nil)

// HealthChecker reports the state of an external store for /health.
type HealthChecker interface {
	Health(ctx context.Context) map[string]interface{}
}

var _ HealthChecker = (*usage.RedisDailyStore)(nil)

type createContentRequest struct {
	Title           string            `json:"title" binding:"required"`
	SourceType      string            `json:"sourceType" binding:"required"`
	Body            string            `json:"body"`
	AIDraft         string            `json:"aiDraft"`
	Category        string            `json:"category"`
	Channels        []string          `json:"channels"`
	ConfirmedFields map[string]string `json:"confirmedFields"`
	SourceURL       string            `json:"sourceUrl"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// generateRequest regenerates a stored content item. Empty fields fall back
// to the stored channels and confirmed fields.
type generateRequest struct {
	Channels []string       `json:"channels"`
	Options  prompt.Options `json:"options"`
	Review   bool           `json:"review"`
	AutoFix  bool           `json:"autoFix"`
}

type adHocGenerateRequest struct {
	Source   prompt.Source  `json:"source" binding:"required"`
	Channels []string       `json:"channels" binding:"required,min=1"`
	Options  prompt.Options `json:"options"`
	Review   bool           `json:"review"`
	AutoFix  bool           `json:"autoFix"`
}

type editRequest struct {
	Text   string `json:"text" binding:"required"`
	Reason string `json:"reason"`
}

type reviewRequest struct {
	Content         string            `json:"content" binding:"required"`
	Channel         string            `json:"channel" binding:"required"`
	Source          prompt.Source     `json:"source"`
	ConfirmedFields map[string]string `json:"confirmedFields"`
}

type autoFixRequest struct {
	Content         string            `json:"content" binding:"required"`
	Channel         string            `json:"channel" binding:"required"`
	Issues          []review.Issue    `json:"issues"`
	ConfirmedFields map[string]string `json:"confirmedFields"`
}

type importURLRequest struct {
	URL         string `json:"url" binding:"required,url"`
	ContentType string `json:"contentType"`
}
