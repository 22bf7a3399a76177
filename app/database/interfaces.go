package database

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidStage = errors.New("invalid content stage")
	ErrDuplicate    = errors.New("duplicate content")
)

type ContentRepository interface {
	CreateContent(ctx context.Context, c *Content) error
	GetContent(ctx context.Context, id string) (*Content, error)
	ListContents(ctx context.Context, f ContentFilter) ([]Content, error)
	UpdateStatus(ctx context.Context, id, status string) error
	HashExists(ctx context.Context, hash string) (bool, error)
	GetContentCount(ctx context.Context) (int, error)
}

type ChannelRepository interface {
	UpsertChannel(ctx context.Context, cc *ChannelContent) error
	GetChannel(ctx context.Context, contentID, channel string) (*ChannelContent, error)
	ListChannels(ctx context.Context, contentID string) ([]ChannelContent, error)
	ApplyEdit(ctx context.Context, contentID, channel, text, reason string) (*EditRecord, error)
	ListEdits(ctx context.Context, channel string, limit int) ([]EditRecord, error)
	ListPublished(ctx context.Context, channel string, limit int) ([]Published, error)
}
