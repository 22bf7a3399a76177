package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/database"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/pipeline"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/review"
)

const fallbackKindChannel = "channel_content"

// PersistTask writes the generated channel texts of one content item and
// moves a draft item to review. Rows already written survive a retry.
type PersistTask struct {
	Task
	Result      *pipeline.Result
	contentRepo database.ContentRepository
	channelRepo database.ChannelRepository
	fallback    *database.FallbackWriter
	written     map[string]bool
}

func NewPersistTask(res *pipeline.Result, contentRepo database.ContentRepository, channelRepo database.ChannelRepository, fallback *database.FallbackWriter) *PersistTask {
	return &PersistTask{
		Task:        NewTask(TaskTypePersistResult, res.ContentID),
		Result:      res,
		contentRepo: contentRepo,
		channelRepo: channelRepo,
		fallback:    fallback,
		written:     make(map[string]bool),
	}
}

func (t *PersistTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var errs []error
	for _, cr := range t.Result.Succeeded() {
		if t.written[cr.Channel] {
			continue
		}

		row, err := ChannelRow(t.Result.ContentID, cr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := t.channelRepo.UpsertChannel(ctx, row); err != nil {
			errs = append(errs, fmt.Errorf("failed to store %s: %w", cr.Channel, err))
			continue
		}
		t.written[cr.Channel] = true
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if err := t.promote(ctx); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"content_id", t.Subject,
		"duration", t.GetDuration(),
		"channels", len(t.written))

	return nil
}

// promote moves a draft to review once its channel texts are stored.
func (t *PersistTask) promote(ctx context.Context) error {
	c, err := t.contentRepo.GetContent(ctx, t.Result.ContentID)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if c.Status != database.StageDraft || len(t.written) == 0 {
		return nil
	}
	if err := t.contentRepo.UpdateStatus(ctx, c.ID, database.StageReview); err != nil {
		return fmt.Errorf("failed to move content to review: %w", err)
	}
	return nil
}

// GiveUp keeps the unwritten channel texts in the local fallback log.
func (t *PersistTask) GiveUp(cause error) {
	for _, cr := range t.Result.Succeeded() {
		if t.written[cr.Channel] {
			continue
		}
		row, err := ChannelRow(t.Result.ContentID, cr)
		if err != nil {
			slog.Error("Failed to encode channel for fallback", "content_id", t.Subject, "channel", cr.Channel, "error", err)
			continue
		}
		if err := t.fallback.Write(fallbackKindChannel, row, cause); err != nil {
			slog.Error("Failed to write fallback record", "content_id", t.Subject, "channel", cr.Channel, "error", err)
			continue
		}
		slog.Warn("Channel text kept in fallback log", "content_id", t.Subject, "channel", cr.Channel)
	}
}

// ChannelRow converts a generated channel into its stored row. Issues left
// after auto-fix replace the original findings.
func ChannelRow(contentID string, cr pipeline.ChannelResult) (*database.ChannelContent, error) {
	row := &database.ChannelContent{
		ContentID:   contentID,
		Channel:     cr.Channel,
		Text:        cr.Text,
		HTML:        cr.HTML,
		CharCount:   cr.CharCount,
		RangeStatus: string(cr.RangeStatus),
		Status:      database.ChannelGenerated,
	}

	if cr.Parsed != nil {
		row.Kind = cr.Parsed.Kind
		parsed, err := json.Marshal(cr.Parsed)
		if err != nil {
			return nil, fmt.Errorf("failed to encode parsed %s: %w", cr.Channel, err)
		}
		row.Parsed = parsed
	}

	issues := cr.Issues
	if cr.Fixed {
		issues = cr.Remaining
	}
	if issues == nil {
		issues = []review.Issue{}
	}
	encoded, err := json.Marshal(issues)
	if err != nil {
		return nil, fmt.Errorf("failed to encode issues of %s: %w", cr.Channel, err)
	}
	row.Issues = encoded

	return row, nil
}

// PersistHook queues the storage of every generated result that belongs to
// a stored content item. When the queue refuses the task the texts go
// straight to the fallback log.
func PersistHook(scheduler TaskSchedulerInterface, contentRepo database.ContentRepository, channelRepo database.ChannelRepository, fallback *database.FallbackWriter) pipeline.Hook {
	return func(ctx context.Context, res *pipeline.Result) error {
		if res.ContentID == "" || len(res.Succeeded()) == 0 {
			return nil
		}

		task := NewPersistTask(res, contentRepo, channelRepo, fallback)
		if err := scheduler.EnqueueTask(task); err != nil {
			task.GiveUp(err)
			return fmt.Errorf("failed to queue persistence, kept in fallback log: %w", err)
		}
		return nil
	}
}
