package database

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/parser"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/review"
)

var _ ChannelRepository = (*ChannelRepo)(nil)

type ChannelRepo struct {
	db *DB
}

func NewChannelRepository(db *DB) *ChannelRepo {
	return &ChannelRepo{db: db}
}

const channelColumns = `id, content_id, channel, kind, text, parsed, html, char_count,
	range_status, issues, status, created_at, updated_at`

// UpsertChannel writes the generated text for (content_id, channel),
// replacing any earlier value.
func (r *ChannelRepo) UpsertChannel(ctx context.Context, cc *ChannelContent) error {
	now := time.Now().UTC()
	cc.ID = cmp.Or(cc.ID, uuid.NewString())
	cc.Status = cmp.Or(cc.Status, ChannelGenerated)
	cc.UpdatedAt = now
	if cc.CreatedAt.IsZero() {
		cc.CreatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channel_contents (
			id, content_id, channel, kind, text, parsed, html, char_count,
			range_status, issues, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (content_id, channel) DO UPDATE SET
			kind = excluded.kind,
			text = excluded.text,
			parsed = excluded.parsed,
			html = excluded.html,
			char_count = excluded.char_count,
			range_status = excluded.range_status,
			issues = excluded.issues,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, cc.ID, cc.ContentID, cc.Channel, cc.Kind, cc.Text, rawOr(cc.Parsed, "{}"), cc.HTML, cc.CharCount,
		cc.RangeStatus, rawOr(cc.Issues, "[]"), cc.Status, cc.CreatedAt, cc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert channel content: %w", err)
	}

	// an existing row keeps its id and creation time
	err = r.db.QueryRowContext(ctx, `
		SELECT id, created_at FROM channel_contents WHERE content_id = ? AND channel = ?
	`, cc.ContentID, cc.Channel).Scan(&cc.ID, &cc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to read upserted channel content: %w", err)
	}

	return nil
}

func (r *ChannelRepo) GetChannel(ctx context.Context, contentID, channel string) (*ChannelContent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+channelColumns+`
		FROM channel_contents WHERE content_id = ? AND channel = ?`, contentID, channel)

	cc, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel content: %w", err)
	}
	return cc, nil
}

func (r *ChannelRepo) ListChannels(ctx context.Context, contentID string) ([]ChannelContent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+channelColumns+`
		FROM channel_contents WHERE content_id = ? ORDER BY channel`, contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel contents: %w", err)
	}
	defer rows.Close()

	var channels []ChannelContent
	for rows.Next() {
		cc, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		channels = append(channels, *cc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channel rows: %w", err)
	}

	return channels, nil
}

// ApplyEdit replaces a channel text with a user edit, marks the row as
// editing and logs the change with its diff stats.
func (r *ChannelRepo) ApplyEdit(ctx context.Context, contentID, channel, text, reason string) (*EditRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var before, kind, sourceType string
	err = tx.QueryRowContext(ctx, `
		SELECT cc.text, cc.kind, c.source_type
		FROM channel_contents cc JOIN contents c ON c.id = cc.content_id
		WHERE cc.content_id = ? AND cc.channel = ?
	`, contentID, channel).Scan(&before, &kind, &sourceType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read channel text: %w", err)
	}

	parsed := parser.Parse(parser.Key(channel, kind == parser.KindInstagramCarousel), text)
	envelope, err := json.Marshal(parser.Wrap(channel, parsed))
	if err != nil {
		return nil, fmt.Errorf("failed to encode parsed edit: %w", err)
	}

	now := time.Now().UTC()
	stats := review.Diff(before, text)
	rec := &EditRecord{
		ID:          uuid.NewString(),
		ContentType: sourceType,
		ContentID:   contentID,
		Channel:     channel,
		BeforeText:  before,
		AfterText:   text,
		EditType:    stats.Type,
		EditReason:  reason,
		Changes:     stats.Changes,
		Ratio:       stats.Ratio,
		CreatedAt:   now,
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE channel_contents
		SET text = ?, kind = ?, parsed = ?, html = '', char_count = ?, status = ?, updated_at = ?
		WHERE content_id = ? AND channel = ?
	`, text, parsed.Kind(), string(envelope), parsed.Count(), ChannelEditing, now, contentID, channel); err != nil {
		return nil, fmt.Errorf("failed to update channel text: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO edit_history (
			id, content_type, content_id, channel, before_text, after_text,
			edit_type, edit_pattern, edit_reason, changes, ratio, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.ContentType, rec.ContentID, rec.Channel, rec.BeforeText, rec.AfterText,
		rec.EditType, rec.EditPattern, rec.EditReason, rec.Changes, rec.Ratio, rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert edit history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit edit: %w", err)
	}

	return rec, nil
}

// ListEdits returns the latest edits, optionally for one channel.
func (r *ChannelRepo) ListEdits(ctx context.Context, channel string, limit int) ([]EditRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, content_type, content_id, channel, before_text, after_text,
		edit_type, edit_pattern, edit_reason, changes, ratio, created_at FROM edit_history`
	args := []interface{}{}
	if channel != "" {
		query += ` WHERE channel = ?`
		args = append(args, channel)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}
	defer rows.Close()

	var edits []EditRecord
	for rows.Next() {
		var e EditRecord
		if err := rows.Scan(&e.ID, &e.ContentType, &e.ContentID, &e.Channel, &e.BeforeText, &e.AfterText,
			&e.EditType, &e.EditPattern, &e.EditReason, &e.Changes, &e.Ratio, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan edit row: %w", err)
		}
		edits = append(edits, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edit rows: %w", err)
	}

	return edits, nil
}

// ListPublished returns the channel texts of published contents, newest first.
func (r *ChannelRepo) ListPublished(ctx context.Context, channel string, limit int) ([]Published, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id FROM contents c JOIN channel_contents cc ON cc.content_id = c.id
		WHERE c.status = ? AND cc.channel = ?
		ORDER BY COALESCE(c.published_at, c.updated_at) DESC
		LIMIT ?
	`, StagePublished, channel, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list published contents: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan published row: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating published rows: %w", err)
	}

	contents := NewContentRepository(r.db)
	published := make([]Published, 0, len(ids))
	for _, id := range ids {
		c, err := contents.GetContent(ctx, id)
		if err != nil {
			return nil, err
		}
		cc, err := r.GetChannel(ctx, id, channel)
		if err != nil {
			return nil, err
		}
		published = append(published, Published{Content: *c, Channel: *cc})
	}

	return published, nil
}

func scanChannel(s scanner) (*ChannelContent, error) {
	var cc ChannelContent
	var parsed, issues string

	err := s.Scan(&cc.ID, &cc.ContentID, &cc.Channel, &cc.Kind, &cc.Text, &parsed, &cc.HTML, &cc.CharCount,
		&cc.RangeStatus, &issues, &cc.Status, &cc.CreatedAt, &cc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	cc.Parsed = []byte(parsed)
	cc.Issues = []byte(issues)
	return &cc, nil
}

func rawOr(raw []byte, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	return string(raw)
}
