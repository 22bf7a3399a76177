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
)

var _ ContentRepository = (*ContentRepo)(nil)

type ContentRepo struct {
	db *DB
}

func NewContentRepository(db *DB) *ContentRepo {
	return &ContentRepo{db: db}
}

const contentColumns = `id, title, source_type, body, ai_draft, category, status, channels,
	confirmed_fields, source_url, COALESCE(content_hash, ''), published_at, created_at, updated_at`

// CreateContent inserts c, filling in its ID, status and timestamps.
func (r *ContentRepo) CreateContent(ctx context.Context, c *Content) error {
	now := time.Now().UTC()
	c.ID = cmp.Or(c.ID, uuid.NewString())
	c.Status = cmp.Or(c.Status, StageDraft)
	c.CreatedAt = now
	c.UpdatedAt = now

	if !ValidStage(c.Status) {
		return fmt.Errorf("%w: %s", ErrInvalidStage, c.Status)
	}

	channels, err := json.Marshal(nonNilSlice(c.Channels))
	if err != nil {
		return fmt.Errorf("failed to encode channels: %w", err)
	}
	confirmed, err := json.Marshal(nonNilMap(c.ConfirmedFields))
	if err != nil {
		return fmt.Errorf("failed to encode confirmed fields: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO contents (
			id, title, source_type, body, ai_draft, category, status, channels,
			confirmed_fields, source_url, content_hash, published_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Title, c.SourceType, c.Body, c.AIDraft, c.Category, c.Status, string(channels),
		string(confirmed), c.SourceURL, nullString(c.ContentHash), c.PublishedAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert content: %w", err)
	}

	return nil
}

func (r *ContentRepo) GetContent(ctx context.Context, id string) (*Content, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM contents WHERE id = ?`, id)

	c, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return c, nil
}

// ListContents returns the newest contents first, optionally by stage.
func (r *ContentRepo) ListContents(ctx context.Context, f ContentFilter) ([]Content, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT ` + contentColumns + ` FROM contents`
	args := []interface{}{}
	if f.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	defer rows.Close()

	var contents []Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		contents = append(contents, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content rows: %w", err)
	}

	return contents, nil
}

// UpdateStatus moves a content item to another stage. Moving to published
// stamps published_at.
func (r *ContentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if !ValidStage(status) {
		return fmt.Errorf("%w: %s", ErrInvalidStage, status)
	}

	now := time.Now().UTC()
	var publishedAt interface{}
	if status == StagePublished {
		publishedAt = now
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE contents
		SET status = ?, published_at = COALESCE(?, published_at), updated_at = ?
		WHERE id = ?
	`, status, publishedAt, now, id)
	if err != nil {
		return fmt.Errorf("failed to update content status: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ContentRepo) HashExists(ctx context.Context, hash string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM contents WHERE content_hash = ? LIMIT 1`, hash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return true, nil
}

func (r *ContentRepo) GetContentCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get content count: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanContent(s scanner) (*Content, error) {
	var c Content
	var channels, confirmed string
	var publishedAt sql.NullTime

	err := s.Scan(&c.ID, &c.Title, &c.SourceType, &c.Body, &c.AIDraft, &c.Category, &c.Status,
		&channels, &confirmed, &c.SourceURL, &c.ContentHash, &publishedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(channels), &c.Channels); err != nil {
		return nil, fmt.Errorf("failed to decode channels: %w", err)
	}
	if err := json.Unmarshal([]byte(confirmed), &c.ConfirmedFields); err != nil {
		return nil, fmt.Errorf("failed to decode confirmed fields: %w", err)
	}
	if publishedAt.Valid {
		c.PublishedAt = &publishedAt.Time
	}

	return &c, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
