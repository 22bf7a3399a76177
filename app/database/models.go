package database

import (
	"encoding/json"
	"time"
)

// Content lifecycle stages. Changes happen only through an explicit status update.
const (
	StageDraft     = "draft"
	StageReview    = "review"
	StageApproved  = "approved"
	StagePublished = "published"
)

// Channel row states
const (
	ChannelGenerated = "generated"
	ChannelEditing   = "editing"
	ChannelFailed    = "failed"
)

var stages = map[string]bool{
	StageDraft:     true,
	StageReview:    true,
	StageApproved:  true,
	StagePublished: true,
}

func ValidStage(s string) bool {
	return stages[s]
}

// Content is one source item and its pipeline stage.
type Content struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	SourceType      string            `json:"sourceType"`
	Body            string            `json:"body"`
	AIDraft         string            `json:"aiDraft,omitempty"`
	Category        string            `json:"category,omitempty"`
	Status          string            `json:"status"`
	Channels        []string          `json:"channels"`
	ConfirmedFields map[string]string `json:"confirmedFields,omitempty"`
	SourceURL       string            `json:"sourceUrl,omitempty"`
	ContentHash     string            `json:"contentHash,omitempty"`
	PublishedAt     *time.Time        `json:"publishedAt,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// ChannelContent is the final text of one channel for one content item.
type ChannelContent struct {
	ID          string          `json:"id"`
	ContentID   string          `json:"contentId"`
	Channel     string          `json:"channel"`
	Kind        string          `json:"kind,omitempty"`
	Text        string          `json:"text"`
	Parsed      json.RawMessage `json:"parsed,omitempty"`
	HTML        string          `json:"html,omitempty"`
	CharCount   int             `json:"charCount"`
	RangeStatus string          `json:"rangeStatus,omitempty"`
	Issues      json.RawMessage `json:"issues,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// EditRecord is one user edit of a channel text.
type EditRecord struct {
	ID          string    `json:"id"`
	ContentType string    `json:"contentType"`
	ContentID   string    `json:"contentId"`
	Channel     string    `json:"channel"`
	BeforeText  string    `json:"beforeText"`
	AfterText   string    `json:"afterText"`
	EditType    string    `json:"editType"`
	EditPattern string    `json:"editPattern,omitempty"`
	EditReason  string    `json:"editReason,omitempty"`
	Changes     int       `json:"changes"`
	Ratio       float64   `json:"ratio"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ContentFilter struct {
	Status string
	Limit  int
}

// Published pairs a published content item with its text for one channel.
type Published struct {
	Content Content
	Channel ChannelContent
}
