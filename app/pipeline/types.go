package pipeline

import (
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/catalog"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/parser"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/prompt"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/review"
)

type Request struct {
	ContentID string         `json:"contentId,omitempty"` // empty for ad-hoc runs
	Source    prompt.Source  `json:"source"`
	Channels  []string       `json:"channels"`
	Options   prompt.Options `json:"options"`
	Review    bool           `json:"review"`
	AutoFix   bool           `json:"autoFix"`
}

// ChannelResult is the outcome of one channel. On failure Text holds the
// error marker shown in the channel slot and Parsed is nil.
type ChannelResult struct {
	Channel     string              `json:"channel"`
	Text        string              `json:"text"`
	Parsed      *parser.Envelope    `json:"parsed,omitempty"`
	CharCount   int                 `json:"charCount"`
	Range       catalog.Range       `json:"range"`
	RangeStatus catalog.RangeStatus `json:"rangeStatus,omitempty"`
	HTML        string              `json:"html,omitempty"`
	Issues      []review.Issue      `json:"issues,omitempty"`
	Fixed       bool                `json:"fixed,omitempty"`
	Remaining   []review.Issue      `json:"remaining,omitempty"` // deterministic findings left after auto-fix
	Warnings    []string            `json:"warnings,omitempty"`
	Error       string              `json:"error,omitempty"`
	Err         error               `json:"-"`
}

func (c *ChannelResult) Failed() bool {
	return c.Err != nil
}

type Result struct {
	ContentID string          `json:"contentId,omitempty"`
	Source    prompt.Source   `json:"-"`
	Channels  []ChannelResult `json:"channels"`
	Warnings  []string        `json:"warnings,omitempty"`
}

// Succeeded returns the channels that produced content.
func (r *Result) Succeeded() []ChannelResult {
	ok := make([]ChannelResult, 0, len(r.Channels))
	for _, c := range r.Channels {
		if !c.Failed() {
			ok = append(ok, c)
		}
	}
	return ok
}
