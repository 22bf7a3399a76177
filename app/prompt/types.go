package prompt

import "time"

// Source is the canonical input to repurposing. It is not modified once a
// generation run starts.
type Source struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Category string            `json:"category,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Date     string            `json:"date,omitempty"`
}

// Learning is context distilled from earlier user edits.
type Learning struct {
	EditPatterns []string `json:"editPatterns,omitempty"`
	VoiceRules   []string `json:"voiceRules,omitempty"`
	Facts        []string `json:"facts,omitempty"`
}

func (l *Learning) empty() bool {
	return l == nil || len(l.EditPatterns)+len(l.VoiceRules)+len(l.Facts) == 0
}

type Options struct {
	Language        string            `json:"language,omitempty"` // ko, en or ko+en where the channel allows it
	Carousel        bool              `json:"carousel,omitempty"`
	ExtraContext    string            `json:"extraContext,omitempty"`
	ConfirmedFields map[string]string `json:"confirmedFields,omitempty"`
	Learning        *Learning         `json:"learning,omitempty"`
	Today           time.Time         `json:"-"`
}

// Fix is one flagged problem handed to the auto-fix prompt.
type Fix struct {
	Severity string
	Category string
	Message  string
	Quote    string
}
