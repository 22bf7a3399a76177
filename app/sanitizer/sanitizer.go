// Package sanitizer cleans raw model output before it is parsed per channel.
//
// Cleaning is an ordered list of named passes; each pass works on the output
// of the previous one. The whole list is re-applied until the text stops
// changing, so Sanitize(Sanitize(x)) == Sanitize(x).
package sanitizer

import "strings"

const maxRounds = 8

type Pass struct {
	Name  string
	Apply func(string) string
}

type Sanitizer struct {
	passes []Pass
}

type options struct {
	keepDividers bool
	labels       []string
}

type Option func(*options)

// WithDividers keeps horizontal rules as a bare "---" line instead of
// removing them. Channels that split sections on a divider need this.
func WithDividers() Option {
	return func(o *options) {
		o.keepDividers = true
	}
}

// WithLabels adds channel-name spellings to the channel-label pass.
func WithLabels(labels ...string) Option {
	return func(o *options) {
		o.labels = append(o.labels, labels...)
	}
}

func New(opts ...Option) *Sanitizer {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	labels := newLabelSet(append(append([]string{}, defaultChannelLabels...), o.labels...))
	keepDividers := o.keepDividers

	return &Sanitizer{
		passes: []Pass{
			{Name: "markdown", Apply: func(s string) string { return StripMarkdown(s, keepDividers) }},
			{Name: "channel-label", Apply: func(s string) string { return labels.strip(s) }},
			{Name: "section-label", Apply: StripSectionLabels},
			{Name: "tag-line", Apply: StripTagLines},
			{Name: "whitespace", Apply: NormalizeWhitespace},
		},
	}
}

var defaultSanitizer = New()

// Default returns the shared sanitizer with the built-in channel labels.
func Default() *Sanitizer {
	return defaultSanitizer
}

// Sanitize cleans text with the default pass list.
func Sanitize(text string) string {
	return defaultSanitizer.Sanitize(text)
}

func (s *Sanitizer) Sanitize(text string) string {
	if text == "" {
		return ""
	}

	current := strings.ReplaceAll(text, "\r\n", "\n")
	for round := 0; round < maxRounds; round++ {
		next := current
		for _, pass := range s.passes {
			next = pass.Apply(next)
		}
		if next == current {
			break
		}
		current = next
	}
	return current
}

// PassNames lists the passes in application order.
func (s *Sanitizer) PassNames() []string {
	names := make([]string, 0, len(s.passes))
	for _, p := range s.passes {
		names = append(names, p.Name)
	}
	return names
}
