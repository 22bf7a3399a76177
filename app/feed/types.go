package feed

import (
	"time"
)

type Metadata struct {
	Title           string
	Link            string
	Description     string
	Language        string
	FeedPublishedAt *time.Time
}

// Item is one newsroom entry, normalised from RSS or Atom.
type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time
	Categories  []string

	ContentHash  string
	IsFiltered   bool
	FilterReason string
}

// Source configuration, one YAML file per newsroom feed.

type Config struct {
	Name     string         // derived from filename without .yml
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled         bool   `yaml:"enabled"`
	RefreshInterval int    `yaml:"refresh_interval"` // seconds
	MaxItems        int    `yaml:"max_items"`
	Timeout         int    `yaml:"timeout"`         // seconds
	ExtractContent  bool   `yaml:"extract_content"` // fetch the linked page when the entry body is short
	ContentType     string `yaml:"content_type"`    // source type assigned to imported items
	Category        string `yaml:"category"`
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
