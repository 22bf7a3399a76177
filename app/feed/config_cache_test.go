package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write source config: %v", err)
	}
}

func TestConfigCache_Run(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "newsroom", `url: "https://britzmedi.com/news/rss"
settings:
  enabled: true
  max_items: 5
  content_type: "research"
filters:
  - field: "title"
    excludes: ["채용"]
`)
	writeSource(t, dir, "blog", `url: "https://blog.britzmedi.com/rss"
settings:
  enabled: false
`)

	cache := NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cache.GetConfigCount() != 2 {
		t.Errorf("Expected 2 configs, got %d", cache.GetConfigCount())
	}

	config, err := cache.GetConfig("newsroom")
	if err != nil {
		t.Fatalf("Expected config, got: %v", err)
	}
	if config.Settings.MaxItems != 5 {
		t.Errorf("Expected max items 5, got %d", config.Settings.MaxItems)
	}
	if config.Settings.RefreshInterval != 3600 || config.Settings.Timeout != 30 {
		t.Errorf("Expected defaults to be applied, got %+v", config.Settings)
	}
	if config.Settings.ContentType != "research" {
		t.Errorf("Expected content type 'research', got %s", config.Settings.ContentType)
	}

	enabled := cache.GetEnabledConfigs()
	if len(enabled) != 1 || enabled[0].Name != "newsroom" {
		t.Errorf("Expected only newsroom to be enabled, got %v", enabled)
	}
}

func TestConfigCache_RunMissingDir(t *testing.T) {
	cache := NewConfigCache(filepath.Join(t.TempDir(), "missing"))
	if err := cache.Run(); err != nil {
		t.Errorf("Expected missing directory to be ignored, got: %v", err)
	}
	if cache.GetConfigCount() != 0 {
		t.Errorf("Expected no configs, got %d", cache.GetConfigCount())
	}
}

func TestConfigCache_InvalidFilter(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "broken", `url: "https://britzmedi.com/news/rss"
filters:
  - field: "author"
    includes: ["kim"]
`)

	err := NewConfigCache(dir).Run()
	if err == nil {
		t.Fatal("Expected error for invalid filter field")
	}
	if !strings.Contains(err.Error(), "invalid filter field") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestConfigCache_MissingURL(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "empty", "settings:\n  enabled: true\n")

	if err := NewConfigCache(dir).Run(); err == nil {
		t.Error("Expected error for missing URL")
	}
}

func TestConfigCache_AddURL(t *testing.T) {
	cache := NewConfigCache("")

	config, err := cache.AddURL("https://britzmedi.com/news/rss")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if config.Name != "britzmedi.com-news-rss" {
		t.Errorf("Expected name from host and path, got %s", config.Name)
	}
	if !config.Settings.Enabled || !config.Settings.ExtractContent {
		t.Errorf("Expected enabled source with extraction, got %+v", config.Settings)
	}
	if config.Settings.ContentType != "press_release" {
		t.Errorf("Expected press_release, got %s", config.Settings.ContentType)
	}

	if _, err := cache.AddURL("not a url"); err == nil {
		t.Error("Expected error for invalid URL")
	}
	if len(cache.GetEnabledConfigs()) != 1 {
		t.Errorf("Expected 1 enabled config, got %d", len(cache.GetEnabledConfigs()))
	}
}
