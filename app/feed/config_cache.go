package feed

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/catalog"
)

const (
	defaultRefreshInterval = 3600
	defaultMaxItems        = 20
	defaultTimeout         = 30
)

var filterFields = map[string]bool{
	"title":       true,
	"description": true,
	"content":     true,
	"link":        true,
	"categories":  true,
}

// ConfigCache holds the newsroom sources, loaded from a directory of YAML
// files and from feed URLs given on the command line.
type ConfigCache struct {
	sourcesDir string
	cache      map[string]*Config
	mu         sync.RWMutex
}

func NewConfigCache(sourcesDir string) *ConfigCache {
	return &ConfigCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if cc.sourcesDir == "" {
		return nil
	}
	if _, err := os.Stat(cc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := cc.LoadConfig(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source configuration loaded", "source", name, "enabled", config.Settings.Enabled, "refresh_interval", config.Settings.RefreshInterval)
	}

	return nil
}

// AddURL registers a newsroom feed given only by URL, with default settings.
func (cc *ConfigCache) AddURL(rawURL string) (*Config, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid feed URL: %s", rawURL)
	}

	config := &Config{
		Name:     strings.ReplaceAll(u.Host+u.Path, "/", "-"),
		URL:      rawURL,
		Settings: ConfigSettings{Enabled: true, ExtractContent: true},
	}
	applyDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = config
	return config, nil
}

func (cc *ConfigCache) LoadConfig(name string) (*Config, error) {
	configFile := filepath.Join(cc.sourcesDir, name+".yml")

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	config.Name = name
	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = &config

	return &config, nil
}

func (cc *ConfigCache) GetConfig(name string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[name]
	if !ok {
		return nil, fmt.Errorf("source config with name '%s' not found", name)
	}
	return config, nil
}

// GetEnabledConfigs returns enabled sources ordered by name.
func (cc *ConfigCache) GetEnabledConfigs() []*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configs := make([]*Config, 0, len(cc.cache))
	for _, c := range cc.cache {
		if c.Settings.Enabled {
			configs = append(configs, c)
		}
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func applyDefaults(c *Config) {
	if c.Settings.RefreshInterval == 0 {
		c.Settings.RefreshInterval = defaultRefreshInterval
	}
	if c.Settings.MaxItems == 0 {
		c.Settings.MaxItems = defaultMaxItems
	}
	if c.Settings.Timeout == 0 {
		c.Settings.Timeout = defaultTimeout
	}
	if c.Settings.ContentType == "" {
		c.Settings.ContentType = catalog.TypePressRelease
	}
}

func validateConfig(c *Config) error {
	if c.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if c.URL == "" {
		return fmt.Errorf("source URL is required")
	}

	if c.Settings.RefreshInterval < 0 || c.Settings.MaxItems < 0 || c.Settings.Timeout < 0 {
		return fmt.Errorf("refresh interval, max items and timeout must be non-negative")
	}

	for i, filter := range c.Filters {
		if !filterFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
