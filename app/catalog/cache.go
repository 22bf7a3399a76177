package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yml
var defaultsFS embed.FS

const (
	channelsFileName     = "channels.yml"
	contentTypesFileName = "content_types.yml"
	brandFileName        = "brand.yml"
	rulesFileName        = "rules.yml"
)

var validShapes = map[string]bool{
	ShapeText:   true,
	ShapeHTML:   true,
	ShapeSlides: true,
}

// Catalog holds the channel catalog and the rest of the generation
// configuration. Channels are configuration, not runtime state; Run replaces
// the whole catalog at once.
type Catalog struct {
	overrideDir  string
	channels     map[string]*Channel
	order        []string
	contentTypes map[string]*ContentType
	brand        Brand
	forbidden    []ForbiddenTerm
	fieldLabels  map[string]string
	mu           sync.RWMutex
}

func NewCatalog(overrideDir string) *Catalog {
	return &Catalog{
		overrideDir:  overrideDir,
		channels:     make(map[string]*Channel),
		contentTypes: make(map[string]*ContentType),
		fieldLabels:  make(map[string]string),
	}
}

// Default returns a catalog loaded from the embedded defaults only.
func Default() (*Catalog, error) {
	c := NewCatalog("")
	if err := c.Run(); err != nil {
		return nil, err
	}
	return c, nil
}

// Run loads every catalog file, preferring the override directory over the
// embedded defaults file by file.
func (c *Catalog) Run() error {
	var channels channelsFile
	if err := c.loadFile(channelsFileName, &channels); err != nil {
		return err
	}
	var types contentTypesFile
	if err := c.loadFile(contentTypesFileName, &types); err != nil {
		return err
	}
	var brand brandFile
	if err := c.loadFile(brandFileName, &brand); err != nil {
		return err
	}
	var rules rulesFile
	if err := c.loadFile(rulesFileName, &rules); err != nil {
		return err
	}

	channelMap := make(map[string]*Channel, len(channels.Channels))
	order := make([]string, 0, len(channels.Channels))
	for i := range channels.Channels {
		ch := channels.Channels[i]
		if err := validateChannel(&ch); err != nil {
			return fmt.Errorf("invalid channel at index %d: %w", i, err)
		}
		if _, dup := channelMap[ch.ID]; dup {
			return fmt.Errorf("duplicate channel id: %s", ch.ID)
		}
		channelMap[ch.ID] = &ch
		order = append(order, ch.ID)
	}

	typeMap := make(map[string]*ContentType, len(types.ContentTypes))
	for i := range types.ContentTypes {
		ct := types.ContentTypes[i]
		if ct.ID == "" {
			return fmt.Errorf("content type at index %d has no id", i)
		}
		typeMap[ct.ID] = &ct
	}

	for i, term := range rules.Forbidden {
		if term.Term == "" {
			return fmt.Errorf("forbidden term at index %d is empty", i)
		}
	}

	labels := rules.FieldLabel
	if labels == nil {
		labels = make(map[string]string)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels = channelMap
	c.order = order
	c.contentTypes = typeMap
	c.brand = brand.Brand
	c.forbidden = rules.Forbidden
	c.fieldLabels = labels

	slog.Debug("Catalog loaded", "channels", len(channelMap), "content_types", len(typeMap), "forbidden_terms", len(rules.Forbidden))

	return nil
}

func (c *Catalog) Channel(id string) (*Channel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ch, ok := c.channels[id]
	if !ok {
		return nil, fmt.Errorf("channel '%s' not found", id)
	}
	return ch, nil
}

// Channels returns the catalog in file order.
func (c *Catalog) Channels() []Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()

	channels := make([]Channel, 0, len(c.order))
	for _, id := range c.order {
		channels = append(channels, *c.channels[id])
	}
	return channels
}

func (c *Catalog) ContentType(id string) (*ContentType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ct, ok := c.contentTypes[id]
	if !ok {
		return nil, fmt.Errorf("content type '%s' not found", id)
	}
	return ct, nil
}

func (c *Catalog) ContentTypes() []ContentType {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.contentTypes))
	for id := range c.contentTypes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	types := make([]ContentType, 0, len(ids))
	for _, id := range ids {
		types = append(types, *c.contentTypes[id])
	}
	return types
}

// ChannelLabels lists every known spelling of every channel name.
func (c *Catalog) ChannelLabels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var labels []string
	for _, id := range c.order {
		labels = append(labels, c.channels[id].Spellings()...)
	}
	return labels
}

func (c *Catalog) Brand() Brand {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.brand
}

func (c *Catalog) Forbidden() []ForbiddenTerm {
	c.mu.RLock()
	defer c.mu.RUnlock()

	terms := make([]ForbiddenTerm, len(c.forbidden))
	copy(terms, c.forbidden)
	return terms
}

// FieldLabel returns the display label of a confirmed-field key, or the key itself.
func (c *Catalog) FieldLabel(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if label, ok := c.fieldLabels[key]; ok && label != "" {
		return label
	}
	return key
}

func (c *Catalog) loadFile(name string, out interface{}) error {
	data, err := c.readFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse YAML %s: %w", name, err)
	}
	return nil
}

func (c *Catalog) readFile(name string) ([]byte, error) {
	if c.overrideDir != "" {
		data, err := fs.ReadFile(os.DirFS(c.overrideDir), name)
		if err == nil {
			slog.Debug("Catalog file overridden", "file", name, "dir", c.overrideDir)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return fs.ReadFile(defaultsFS, "defaults/"+name)
}

func validateChannel(ch *Channel) error {
	if ch.ID == "" {
		return fmt.Errorf("channel id is required")
	}
	if ch.Name == "" {
		return fmt.Errorf("channel name is required")
	}
	if !validShapes[ch.Shape] {
		return fmt.Errorf("invalid shape for %s: %s", ch.ID, ch.Shape)
	}

	nonNegativeFields := map[string]int{
		"range min":  ch.Range.Min,
		"range max":  ch.Range.Max,
		"max tokens": ch.MaxTokens,
	}
	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if ch.Range.Max > 0 && ch.Range.Min > ch.Range.Max {
		return fmt.Errorf("range min %d exceeds max %d for %s", ch.Range.Min, ch.Range.Max, ch.ID)
	}
	if ch.MaxTokens == 0 {
		ch.MaxTokens = 2048
	}
	return nil
}
