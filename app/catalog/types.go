package catalog

// Output shapes a channel can produce
const (
	ShapeText   = "text"
	ShapeHTML   = "html"
	ShapeSlides = "slides"
)

// Source content types
const (
	TypePressRelease  = "press_release"
	TypeResearch      = "research"
	TypeInstallation  = "installation"
	TypeCompanyLife   = "company_life"
	TypeProductTips   = "product_tips"
	TypeIndustryTrend = "industry_trend"
	TypeSuccessStory  = "success_story"
	TypeEventPromo    = "event_promo"
)

type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

type RangeStatus string

const (
	RangeBelow RangeStatus = "below"
	RangeOK    RangeStatus = "ok"
	RangeAbove RangeStatus = "above"
)

// Check reports where n falls relative to the range. A zero Max means no upper bound.
func (r Range) Check(n int) RangeStatus {
	if n < r.Min {
		return RangeBelow
	}
	if r.Max > 0 && n > r.Max {
		return RangeAbove
	}
	return RangeOK
}

type Channel struct {
	ID        string   `yaml:"id" json:"id"`
	Name      string   `yaml:"name" json:"name"`
	Aliases   []string `yaml:"aliases" json:"aliases,omitempty"`
	Range     Range    `yaml:"range" json:"range"`
	Tone      string   `yaml:"tone" json:"tone"`
	Shape     string   `yaml:"shape" json:"shape"`
	Languages []string `yaml:"languages" json:"languages,omitempty"`
	MaxTokens int      `yaml:"max_tokens" json:"max_tokens"`
	Divider   bool     `yaml:"divider" json:"divider,omitempty"` // body sections split on a bare --- line
	Rules     []string `yaml:"rules" json:"rules,omitempty"`
}

// Spellings returns every label the model might echo back for this channel.
func (c *Channel) Spellings() []string {
	spellings := make([]string, 0, len(c.Aliases)+2)
	spellings = append(spellings, c.ID, c.Name)
	spellings = append(spellings, c.Aliases...)
	return spellings
}

func (c *Channel) SupportsLanguage(lang string) bool {
	for _, l := range c.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

type ContentField struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

type ContentType struct {
	ID     string         `yaml:"id" json:"id"`
	Name   string         `yaml:"name" json:"name"`
	Fields []ContentField `yaml:"fields" json:"fields,omitempty"`
	Rules  []string       `yaml:"rules" json:"rules,omitempty"`
}

type Brand struct {
	Company  string   `yaml:"company" json:"company"`
	Products []string `yaml:"products" json:"products"`
	Context  string   `yaml:"context" json:"context"`
}

// ForbiddenTerm is a medically prohibited expression. An empty Replacement
// means the claim carrying the term is dropped.
type ForbiddenTerm struct {
	Term        string `yaml:"term" json:"term"`
	Replacement string `yaml:"replacement" json:"replacement,omitempty"`
}

type channelsFile struct {
	Channels []Channel `yaml:"channels"`
}

type contentTypesFile struct {
	ContentTypes []ContentType `yaml:"content_types"`
}

type brandFile struct {
	Brand Brand `yaml:"brand"`
}

type rulesFile struct {
	Forbidden  []ForbiddenTerm   `yaml:"forbidden"`
	FieldLabel map[string]string `yaml:"field_labels"`
}
