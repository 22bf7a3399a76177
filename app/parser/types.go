package parser

// Content kinds
const (
	KindText              = "text"
	KindNaverBlog         = "naver-blog"
	KindInstagram         = "instagram"
	KindInstagramCarousel = "instagram-carousel"
	KindLinkedIn          = "linkedin"
	KindNewsletter        = "newsletter"
	KindPressRelease      = "pressrelease"
)

// Content is the structured result of parsing one channel's output.
// Count is the user-facing character count checked against the channel range.
type Content interface {
	Kind() string
	MainText() string
	Count() int
}

type TextContent struct {
	Body      string `json:"body"`
	CharCount int    `json:"charCount"`
}

func (c *TextContent) Kind() string     { return KindText }
func (c *TextContent) MainText() string { return c.Body }
func (c *TextContent) Count() int       { return c.CharCount }

type NaverBlogContent struct {
	Title       string   `json:"title,omitempty"`
	Body        string   `json:"body"`
	Tags        []string `json:"tags,omitempty"`
	SeoKeywords []string `json:"seoKeywords,omitempty"`
	Images      []string `json:"images,omitempty"`
	CharCount   int      `json:"charCount"`
}

func (c *NaverBlogContent) Kind() string     { return KindNaverBlog }
func (c *NaverBlogContent) MainText() string { return c.Body }
func (c *NaverBlogContent) Count() int       { return c.CharCount }

type InstagramContent struct {
	Caption    string   `json:"caption"`
	Hashtags   []string `json:"hashtags,omitempty"`
	ImageGuide string   `json:"imageGuide,omitempty"`
	CharCount  int      `json:"charCount"`
}

func (c *InstagramContent) Kind() string     { return KindInstagram }
func (c *InstagramContent) MainText() string { return c.Caption }
func (c *InstagramContent) Count() int       { return c.CharCount }

type InstagramCarousel struct {
	Slides    []string `json:"slides"`
	Hashtags  []string `json:"hashtags,omitempty"`
	CharCount int      `json:"charCount"`
}

func (c *InstagramCarousel) Kind() string { return KindInstagramCarousel }

func (c *InstagramCarousel) MainText() string {
	return joinParagraphs(c.Slides)
}

func (c *InstagramCarousel) Count() int { return c.CharCount }

// LinkedInContent holds the Korean body and, for the bilingual variant, the
// English body that follows the divider.
type LinkedInContent struct {
	Body      string   `json:"body"`
	Hashtags  []string `json:"hashtags,omitempty"`
	BodyEn    string   `json:"bodyEn,omitempty"`
	CharCount int      `json:"charCount"`
}

func (c *LinkedInContent) Kind() string { return KindLinkedIn }

func (c *LinkedInContent) MainText() string {
	if c.Body == "" {
		return c.BodyEn
	}
	return c.Body
}

func (c *LinkedInContent) Count() int { return c.CharCount }

type NewsletterContent struct {
	Title     string `json:"title,omitempty"`
	Preheader string `json:"preheader,omitempty"`
	Body      string `json:"body"`
	CharCount int    `json:"charCount"`
}

func (c *NewsletterContent) Kind() string     { return KindNewsletter }
func (c *NewsletterContent) MainText() string { return c.Body }
func (c *NewsletterContent) Count() int       { return c.CharCount }

type PressReleaseContent struct {
	Title     string `json:"title,omitempty"`
	Subtitle  string `json:"subtitle,omitempty"`
	Body      string `json:"body"`
	CharCount int    `json:"charCount"`
}

func (c *PressReleaseContent) Kind() string     { return KindPressRelease }
func (c *PressReleaseContent) MainText() string { return c.Body }
func (c *PressReleaseContent) Count() int       { return c.CharCount }

// Envelope is the wire shape of a parsed channel result.
type Envelope struct {
	Channel string  `json:"channel"`
	Kind    string  `json:"kind"`
	Content Content `json:"content"`
}

func Wrap(channelID string, c Content) Envelope {
	return Envelope{Channel: channelID, Kind: c.Kind(), Content: c}
}
