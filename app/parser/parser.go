// Package parser turns sanitized model output into structured per-channel
// content. Parsing never fails: a missing or panicking strategy degrades to
// the default {body, charCount} shape.
package parser

import (
	"log/slog"
	"strings"
	"sync"
)

type ParseFunc func(text string) Content

type Registry struct {
	parsers map[string]ParseFunc
	mu      sync.RWMutex
}

// NewRegistry returns a registry holding the built-in channel strategies.
func NewRegistry() *Registry {
	return &Registry{
		parsers: map[string]ParseFunc{
			"naver-blog":          parseNaverBlog,
			"kakao":               parseDefault,
			"instagram":           parseInstagram,
			KindInstagramCarousel: parseInstagramCarousel,
			"linkedin":            parseLinkedIn,
			"newsletter":          parseNewsletter,
			"pressrelease":        parsePressRelease,
		},
	}
}

var defaultRegistry = NewRegistry()

// Parse runs the default registry.
func Parse(channelID, text string) Content {
	return defaultRegistry.Parse(channelID, text)
}

// Key returns the registry key for a channel, selecting the carousel
// strategy for instagram when requested.
func Key(channelID string, carousel bool) string {
	if carousel && channelID == "instagram" {
		return KindInstagramCarousel
	}
	return channelID
}

func (r *Registry) Register(key string, fn ParseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[key] = fn
}

func (r *Registry) Parse(key, text string) (content Content) {
	r.mu.RLock()
	fn, ok := r.parsers[key]
	r.mu.RUnlock()

	if !ok {
		return parseDefault(text)
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("Channel parser failed, using default shape", "channel", key, "panic", rec)
			content = parseDefault(text)
		}
	}()

	content = fn(text)
	if content == nil || (content.MainText() == "" && strings.TrimSpace(text) != "") {
		slog.Debug("channel parser found no body, using default shape", "channel", key)
		return parseDefault(text)
	}
	return content
}

func parseDefault(text string) Content {
	return &TextContent{Body: text, CharCount: CharCount(text)}
}

func parseNaverBlog(text string) Content {
	c := &NaverBlogContent{}
	lines := splitLines(text)

	var body []string
	titleDone := false
	for i, line := range lines {
		if v, ok := labeledValue(line, titleLabels...); ok && !titleDone {
			c.Title = v
			titleDone = true
			continue
		}
		if v, ok := labeledValue(line, seoLabels...); ok {
			c.SeoKeywords = append(c.SeoKeywords, splitList(v)...)
			continue
		}
		if v, ok := labeledValue(line, tagLabels...); ok {
			c.Tags = append(c.Tags, splitList(v)...)
			continue
		}
		if tags, ok := hashtagLine(line); ok {
			c.Tags = append(c.Tags, tags...)
			continue
		}
		if !titleDone && strings.TrimSpace(line) != "" {
			titleDone = true
			if looksLikeTitle(line, hasContentAfter(lines, i)) {
				c.Title = strings.TrimSpace(line)
				continue
			}
		}
		body = append(body, line)
	}

	c.Body = cleanBody(body)
	for _, m := range imagePlaceholderRe.FindAllStringSubmatch(c.Body, -1) {
		c.Images = append(c.Images, strings.TrimSpace(m[1]))
	}
	c.Tags = dedupe(c.Tags)
	c.SeoKeywords = dedupe(c.SeoKeywords)
	c.CharCount = CharCount(stripPlaceholders(c.Body))
	return c
}

func parseInstagram(text string) Content {
	c := &InstagramContent{}

	var caption []string
	var tags []string
	for _, line := range splitLines(text) {
		if v, ok := labeledValue(line, imageGuideLabels...); ok {
			c.ImageGuide = v
			continue
		}
		if v, ok := labeledValue(line, captionLabels...); ok {
			if v != "" {
				caption = append(caption, v)
			}
			continue
		}
		if v, ok := labeledValue(line, tagLabels...); ok {
			tags = append(tags, splitList(v)...)
			continue
		}
		if t, ok := hashtagLine(line); ok {
			tags = append(tags, t...)
			continue
		}
		caption = append(caption, line)
	}

	c.Caption = cleanBody(caption)
	c.Hashtags = dedupe(tags)
	c.CharCount = CharCount(c.Caption)
	return c
}

func parseInstagramCarousel(text string) Content {
	c := &InstagramCarousel{}

	var slides []string
	var current []string
	var loose []string
	var tags []string
	inSlide := false

	flush := func() {
		if inSlide {
			if s := cleanBody(current); s != "" {
				slides = append(slides, s)
			}
		}
		current = nil
	}

	for _, line := range splitLines(text) {
		if t, ok := hashtagLine(line); ok {
			tags = append(tags, t...)
			continue
		}
		if v, ok := labeledValue(line, tagLabels...); ok {
			tags = append(tags, splitList(v)...)
			continue
		}
		if m := slideMarkerRe.FindStringSubmatch(line); m != nil {
			flush()
			inSlide = true
			if rest := strings.TrimSpace(m[2]); rest != "" {
				current = append(current, rest)
			}
			continue
		}
		if inSlide {
			current = append(current, line)
		} else {
			loose = append(loose, line)
		}
	}
	flush()

	intro := cleanBody(loose)
	if len(slides) == 0 {
		slides = paragraphs(intro)
	} else if intro != "" {
		slides = append([]string{intro}, slides...)
	}

	c.Slides = slides
	c.Hashtags = dedupe(tags)
	for _, s := range slides {
		c.CharCount += CharCount(s)
	}
	return c
}

func parseLinkedIn(text string) Content {
	c := &LinkedInContent{}

	ko, en, found := cutDivider(text)
	body, tags := splitHashtags(ko)
	c.Body = body
	if found {
		bodyEn, tagsEn := splitHashtags(en)
		c.BodyEn = bodyEn
		tags = append(tags, tagsEn...)
	}

	c.Hashtags = dedupe(tags)
	c.CharCount = CharCount(c.MainText())
	return c
}

func parseNewsletter(text string) Content {
	c := &NewsletterContent{}

	var body []string
	for _, line := range splitLines(text) {
		if v, ok := labeledValue(line, titleLabels...); ok && c.Title == "" {
			c.Title = v
			continue
		}
		if v, ok := labeledValue(line, preheaderLabels...); ok && c.Preheader == "" {
			c.Preheader = v
			continue
		}
		body = append(body, line)
	}

	c.Body = cleanBody(body)
	c.CharCount = CharCount(c.Body)
	return c
}

func parsePressRelease(text string) Content {
	c := &PressReleaseContent{}
	lines := splitLines(text)

	var body []string
	titleDone := false
	for i, line := range lines {
		if v, ok := labeledValue(line, titleLabels...); ok && !titleDone {
			c.Title = v
			titleDone = true
			continue
		}
		if v, ok := labeledValue(line, subtitleLabels...); ok && c.Subtitle == "" {
			c.Subtitle = v
			continue
		}
		if !titleDone && strings.TrimSpace(line) != "" {
			titleDone = true
			if looksLikeTitle(line, hasContentAfter(lines, i)) {
				c.Title = strings.TrimSpace(line)
				continue
			}
		}
		body = append(body, line)
	}

	c.Body = cleanBody(body)
	c.CharCount = CharCount(c.Body)
	return c
}
