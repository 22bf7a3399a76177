package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/database"
)

// ChannelFeed describes the outbound RSS feed of one publishing channel.
type ChannelFeed struct {
	Title       string
	Link        string
	SelfURL     string
	Description string
	Language    string
	Generator   string
}

type Entry = database.Published

// Generator renders published channel texts as RSS 2.0 so downstream
// publishing tools can pick them up.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Run(feed ChannelFeed, entries []Entry) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", feed.Title, 4)
	g.writeElement(&buf, "link", feed.Link, 4)
	g.writeElement(&buf, "description", cmp.Or(feed.Description, feed.Title), 4)

	if feed.SelfURL != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(feed.SelfURL)))
	}

	lastBuildDate := time.Now().In(time.Local)
	if len(entries) > 0 {
		lastBuildDate = entryDate(entries[0])
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", feed.Generator, 4)
	g.writeElement(&buf, "language", feed.Language, 4)

	for _, e := range entries {
		g.writeItem(&buf, e)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, e Entry) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(e.Channel.ID))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", e.Content.Title, 6)
	g.writeElement(buf, "link", e.Content.SourceURL, 6)
	g.writeElement(buf, "description", e.Channel.Text, 6)

	if e.Channel.HTML != "" {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(e.Channel.HTML)
		buf.WriteString("]]></content:encoded>\n")
	}

	g.writeElement(buf, "pubDate", entryDate(e).Format(time.RFC1123Z), 6)
	g.writeElement(buf, "category", e.Content.SourceType, 6)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func entryDate(e Entry) time.Time {
	if e.Content.PublishedAt != nil {
		return *e.Content.PublishedAt
	}
	return e.Channel.UpdatedAt
}
