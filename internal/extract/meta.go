package extract

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Meta is article metadata read from the page head.
type Meta struct {
	Title       string
	Description string
	Author      string
	SiteName    string
	PublishedAt *time.Time
}

// MetaFromHTML reads title, author, description and publication date from
// OpenGraph, article and standard meta tags.
func MetaFromHTML(input []byte) (Meta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
	if err != nil {
		return Meta{}, fmt.Errorf("parse html: %w", err)
	}
	m := Meta{
		Title: firstNonEmpty(
			metaContent(doc, "meta[property='og:title']"),
			strings.TrimSpace(doc.Find("title").First().Text()),
			strings.TrimSpace(doc.Find("h1").First().Text()),
		),
		Description: firstNonEmpty(
			metaContent(doc, "meta[name='description']"),
			metaContent(doc, "meta[property='og:description']"),
		),
		Author: firstNonEmpty(
			metaContent(doc, "meta[name='author']"),
			metaContent(doc, "meta[property='article:author']"),
			strings.TrimSpace(doc.Find("[rel='author']").First().Text()),
		),
		SiteName: metaContent(doc, "meta[property='og:site_name']"),
	}
	published := firstNonEmpty(
		metaContent(doc, "meta[property='article:published_time']"),
		metaContent(doc, "meta[name='date']"),
		metaContent(doc, "meta[itemprop='datePublished']"),
		attr(doc, "time[datetime]", "datetime"),
	)
	if t, ok := parseDate(published); ok {
		m.PublishedAt = &t
	}
	return m, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	return attr(doc, selector, "content")
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"January 2, 2006",
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
