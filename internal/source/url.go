package source

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/cost"
	"github.com/hyperifyio/postforge/internal/extract"
	"github.com/hyperifyio/postforge/internal/llm"
)

// ScrapeCredits is what one article fetch costs.
const ScrapeCredits = 1

// URL is a web article.
type URL struct {
	deps Deps
	raw  string
}

// NewURL validates that raw is an absolute http(s) URL.
func NewURL(deps Deps, raw string) (*URL, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, content.ValidationFailure("url", "must be an absolute http(s) URL, got %q", raw)
	}
	return &URL{deps: deps, raw: u.String()}, nil
}

func (s *URL) Kind() content.SourceKind { return content.SourceURL }
func (s *URL) Operation() string        { return content.SourceURL.Operation() }
func (s *URL) Identifier() string       { return s.raw }

func (s *URL) Extract(ctx context.Context) (content.Extraction, error) {
	if s.deps.Fetcher == nil {
		return content.Extraction{}, content.ExtractionFailure("fetch", llm.ErrNotConfigured)
	}
	page, err := s.deps.Fetcher.Get(ctx, s.raw)
	if err != nil {
		return content.Extraction{}, content.ExtractionFailure("fetch", err)
	}
	meta := content.SourceMetadata{Identifier: s.raw}
	var text string
	if page.HTML() {
		article := extract.FromHTML(page.Body)
		text = article.Text
		m, err := extract.MetaFromHTML(page.Body)
		if err != nil {
			log.Warn().Err(err).Str("url", s.raw).Msg("article metadata unavailable")
		}
		meta.Title = firstNonEmpty(m.Title, article.Title)
		meta.Author = m.Author
		meta.PublishedAt = m.PublishedAt
	} else {
		text = extract.NormalizeText(string(page.Body))
	}
	if text == "" {
		return content.Extraction{}, content.ExtractionFailure("fetch", errors.New("page has no readable text"))
	}
	meta.WordCount = extract.WordCount(text)

	costs := []cost.Fragment{s.deps.table().Scrape(ScrapeCredits)}
	summary, summaryCost := s.deps.summarize(ctx, text, false)
	meta.Summary = summary
	return content.Extraction{
		Text:     text,
		Summary:  summary,
		Metadata: meta,
		Costs:    append(costs, summaryCost),
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
