// Package pipeline runs one generation request end to end: cache lookup,
// extraction, prompt, generation, parsing, optional image and pricing.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postforge/internal/budget"
	"github.com/hyperifyio/postforge/internal/cache"
	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/cost"
	"github.com/hyperifyio/postforge/internal/llm"
	"github.com/hyperifyio/postforge/internal/parse"
	"github.com/hyperifyio/postforge/internal/prompt"
)

// Source is one kind of input that can be turned into text.
type Source interface {
	Kind() content.SourceKind
	// Operation namespaces cache keys, metrics and ledger rows.
	Operation() string
	// Identifier is known before extraction: a URL, a video ID or a content
	// hash. Together with the request it decides cache identity.
	Identifier() string
	Extract(ctx context.Context) (content.Extraction, error)
}

// GenerationTemperature is used for the main post-generation call.
const GenerationTemperature = 0.8

// ErrEmptySource is returned when extraction produced no text.
var ErrEmptySource = errors.New("source produced no text")

// Pipeline holds every collaborator of a run. It keeps no per-call state and
// is safe for concurrent use when its collaborators are.
type Pipeline struct {
	Generator llm.TextGenerator
	// Images may be nil; image requests then log a failure and return posts
	// without an image.
	Images   llm.ImageGenerator
	Prompter *llm.ImagePrompter
	Cache    *cache.Responses
	Costs    cost.Table
	// Model names the generation model. It is part of every cache key.
	Model string
	// SystemPrompt overrides prompt.SystemPrompt when set.
	SystemPrompt string
	Observer     Observer
	// Sources builds extractors for the From* operations.
	Sources SourceFactory
	Now     func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) table() cost.Table {
	if p.Costs == (cost.Table{}) {
		return cost.DefaultTable
	}
	return p.Costs
}

func (p *Pipeline) systemPrompt() string {
	if strings.TrimSpace(p.SystemPrompt) != "" {
		return p.SystemPrompt
	}
	return prompt.SystemPrompt
}

// Run executes one request against src. Validation, extraction and
// generation failures are returned typed; image and cache failures are
// logged and never abort the run. A cache hit returns the stored response
// without extracting or generating.
func (p *Pipeline) Run(ctx context.Context, src Source, req content.Request) (resp *content.Response, err error) {
	start := p.now()
	ev := Event{Operation: src.Operation(), Kind: src.Kind(), Request: req, At: start}
	defer func() {
		ev.Duration = p.now().Sub(start)
		ev.Response = resp
		ev.Err = err
		p.notify(ctx, ev)
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if p.Generator == nil {
		return nil, content.GenerationFailure("generate", llm.ErrNotConfigured)
	}
	logger := log.With().Str("operation", src.Operation()).Str("type", string(req.ContentType)).Int("count", req.NumUnits).Logger()

	system := p.systemPrompt()
	key := cache.RequestKey(src.Operation(), src.Identifier(), p.Model, req, system)
	if hit, ok := p.Cache.Lookup(ctx, key); ok {
		ev.CacheHit = true
		logger.Debug().Str("key", key).Msg("cache hit")
		return hit, nil
	}

	ex, err := src.Extract(ctx)
	if err != nil {
		return nil, asExtractionFailure(err)
	}
	if strings.TrimSpace(ex.Text) == "" {
		return nil, content.ExtractionFailure("extract", ErrEmptySource)
	}

	maxOut := budget.MaxOutputTokens(req.PremiumLong())
	in := prompt.Input{
		SourceKind:        src.Kind(),
		ContentType:       req.ContentType,
		Count:             req.NumUnits,
		AdditionalContext: req.AdditionalContext,
		Premium:           req.Premium,
	}
	overhead := budget.EstimatePromptTokens(system, prompt.Build(in))
	text, trimmed := budget.FitSource(p.Model, maxOut, overhead, ex.Text)
	if trimmed {
		logger.Info().Int("kept_chars", len(text)).Int("source_chars", len(ex.Text)).Msg("source trimmed to fit model context")
	}
	in.SourceText = text
	user := prompt.Build(in)

	gen, err := p.Generator.Generate(ctx, llm.TextRequest{
		System:      system,
		Prompt:      user,
		Model:       p.Model,
		Temperature: GenerationTemperature,
		MaxTokens:   maxOut,
	})
	if err != nil {
		return nil, asGenerationFailure(err)
	}

	fragments := append([]cost.Fragment{}, ex.Costs...)
	fragments = append(fragments, p.table().FromUsage(gen.Usage.PromptTokens, gen.Usage.CompletionTokens, system+"\n"+user, gen.Text))

	seed := ex.Summary
	if strings.TrimSpace(seed) == "" {
		seed = prompt.Head(text, prompt.ImagePromptChars)
	}
	posts := parse.Parse(gen.Text, parse.Options{
		Count:         req.NumUnits,
		ContentType:   req.ContentType,
		Premium:       req.Premium,
		FallbackLabel: src.Kind().Label(),
		FallbackSeed:  seed,
	})

	if req.GenerateImage && len(posts) > 0 {
		url, imageCosts := p.illustrate(ctx, seed, posts[0].Text)
		fragments = append(fragments, imageCosts...)
		if url != "" {
			posts[0].ImageURL = &url
		}
	}

	meta := ex.Metadata
	meta.Kind = src.Kind()
	if meta.Identifier == "" {
		meta.Identifier = src.Identifier()
	}
	if meta.Summary == "" {
		meta.Summary = ex.Summary
	}
	breakdown := cost.Total(fragments...)
	resp = &content.Response{
		Posts:     posts,
		Cost:      breakdown,
		Source:    meta,
		Estimated: breakdown.Estimated(),
	}
	p.Cache.Save(ctx, key, resp)
	logger.Info().Int("posts", len(posts)).Float64("total_cost", breakdown.TotalCost).Msg("generated")
	return resp, nil
}

// illustrate generates the image for the first post. Failures are logged and
// yield no URL; costs already incurred are still returned.
func (p *Pipeline) illustrate(ctx context.Context, seed string, postText string) (string, []cost.Fragment) {
	if p.Images == nil {
		log.Warn().Err(content.ImageGenerationFailure("image", llm.ErrNotConfigured)).Msg("image requested but no image generator configured")
		return "", nil
	}
	var frags []cost.Fragment
	visual, gen := p.Prompter.Prompt(ctx, seed, postText)
	if gen != nil {
		frags = append(frags, p.table().FromUsage(gen.Usage.PromptTokens, gen.Usage.CompletionTokens, seed+"\n"+postText, gen.Text))
	}
	url, err := p.Images.GenerateImage(ctx, visual)
	if err != nil {
		log.Warn().Err(err).Msg("image generation failed; returning posts without image")
		return "", frags
	}
	return url, append(frags, p.table().Images(1))
}

// ImageResult is the outcome of a standalone image request.
type ImageResult struct {
	URL    string         `json:"image_url"`
	Prompt string         `json:"image_prompt"`
	Cost   cost.Breakdown `json:"cost"`
}

// GenerateImage produces an image for a post outside of a pipeline run.
// Unlike Run, an image failure is the result and is returned.
func (p *Pipeline) GenerateImage(ctx context.Context, summary string, postText string) (*ImageResult, error) {
	if strings.TrimSpace(summary) == "" && strings.TrimSpace(postText) == "" {
		return nil, content.ValidationFailure("tweet_text", "summary or post text is required")
	}
	if p.Images == nil {
		return nil, content.ImageGenerationFailure("image", llm.ErrNotConfigured)
	}
	visual, gen := p.Prompter.Prompt(ctx, summary, postText)
	var frags []cost.Fragment
	if gen != nil {
		frags = append(frags, p.table().FromUsage(gen.Usage.PromptTokens, gen.Usage.CompletionTokens, summary+"\n"+postText, gen.Text))
	}
	url, err := p.Images.GenerateImage(ctx, visual)
	if err != nil {
		return nil, err
	}
	frags = append(frags, p.table().Images(1))
	return &ImageResult{URL: url, Prompt: visual, Cost: cost.Total(frags...)}, nil
}

func asExtractionFailure(err error) error {
	if content.KindOf(err) != content.KindUnknown {
		return err
	}
	return content.ExtractionFailure("extract", err)
}

func asGenerationFailure(err error) error {
	if content.KindOf(err) != content.KindUnknown {
		return err
	}
	return content.GenerationFailure("generate", err)
}
