package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/prompt"
)

// ImageGenerator turns a visual prompt into a hosted image URL.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// ErrNoImage is returned when the provider answered without an image URL.
var ErrNoImage = errors.New("provider returned no image")

// OpenAIImager generates one square image per call.
type OpenAIImager struct {
	Client  ImageClient
	Model   string
	Size    string
	Quality string
	Timeout time.Duration
}

func (g *OpenAIImager) GenerateImage(ctx context.Context, visual string) (string, error) {
	if g == nil || g.Client == nil {
		return "", content.ImageGenerationFailure("image", ErrNotConfigured)
	}
	if strings.TrimSpace(visual) == "" {
		return "", content.ImageGenerationFailure("image", errors.New("empty image prompt"))
	}
	ctx, cancel := withTimeout(ctx, g.Timeout)
	defer cancel()

	req := openai.ImageRequest{
		Prompt:         visual,
		Model:          orDefault(g.Model, openai.CreateImageModelDallE3),
		Size:           orDefault(g.Size, openai.CreateImageSize1024x1024),
		Quality:        orDefault(g.Quality, openai.CreateImageQualityStandard),
		ResponseFormat: openai.CreateImageResponseFormatURL,
		N:              1,
	}
	resp, err := g.Client.CreateImage(ctx, req)
	if err != nil {
		return "", content.ImageGenerationFailure("image", err)
	}
	if len(resp.Data) == 0 || strings.TrimSpace(resp.Data[0].URL) == "" {
		return "", content.ImageGenerationFailure("image", ErrNoImage)
	}
	return resp.Data[0].URL, nil
}

// ImagePrompter derives a visual prompt for a post. A nil Generator or a
// failed call falls back to a deterministic prompt.
type ImagePrompter struct {
	Generator TextGenerator
	Model     string
}

const (
	imagePromptTemperature = 0.7
	imagePromptMaxTokens   = 200
)

// Prompt returns the visual prompt and the generation that produced it. The
// generation is nil when the fallback was used.
func (p *ImagePrompter) Prompt(ctx context.Context, summary string, postText string) (string, *Generation) {
	if p == nil || p.Generator == nil {
		return prompt.FallbackImagePrompt(summary, postText), nil
	}
	m := prompt.ImagePrompt(summary, postText)
	gen, err := p.Generator.Generate(ctx, TextRequest{
		System:      m.System,
		Prompt:      m.User,
		Model:       p.Model,
		Temperature: imagePromptTemperature,
		MaxTokens:   imagePromptMaxTokens,
	})
	if err != nil {
		log.Warn().Err(err).Msg("image prompt generation failed; using fallback prompt")
		return prompt.FallbackImagePrompt(summary, postText), nil
	}
	return gen.Text, &gen
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
