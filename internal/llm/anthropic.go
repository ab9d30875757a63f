package llm

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postforge/internal/content"
)

// AnthropicGenerator implements TextGenerator with Claude's Messages API.
type AnthropicGenerator struct {
	client  *anthropic.Client
	Model   string
	Timeout time.Duration
}

// NewAnthropicGenerator creates a generator. An empty baseURL keeps the SDK
// default endpoint.
func NewAnthropicGenerator(apiKey, baseURL, model string) *AnthropicGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicGenerator{client: &client, Model: model}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, req TextRequest) (Generation, error) {
	model := req.Model
	if model == "" && g != nil {
		model = g.Model
	}
	if g == nil || g.client == nil || strings.TrimSpace(model) == "" {
		return Generation{}, content.GenerationFailure("anthropic", ErrNotConfigured)
	}
	ctx, cancel := withTimeout(ctx, g.Timeout)
	defer cancel()

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if strings.TrimSpace(req.System) != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return Generation{}, content.GenerationFailure("anthropic", err)
	}
	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return Generation{}, content.GenerationFailure("anthropic", ErrEmptyCompletion)
	}
	out := Generation{
		Text: text,
		Usage: Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
		},
		Model: model,
	}
	log.Debug().Str("model", model).Int("prompt_tokens", out.Usage.PromptTokens).
		Int("completion_tokens", out.Usage.CompletionTokens).Msg("anthropic message")
	return out, nil
}
