package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/postforge/internal/content"
)

// TextRequest is one single-turn text generation call. Model overrides the
// generator default when set.
type TextRequest struct {
	System      string
	Prompt      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Usage is the token accounting reported by the provider. Zero values mean
// the provider did not report usage.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Reported reports whether the provider returned any usage numbers.
func (u Usage) Reported() bool { return u.PromptTokens > 0 || u.CompletionTokens > 0 }

// Generation is the result of a text call.
type Generation struct {
	Text  string
	Usage Usage
	Model string
}

// TextGenerator produces completion text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, req TextRequest) (Generation, error)
}

// ErrEmptyCompletion is returned when the model answered with no choices or
// only whitespace.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// ErrNotConfigured is returned by generators missing a client or model.
var ErrNotConfigured = errors.New("generator not configured")

// ChatGenerator calls an OpenAI-compatible chat endpoint. It never retries:
// a failed call is reported once as a GenerationFailure.
type ChatGenerator struct {
	Client Client
	Model  string
	// Timeout bounds each call. Zero means only ctx applies.
	Timeout time.Duration
}

func (g *ChatGenerator) Generate(ctx context.Context, req TextRequest) (Generation, error) {
	model := req.Model
	if model == "" && g != nil {
		model = g.Model
	}
	if g == nil || g.Client == nil || strings.TrimSpace(model) == "" {
		return Generation{}, content.GenerationFailure("chat", ErrNotConfigured)
	}
	ctx, cancel := withTimeout(ctx, g.Timeout)
	defer cancel()

	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := g.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		N:           1,
	})
	if err != nil {
		return Generation{}, content.GenerationFailure("chat", err)
	}
	if len(resp.Choices) == 0 {
		return Generation{}, content.GenerationFailure("chat", ErrEmptyCompletion)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return Generation{}, content.GenerationFailure("chat", ErrEmptyCompletion)
	}
	out := Generation{
		Text:  text,
		Usage: Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens},
		Model: model,
	}
	log.Debug().Str("model", model).Int("prompt_tokens", out.Usage.PromptTokens).
		Int("completion_tokens", out.Usage.CompletionTokens).Msg("chat completion")
	return out, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
