package llm

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/postforge/internal/content"
)

// Describer interprets an image according to an instruction.
type Describer interface {
	Describe(ctx context.Context, mimeType string, data []byte, instruction string) (Generation, error)
}

// VisionDescriber sends the image inline as a data URL to a vision-capable
// chat model.
type VisionDescriber struct {
	Client    Client
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

func (v *VisionDescriber) Describe(ctx context.Context, mimeType string, data []byte, instruction string) (Generation, error) {
	if v == nil || v.Client == nil || strings.TrimSpace(v.Model) == "" {
		return Generation{}, content.ExtractionFailure("vision", ErrNotConfigured)
	}
	ctx, cancel := withTimeout(ctx, v.Timeout)
	defer cancel()

	maxTokens := v.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	resp, err := v.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: instruction},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    DataURL(mimeType, data),
					Detail: openai.ImageURLDetailAuto,
				}},
			},
		}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return Generation{}, content.ExtractionFailure("vision", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Generation{}, content.ExtractionFailure("vision", ErrEmptyCompletion)
	}
	return Generation{
		Text:  strings.TrimSpace(resp.Choices[0].Message.Content),
		Usage: Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens},
		Model: v.Model,
	}, nil
}

// DataURL encodes data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
