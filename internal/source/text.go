package source

import (
	"context"
	"strings"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/extract"
)

// Text is pasted text.
type Text struct {
	body string
}

// NewText validates pasted text.
func NewText(body string) (*Text, error) {
	if strings.TrimSpace(body) == "" {
		return nil, content.ValidationFailure("text", "must not be empty")
	}
	return &Text{body: body}, nil
}

func (t *Text) Kind() content.SourceKind { return content.SourceText }
func (t *Text) Operation() string        { return content.SourceText.Operation() }
func (t *Text) Identifier() string       { return identifier("text", []byte(extract.NormalizeText(t.body))) }

func (t *Text) Extract(context.Context) (content.Extraction, error) {
	text := extract.NormalizeText(t.body)
	return content.Extraction{
		Text:     text,
		Metadata: content.SourceMetadata{WordCount: extract.WordCount(text)},
	}, nil
}
