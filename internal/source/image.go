package source

import (
	"context"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/cost"
	"github.com/hyperifyio/postforge/internal/llm"
	"github.com/hyperifyio/postforge/internal/prompt"
)

var imageRule = rule{
	maxBytes: 20 << 20,
	allowed:  []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
}

// Image is an uploaded picture. Its vision interpretation becomes the source
// text.
type Image struct {
	deps Deps
	up   Upload
	mime string
}

// NewImage validates the upload's size and type.
func NewImage(deps Deps, up Upload) (*Image, error) {
	mt, err := imageRule.check(up)
	if err != nil {
		return nil, err
	}
	return &Image{deps: deps, up: up, mime: mt}, nil
}

func (i *Image) Kind() content.SourceKind { return content.SourceImage }
func (i *Image) Operation() string        { return content.SourceImage.Operation() }
func (i *Image) Identifier() string       { return identifier("image", i.up.Data) }

func (i *Image) Extract(ctx context.Context) (content.Extraction, error) {
	if i.deps.Describer == nil {
		return content.Extraction{}, content.ExtractionFailure("vision", llm.ErrNotConfigured)
	}
	gen, err := i.deps.Describer.Describe(ctx, i.mime, i.up.Data, prompt.ImageAnalysis)
	if err != nil {
		return content.Extraction{}, content.ExtractionFailure("vision", err)
	}
	return content.Extraction{
		Text:    gen.Text,
		Summary: prompt.Head(gen.Text, prompt.ImagePromptChars),
		Metadata: content.SourceMetadata{
			FileName: i.up.Name,
			MIMEType: i.mime,
		},
		// Vision tokens are priced like text tokens; the image payload
		// itself is counted in the provider's prompt usage.
		Costs: []cost.Fragment{i.deps.table().FromUsage(gen.Usage.PromptTokens, gen.Usage.CompletionTokens, prompt.ImageAnalysis, gen.Text)},
	}, nil
}
