package source

import (
	"bytes"
	"context"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/cost"
	"github.com/hyperifyio/postforge/internal/extract"
	"github.com/hyperifyio/postforge/internal/llm"
)

var audioRule = rule{
	maxBytes: 25 << 20,
	allowed:  []string{"audio/mpeg", "audio/mp4", "audio/x-m4a", "audio/wav", "audio/x-wav", "audio/webm", "video/mp4", "video/webm"},
}

// Audio is an uploaded recording, transcribed before generation.
type Audio struct {
	deps Deps
	up   Upload
	mime string
}

// NewAudio validates the upload's size and type.
func NewAudio(deps Deps, up Upload) (*Audio, error) {
	mt, err := audioRule.check(up)
	if err != nil {
		return nil, err
	}
	return &Audio{deps: deps, up: up, mime: mt}, nil
}

func (a *Audio) Kind() content.SourceKind { return content.SourceAudio }
func (a *Audio) Operation() string        { return content.SourceAudio.Operation() }
func (a *Audio) Identifier() string       { return identifier("audio", a.up.Data) }

func (a *Audio) Extract(ctx context.Context) (content.Extraction, error) {
	if a.deps.Transcriber == nil {
		return content.Extraction{}, content.ExtractionFailure("transcribe", llm.ErrNotConfigured)
	}
	tr, err := a.deps.Transcriber.Transcribe(ctx, a.up.Name, bytes.NewReader(a.up.Data))
	if err != nil {
		return content.Extraction{}, content.ExtractionFailure("transcribe", err)
	}
	costs := []cost.Fragment{a.deps.table().Transcription(tr.DurationSeconds)}
	text, cleanupCost := a.deps.cleanup(ctx, tr.Text)
	costs = append(costs, cleanupCost)
	return content.Extraction{
		Text: text,
		Metadata: content.SourceMetadata{
			FileName:        a.up.Name,
			MIMEType:        a.mime,
			DurationSeconds: tr.DurationSeconds,
			WordCount:       extract.WordCount(text),
		},
		Costs: costs,
	}, nil
}
