package source

import (
	"context"
	"errors"
	"strings"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/cost"
	"github.com/hyperifyio/postforge/internal/extract"
)

// ErrNoTranscript is returned when a video comes without captions.
var ErrNoTranscript = errors.New("no transcript available for this video")

// Video is a YouTube video with its caption track supplied by the caller as
// SRT, WebVTT or plain text.
type Video struct {
	deps       Deps
	rawURL     string
	id         string
	transcript string
}

// NewVideo validates the video URL.
func NewVideo(deps Deps, rawURL string, transcript string) (*Video, error) {
	id, ok := extract.VideoID(rawURL)
	if !ok {
		return nil, content.ValidationFailure("video_url", "not a recognizable YouTube URL: %q", strings.TrimSpace(rawURL))
	}
	return &Video{deps: deps, rawURL: strings.TrimSpace(rawURL), id: id, transcript: transcript}, nil
}

func (v *Video) Kind() content.SourceKind { return content.SourceVideo }
func (v *Video) Operation() string        { return content.SourceVideo.Operation() }

// Identifier covers the video and its transcript, since the caller supplies
// the transcript and a corrected one must not hit the old entry.
func (v *Video) Identifier() string {
	return identifier("youtube:"+v.id, []byte(extract.Transcript(v.transcript)))
}

func (v *Video) Extract(ctx context.Context) (content.Extraction, error) {
	text := extract.Transcript(v.transcript)
	if text == "" {
		return content.Extraction{}, content.ExtractionFailure("transcript", ErrNoTranscript)
	}
	summary, summaryCost := v.deps.summarize(ctx, text, false)
	return content.Extraction{
		Text:    text,
		Summary: summary,
		Metadata: content.SourceMetadata{
			Identifier: v.rawURL,
			VideoID:    v.id,
			WordCount:  extract.WordCount(text),
			Summary:    summary,
		},
		Costs: []cost.Fragment{summaryCost},
	}, nil
}
