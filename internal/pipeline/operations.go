package pipeline

import (
	"context"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/source"
)

// SourceFactory carries what the per-kind operations need to build their
// sources.
type SourceFactory struct {
	Deps source.Deps
}

// FromText generates posts from pasted text.
func (p *Pipeline) FromText(ctx context.Context, text string, req content.Request) (*content.Response, error) {
	src, err := source.NewText(text)
	if err != nil {
		return nil, p.rejected(ctx, content.SourceText, req, err)
	}
	return p.Run(ctx, src, req)
}

// FromAudio transcribes a recording and generates posts from the transcript.
func (p *Pipeline) FromAudio(ctx context.Context, up source.Upload, req content.Request) (*content.Response, error) {
	src, err := source.NewAudio(p.Sources.Deps, up)
	if err != nil {
		return nil, p.rejected(ctx, content.SourceAudio, req, err)
	}
	return p.Run(ctx, src, req)
}

// FromImage interprets a picture and generates posts inspired by it.
func (p *Pipeline) FromImage(ctx context.Context, up source.Upload, req content.Request) (*content.Response, error) {
	src, err := source.NewImage(p.Sources.Deps, up)
	if err != nil {
		return nil, p.rejected(ctx, content.SourceImage, req, err)
	}
	return p.Run(ctx, src, req)
}

// FromDocument extracts a PDF, Word, Excel or text document.
func (p *Pipeline) FromDocument(ctx context.Context, up source.Upload, req content.Request) (*content.Response, error) {
	src, err := source.NewDocument(p.Sources.Deps, up)
	if err != nil {
		return nil, p.rejected(ctx, content.SourceDocument, req, err)
	}
	return p.Run(ctx, src, req)
}

// FromURL fetches an article.
func (p *Pipeline) FromURL(ctx context.Context, rawURL string, req content.Request) (*content.Response, error) {
	src, err := source.NewURL(p.Sources.Deps, rawURL)
	if err != nil {
		return nil, p.rejected(ctx, content.SourceURL, req, err)
	}
	return p.Run(ctx, src, req)
}

// FromVideo generates posts from a YouTube video's captions.
func (p *Pipeline) FromVideo(ctx context.Context, videoURL string, transcript string, req content.Request) (*content.Response, error) {
	src, err := source.NewVideo(p.Sources.Deps, videoURL, transcript)
	if err != nil {
		return nil, p.rejected(ctx, content.SourceVideo, req, err)
	}
	return p.Run(ctx, src, req)
}

// rejected reports a request refused before a source could be built.
func (p *Pipeline) rejected(ctx context.Context, kind content.SourceKind, req content.Request, err error) error {
	p.notify(ctx, Event{Operation: kind.Operation(), Kind: kind, Request: req, Err: err, At: p.now()})
	return err
}
