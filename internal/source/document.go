package source

import (
	"context"
	"errors"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/cost"
	"github.com/hyperifyio/postforge/internal/extract"
)

var documentRule = rule{
	maxBytes: 50 << 20,
	allowed:  []string{extract.MIMEPDF, extract.MIMEDOCX, extract.MIMEXLSX, extract.MIMEText},
}

// Document is an uploaded PDF, Word, Excel or text file.
type Document struct {
	deps Deps
	up   Upload
	mime string
}

// NewDocument validates the upload's size and type.
func NewDocument(deps Deps, up Upload) (*Document, error) {
	mt, err := documentRule.check(up)
	if err != nil {
		return nil, err
	}
	if mt == extract.MIMEText && extract.MIMEFromName(up.Name) == extract.MIMEMarkdown {
		mt = extract.MIMEMarkdown
	}
	return &Document{deps: deps, up: up, mime: mt}, nil
}

func (d *Document) Kind() content.SourceKind { return content.SourceDocument }
func (d *Document) Operation() string        { return content.SourceDocument.Operation() }
func (d *Document) Identifier() string       { return identifier("document", d.up.Data) }

func (d *Document) Extract(ctx context.Context) (content.Extraction, error) {
	text, err := extract.Document(d.mime, d.up.Data)
	if err != nil {
		return content.Extraction{}, content.ExtractionFailure("document", err)
	}
	if text == "" {
		return content.Extraction{}, content.ExtractionFailure("document", errors.New("no extractable text (scanned or empty document)"))
	}
	summary, summaryCost := d.deps.summarize(ctx, text, d.mime == extract.MIMEPDF)
	return content.Extraction{
		Text:    text,
		Summary: summary,
		Metadata: content.SourceMetadata{
			FileName:  d.up.Name,
			MIMEType:  d.mime,
			WordCount: extract.WordCount(text),
			Summary:   summary,
		},
		Costs: []cost.Fragment{summaryCost},
	}, nil
}
