// Package source turns each kind of user input into extracted text ready
// for generation.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postforge/internal/budget"
	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/cost"
	"github.com/hyperifyio/postforge/internal/fetch"
	"github.com/hyperifyio/postforge/internal/llm"
	"github.com/hyperifyio/postforge/internal/prompt"
)

// Deps are the collaborators extractors need. A nil member disables the
// feature built on it; Transcriber, Describer and Fetcher are required by
// the audio, image and URL sources respectively.
type Deps struct {
	Fetcher     *fetch.Client
	Transcriber llm.Transcriber
	Describer   llm.Describer
	// Generator powers transcript cleanup and summaries.
	Generator llm.TextGenerator
	Model     string
	Costs     cost.Table
	// Summarize requests a short summary of documents and articles. The
	// summary seeds image prompts and fallback units.
	Summarize bool
	// CleanTranscripts runs audio transcripts through the model once before
	// generation.
	CleanTranscripts bool
}

func (d Deps) table() cost.Table {
	if d.Costs == (cost.Table{}) {
		return cost.DefaultTable
	}
	return d.Costs
}

const (
	summaryTemperature = 0.5
	summaryMaxTokens   = 300
	cleanupTemperature = 0.3
)

// summarize returns a summary and its cost. Failures are logged and yield an
// empty summary.
func (d Deps) summarize(ctx context.Context, text string, paper bool) (string, cost.Fragment) {
	if !d.Summarize || d.Generator == nil {
		return "", nil
	}
	m := prompt.Summary("", paper)
	fitted, _ := budget.FitSource(d.Model, summaryMaxTokens, budget.EstimateTokens(m.System), text)
	gen, err := d.Generator.Generate(ctx, llm.TextRequest{
		System:      m.System,
		Prompt:      fitted,
		Model:       d.Model,
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		log.Warn().Err(err).Msg("summary failed; continuing without")
		return "", nil
	}
	return gen.Text, d.table().FromUsage(gen.Usage.PromptTokens, gen.Usage.CompletionTokens, m.System+"\n"+fitted, gen.Text)
}

// cleanup tidies a raw transcript. On failure the raw text is used.
func (d Deps) cleanup(ctx context.Context, raw string) (string, cost.Fragment) {
	if !d.CleanTranscripts || d.Generator == nil {
		return raw, nil
	}
	m := prompt.TranscriptCleanup(raw)
	gen, err := d.Generator.Generate(ctx, llm.TextRequest{
		System:      m.System,
		Prompt:      m.User,
		Model:       d.Model,
		Temperature: cleanupTemperature,
	})
	if err != nil {
		log.Warn().Err(err).Msg("transcript cleanup failed; using raw transcript")
		return raw, nil
	}
	return gen.Text, d.table().FromUsage(gen.Usage.PromptTokens, gen.Usage.CompletionTokens, m.System+"\n"+m.User, gen.Text)
}

// Upload is a file received from a caller.
type Upload struct {
	Name string
	Data []byte
}

var (
	// ErrEmptyUpload is returned for a zero-byte file.
	ErrEmptyUpload = errors.New("file is empty")
	// ErrTooLarge is returned when a file exceeds its kind's size limit.
	ErrTooLarge = errors.New("file too large")
	// ErrUnsupportedType is returned when the sniffed type is not accepted.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// rule bounds one upload kind.
type rule struct {
	maxBytes int
	allowed  []string
}

// check sniffs the upload and returns its canonical MIME type. Violations are
// validation failures.
func (r rule) check(up Upload) (string, error) {
	switch {
	case len(up.Data) == 0:
		return "", content.ValidationFailure("file", "%w", ErrEmptyUpload)
	case len(up.Data) > r.maxBytes:
		return "", content.ValidationFailure("file", "%w: %d bytes exceeds %d MB", ErrTooLarge, len(up.Data), r.maxBytes>>20)
	}
	detected := mimetype.Detect(up.Data)
	for m := detected; m != nil; m = m.Parent() {
		for _, a := range r.allowed {
			if m.Is(a) {
				return a, nil
			}
		}
	}
	return "", content.ValidationFailure("file", "%w: %s", ErrUnsupportedType, detected.String())
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func identifier(prefix string, data []byte) string {
	return fmt.Sprintf("%s:sha256:%s", prefix, digest(data))
}
