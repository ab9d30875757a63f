package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/postforge/internal/content"
)

// Transcript is the speech-to-text result for one recording.
type Transcript struct {
	Text            string
	Language        string
	DurationSeconds float64
}

// Transcriber converts an audio stream into text. name carries the original
// file name so the provider can infer the container format.
type Transcriber interface {
	Transcribe(ctx context.Context, name string, audio io.Reader) (Transcript, error)
}

// WhisperTranscriber calls the OpenAI transcription endpoint with verbose
// JSON output so the recording duration is reported alongside the text.
type WhisperTranscriber struct {
	Client  AudioClient
	Model   string
	Timeout time.Duration
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, name string, audio io.Reader) (Transcript, error) {
	if w == nil || w.Client == nil {
		return Transcript{}, content.ExtractionFailure("transcribe", ErrNotConfigured)
	}
	ctx, cancel := withTimeout(ctx, w.Timeout)
	defer cancel()

	resp, err := w.Client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    orDefault(w.Model, openai.Whisper1),
		FilePath: name,
		Reader:   audio,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return Transcript{}, content.ExtractionFailure("transcribe", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return Transcript{}, content.ExtractionFailure("transcribe", errors.New("no speech recognized"))
	}
	return Transcript{Text: text, Language: resp.Language, DurationSeconds: resp.Duration}, nil
}
