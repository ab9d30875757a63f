package cost

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postforge/internal/budget"
)

// Table holds per-unit prices in USD. Values are configuration, never derived.
type Table struct {
	InputPerToken          float64 `yaml:"inputPerToken" json:"inputPerToken"`
	OutputPerToken         float64 `yaml:"outputPerToken" json:"outputPerToken"`
	TranscriptionPerMinute float64 `yaml:"transcriptionPerMinute" json:"transcriptionPerMinute"`
	PerImage               float64 `yaml:"perImage" json:"perImage"`
	PerScrapeCredit        float64 `yaml:"perScrapeCredit" json:"perScrapeCredit"`
}

// DefaultTable prices gpt-4o-mini tokens, whisper minutes, one image and
// one scrape credit.
var DefaultTable = Table{
	InputPerToken:          0.15 / 1_000_000,
	OutputPerToken:         0.60 / 1_000_000,
	TranscriptionPerMinute: 0.006,
	PerImage:               0.05,
	PerScrapeCredit:        83.0 / 100_000,
}

// Precision is the number of decimal places every monetary value is rounded to.
const Precision = 6

// Round rounds v to Precision decimal places.
func Round(v float64) float64 {
	return roundTo(v, Precision)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Fragment is one priced component of a breakdown.
type Fragment interface {
	Subtotal() float64
}

// Tokens prices one or more text-model calls.
type Tokens struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	InputCost    float64 `json:"input_cost"`
	OutputCost   float64 `json:"output_cost"`
	// Estimated is set when the counts came from the local estimator
	// instead of provider usage metadata.
	Estimated bool `json:"-"`
}

func (t *Tokens) Subtotal() float64 { return Round(t.InputCost + t.OutputCost) }

// Transcription prices speech-to-text minutes.
type Transcription struct {
	DurationMinutes float64 `json:"whisper_duration_minutes"`
	WhisperCost     float64 `json:"whisper_cost"`
}

func (t *Transcription) Subtotal() float64 { return t.WhisperCost }

// Images prices generated images.
type Images struct {
	Generated int     `json:"num_images_generated"`
	ImageCost float64 `json:"image_generation_cost"`
}

func (i *Images) Subtotal() float64 { return i.ImageCost }

// Scrape prices web scrape credits.
type Scrape struct {
	CreditsUsed int     `json:"firecrawl_credits_used"`
	ScrapeCost  float64 `json:"firecrawl_cost"`
}

func (s *Scrape) Subtotal() float64 { return s.ScrapeCost }

// GPT prices a text-model call from its token counts.
func (t Table) GPT(inputTokens, outputTokens int) *Tokens {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}
	return &Tokens{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		InputCost:    Round(float64(inputTokens) * t.InputPerToken),
		OutputCost:   Round(float64(outputTokens) * t.OutputPerToken),
	}
}

// FromUsage prices a call using the provider's reported usage. When the
// provider reported nothing, token counts are estimated from the prompt and
// completion text and the fragment is flagged as an estimate.
func (t Table) FromUsage(promptTokens, completionTokens int, prompt, completion string) *Tokens {
	if promptTokens > 0 || completionTokens > 0 {
		return t.GPT(promptTokens, completionTokens)
	}
	in := budget.EstimateTokens(prompt)
	out := budget.EstimateTokens(completion)
	log.Warn().Int("input_tokens", in).Int("output_tokens", out).Msg("usage metadata missing; cost uses token estimate")
	tok := t.GPT(in, out)
	tok.Estimated = true
	return tok
}

// Transcription prices durationSeconds of audio. Minutes are reported at two
// decimal places; the cost is computed from the unrounded minutes.
func (t Table) Transcription(durationSeconds float64) *Transcription {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	minutes := durationSeconds / 60
	return &Transcription{
		DurationMinutes: roundTo(minutes, 2),
		WhisperCost:     Round(minutes * t.TranscriptionPerMinute),
	}
}

// Images prices n generated images.
func (t Table) Images(n int) *Images {
	if n < 0 {
		n = 0
	}
	return &Images{Generated: n, ImageCost: Round(float64(n) * t.PerImage)}
}

// Scrape prices n scrape credits.
func (t Table) Scrape(credits int) *Scrape {
	if credits < 0 {
		credits = 0
	}
	return &Scrape{CreditsUsed: credits, ScrapeCost: Round(float64(credits) * t.PerScrapeCredit)}
}

// Breakdown is the priced summary attached to a response. Absent fragments
// are nil and drop out of the JSON encoding entirely.
type Breakdown struct {
	*Tokens
	*Transcription
	*Images
	*Scrape
	TotalCost float64 `json:"total_cost"`
}

// Total assembles a breakdown from the present fragments. Nil fragments are
// skipped. Fragments of the same type are merged by addition.
func Total(fragments ...Fragment) Breakdown {
	var b Breakdown
	for _, f := range fragments {
		switch v := f.(type) {
		case *Tokens:
			if v == nil {
				continue
			}
			if b.Tokens == nil {
				b.Tokens = &Tokens{}
			}
			b.Tokens.InputTokens += v.InputTokens
			b.Tokens.OutputTokens += v.OutputTokens
			b.Tokens.InputCost = Round(b.Tokens.InputCost + v.InputCost)
			b.Tokens.OutputCost = Round(b.Tokens.OutputCost + v.OutputCost)
			b.Tokens.Estimated = b.Tokens.Estimated || v.Estimated
		case *Transcription:
			if v == nil {
				continue
			}
			if b.Transcription == nil {
				b.Transcription = &Transcription{}
			}
			b.Transcription.DurationMinutes = roundTo(b.Transcription.DurationMinutes+v.DurationMinutes, 2)
			b.Transcription.WhisperCost = Round(b.Transcription.WhisperCost + v.WhisperCost)
		case *Images:
			if v == nil {
				continue
			}
			if b.Images == nil {
				b.Images = &Images{}
			}
			b.Images.Generated += v.Generated
			b.Images.ImageCost = Round(b.Images.ImageCost + v.ImageCost)
		case *Scrape:
			if v == nil {
				continue
			}
			if b.Scrape == nil {
				b.Scrape = &Scrape{}
			}
			b.Scrape.CreditsUsed += v.CreditsUsed
			b.Scrape.ScrapeCost = Round(b.Scrape.ScrapeCost + v.ScrapeCost)
		}
	}
	b.TotalCost = b.sum()
	return b
}

func (b Breakdown) sum() float64 {
	total := 0.0
	if b.Tokens != nil {
		total += b.Tokens.Subtotal()
	}
	if b.Transcription != nil {
		total += b.Transcription.Subtotal()
	}
	if b.Images != nil {
		total += b.Images.Subtotal()
	}
	if b.Scrape != nil {
		total += b.Scrape.Subtotal()
	}
	return Round(total)
}

// Estimated reports whether any token counts in b were estimated.
func (b Breakdown) Estimated() bool {
	return b.Tokens != nil && b.Tokens.Estimated
}
