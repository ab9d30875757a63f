package content

import (
	"strings"
	"time"

	"github.com/hyperifyio/postforge/internal/cost"
)

// ContentType is the output shape requested by the caller.
type ContentType string

const (
	Short  ContentType = "short"
	Thread ContentType = "thread"
	Quote  ContentType = "quote"
	Poll   ContentType = "poll"
	Long   ContentType = "long"
)

// ContentTypes lists every supported content type in display order.
var ContentTypes = []ContentType{Short, Thread, Quote, Poll, Long}

// ParseContentType maps user input onto a ContentType. Matching is
// case-insensitive and accepts a few common aliases; anything else fails
// validation.
func ParseContentType(s string) (ContentType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "tweet", "tweets", "post", "posts":
		v = string(Short)
	case "threads":
		v = string(Thread)
	case "quotes":
		v = string(Quote)
	case "polls":
		v = string(Poll)
	case "long-form", "longform", "long form", "premium":
		v = string(Long)
	}
	if t := ContentType(v); t.Valid() {
		return t, nil
	}
	return "", ValidationFailure("content_type", "unknown content type %q", s)
}

// Valid reports whether t is one of the closed set of content types.
func (t ContentType) Valid() bool {
	switch t {
	case Short, Thread, Quote, Poll, Long:
		return true
	}
	return false
}

// SourceKind identifies where the source text came from.
type SourceKind string

const (
	SourceText     SourceKind = "text"
	SourceAudio    SourceKind = "audio"
	SourceImage    SourceKind = "image"
	SourceDocument SourceKind = "document"
	SourceURL      SourceKind = "url"
	SourceVideo    SourceKind = "video"
)

// Operation returns the operation name used to namespace cache keys, logs
// and the ledger.
func (k SourceKind) Operation() string {
	switch k {
	case SourceVideo:
		return "youtube-to-twitter"
	case SourceText, SourceAudio, SourceImage, SourceDocument, SourceURL:
		return string(k) + "-to-twitter"
	}
	return "unknown-to-twitter"
}

// Label is how the source is referred to inside prompts and fallback units.
func (k SourceKind) Label() string {
	switch k {
	case SourceAudio:
		return "the audio"
	case SourceImage:
		return "the image"
	case SourceDocument:
		return "the document"
	case SourceURL:
		return "the article"
	case SourceVideo:
		return "the video"
	default:
		return "the text"
	}
}

const (
	// StandardCap is the per-unit character limit for ordinary posts.
	StandardCap = 280
	// PremiumCap is the limit for premium long-form posts.
	PremiumCap = 25000
	// MaxUnits bounds how many units one request may ask for.
	MaxUnits = 25
)

// Request is one generation request. It is not modified by the pipeline.
type Request struct {
	ContentType       ContentType `json:"content_type"`
	NumUnits          int         `json:"num_tweets"`
	AdditionalContext string      `json:"additional_context,omitempty"`
	GenerateImage     bool        `json:"generate_image"`
	Premium           bool        `json:"is_premium"`
}

// PremiumLong reports whether the request unlocks the extended length cap.
func (r Request) PremiumLong() bool {
	return r.Premium && r.ContentType == Long
}

// UnitCap returns the per-unit character cap for the request.
func (r Request) UnitCap() int {
	if r.PremiumLong() {
		return PremiumCap
	}
	return StandardCap
}

// Validate checks unit count and content type.
func (r Request) Validate() error {
	if !r.ContentType.Valid() {
		return ValidationFailure("content_type", "unknown content type %q", string(r.ContentType))
	}
	if r.NumUnits < 1 {
		return ValidationFailure("num_tweets", "must be at least 1, got %d", r.NumUnits)
	}
	if r.NumUnits > MaxUnits {
		return ValidationFailure("num_tweets", "must be at most %d, got %d", MaxUnits, r.NumUnits)
	}
	return nil
}

// Post is one generated unit.
type Post struct {
	Text             string  `json:"tweet_text"`
	IsThread         bool    `json:"is_thread"`
	ThreadPosition   *int    `json:"thread_position,omitempty"`
	ImageURL         *string `json:"image_url"`
	IsPremiumContent bool    `json:"is_premium_content"`
}

// SourceMetadata describes the source a response was generated from.
type SourceMetadata struct {
	Kind            SourceKind `json:"kind"`
	Identifier      string     `json:"identifier"`
	Title           string     `json:"title,omitempty"`
	Author          string     `json:"author,omitempty"`
	PublishedAt     *time.Time `json:"published_date,omitempty"`
	WordCount       int        `json:"word_count,omitempty"`
	VideoID         string     `json:"video_id,omitempty"`
	DurationSeconds float64    `json:"duration_seconds,omitempty"`
	FileName        string     `json:"file_name,omitempty"`
	MIMEType        string     `json:"mime_type,omitempty"`
	Summary         string     `json:"summary,omitempty"`
}

// Response is the fully assembled result of one pipeline run. It is what
// gets cached, so a cache hit returns exactly what the miss produced.
type Response struct {
	Posts     []Post         `json:"tweets"`
	Cost      cost.Breakdown `json:"cost"`
	Source    SourceMetadata `json:"source"`
	Estimated bool           `json:"cost_estimated,omitempty"`
}

// Extraction is what a source yields before generation: the text to write
// about, an optional summary, metadata, and the cost of getting there.
type Extraction struct {
	Text     string
	Summary  string
	Metadata SourceMetadata
	Costs    []cost.Fragment
}
