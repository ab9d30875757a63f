package prompt

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/postforge/internal/content"
)

// SystemPrompt is the default system message for post generation.
const SystemPrompt = "You are a social media expert who creates engaging Twitter content. " +
	"You write in a natural voice, respect character limits, and follow the requested format exactly. " +
	"Output only the posts themselves with no preamble, headings or commentary."

// Input is everything that shapes the generation instruction.
type Input struct {
	SourceKind        content.SourceKind
	SourceText        string
	ContentType       content.ContentType
	Count             int
	AdditionalContext string
	Premium           bool
}

// Build returns the user instruction for a generation call. It has no side
// effects: identical inputs always yield the identical string.
func Build(in Input) string {
	n := in.Count
	if n < 1 {
		n = 1
	}
	premiumLong := in.Premium && in.ContentType == content.Long
	if premiumLong {
		n = 1
	}
	extra := strings.TrimSpace(in.AdditionalContext)
	noun := plural(n, "post", "posts")

	var b strings.Builder
	if extra != "" {
		b.WriteString("IMPORTANT USER REQUIREMENTS:\n")
		b.WriteString(extra)
		b.WriteString("\n\nPlease ensure that ALL generated posts strictly follow and incorporate these specific requirements while maintaining authenticity and engagement.\n\n")
	}

	heading, subject := sourceWording(in.SourceKind)
	fmt.Fprintf(&b, "Based on the following %s, generate %d different Twitter %s that %s %s in nature. ", subject, n, noun, plural(n, "is", "are"), in.ContentType)
	fmt.Fprintf(&b, "Each post should focus on a different aspect or insight from the %s while adhering to the user requirements above (if provided).\n\n", subject)
	b.WriteString(heading)
	b.WriteString(":\n")
	b.WriteString(strings.TrimSpace(in.SourceText))
	b.WriteString("\n\nGuidelines based on content type:\n")
	b.WriteString(ProfileFor(in.ContentType, in.Premium).Render(n))

	switch {
	case premiumLong:
		b.WriteString("\n\nIMPORTANT: Generate exactly one post. Paragraph breaks inside the post are allowed.")
	case in.ContentType == content.Long:
		fmt.Fprintf(&b, "\n\nThis account is not premium: split the piece into %d %s of at most %d characters each.", n, noun, content.StandardCap)
		fallthrough
	default:
		fmt.Fprintf(&b, "\n\nIMPORTANT: Generate exactly %d %s, no more, no less. Separate each post with a blank line and never use blank lines inside a post.", n, noun)
	}
	if extra != "" {
		b.WriteString("\n\nFINAL REMINDER: Review each generated post to ensure it fully incorporates and aligns with the user requirements specified at the beginning of this prompt.")
	}
	return b.String()
}

func sourceWording(k content.SourceKind) (heading string, subject string) {
	switch k {
	case content.SourceURL:
		return "Article Content", "article content"
	case content.SourceAudio:
		return "Audio Transcript", "audio transcript"
	case content.SourceVideo:
		return "Video Transcript", "video transcript"
	case content.SourceImage:
		return "Themes and ideas inspired by the image", "image analysis"
	case content.SourceDocument:
		return "Document Content", "document content"
	default:
		return "Content", "content"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
