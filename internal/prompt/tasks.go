package prompt

import (
	"strings"
	"unicode/utf8"
)

// Messages is a system plus user message pair for a single chat call.
type Messages struct {
	System string
	User   string
}

// ImagePromptChars is how much source text seeds an image prompt when no
// summary is available.
const ImagePromptChars = 500

// ImagePrompt asks the model for a visual prompt that complements a post.
func ImagePrompt(summary string, postText string) Messages {
	var b strings.Builder
	b.WriteString("Based on the following summary and tweet, create a detailed image generation prompt.\n")
	b.WriteString("The prompt should describe a visually appealing and relevant image that complements the tweet and should be concise, precise and not too verbose.\n\n")
	b.WriteString("Summary: ")
	b.WriteString(strings.TrimSpace(summary))
	b.WriteString("\n\nTweet: ")
	b.WriteString(strings.TrimSpace(postText))
	b.WriteString(`

Guidelines for the image prompt:
- Be specific and descriptive
- Focus on visual elements
- Include style suggestions (e.g., photorealistic, dramatic lighting, etc.)
- Avoid text or words in the image
- Keep it concise but detailed
- Focus on the main message or emotion of the tweet

Generate an image prompt:`)
	return Messages{
		System: "You are an expert at creating detailed image generation prompts that capture the essence of text content.",
		User:   b.String(),
	}
}

// FallbackImagePrompt builds a visual prompt without a model call.
func FallbackImagePrompt(summary string, postText string) string {
	seed := strings.TrimSpace(summary)
	if seed == "" {
		seed = strings.TrimSpace(postText)
	}
	return "A photorealistic, dramatically lit editorial illustration with no text, capturing: " + Head(seed, 300)
}

// Summary asks for a social-media oriented summary of article or paper text.
func Summary(text string, paper bool) Messages {
	if paper {
		return Messages{
			System: `Create an accessible summary of this academic paper that:
1. States the main research question/objective
2. Outlines the methodology used
3. Highlights key findings and conclusions
4. Explains practical implications
5. Uses clear, non-technical language where possible`,
			User: text,
		}
	}
	return Messages{
		System: `Provide a concise summary of the following article that:
1. Captures the main thesis/argument
2. Includes key supporting points
3. Maintains the original tone and perspective
4. Highlights any significant conclusions
5. Preserves important statistics or data`,
		User: text,
	}
}

// TranscriptCleanup asks the model to tidy a raw speech transcript.
func TranscriptCleanup(raw string) Messages {
	return Messages{
		System: `Clean up and format this audio transcription while:
1. Correcting obvious transcription errors
2. Improving punctuation and formatting
3. Removing filler words and false starts
4. Preserving the speaker's meaning and voice
Return only the cleaned transcript.`,
		User: raw,
	}
}

// ImageAnalysis is the instruction sent alongside an uploaded image.
const ImageAnalysis = `Look at this image and think creatively about the ideas, concepts, and themes it could inspire. Consider:
1. What broader topics or themes does this image evoke?
2. What metaphors or analogies could be drawn from the elements in this image?
3. What business, life, or technology lessons could this image represent?
4. What emotional responses or thoughts does this image trigger?
5. What current trends or discussions could this image relate to?
6. What unique perspectives or insights could be drawn from this scene?

Don't just describe what you see - interpret what it could mean and inspire.`

// Head returns at most n runes of s.
func Head(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
