package prompt

import (
	"strconv"
	"strings"

	"github.com/hyperifyio/postforge/internal/content"
)

// Profile holds the guideline block for one content type. Guidelines may
// reference {n} for the requested unit count.
type Profile struct {
	Type        content.ContentType
	Name        string
	Description string
	Guidelines  string
}

// GetProfile returns the profile for t. Unknown types get the short profile;
// callers validate the request before building a prompt.
func GetProfile(t content.ContentType) Profile {
	switch t {
	case content.Thread:
		return threadProfile()
	case content.Quote:
		return quoteProfile()
	case content.Poll:
		return pollProfile()
	case content.Long:
		return longProfile()
	default:
		return shortProfile()
	}
}

// ProfileFor returns the profile that matches the limits the account
// actually has. Long-form on a standard account becomes a series of capped
// posts.
func ProfileFor(t content.ContentType, premium bool) Profile {
	if t == content.Long && !premium {
		return longSeriesProfile()
	}
	return GetProfile(t)
}

// Render returns the guideline block with the unit count filled in.
func (p Profile) Render(n int) string {
	return strings.ReplaceAll(p.Guidelines, "{n}", strconv.Itoa(n))
}

func shortProfile() Profile {
	return Profile{
		Type:        content.Short,
		Name:        "Short posts",
		Description: "Standalone tweets under 280 characters",
		Guidelines: `Create {n} different concise, impactful tweets under 280 characters that:
- Capture different key insights or memorable points from the source
- Use engaging language and tone
- Include relevant hashtags where appropriate
- Each tweet should focus on a distinct point or insight
- Ensure each tweet aligns with the user's specific requirements (if provided)
- Separate each tweet with a blank line`,
	}
}

func threadProfile() Profile {
	return Profile{
		Type:        content.Thread,
		Name:        "Thread",
		Description: "A numbered sequence of tweets that reads as one story",
		Guidelines: `Create a thread of {n} tweets where:
- Each tweet builds on the previous one
- The first tweet hooks the reader
- Ideas flow logically and maintain context
- Each tweet can stand alone but works better in sequence
- Each tweet stays under 280 characters including its counter
- Ensure the entire thread aligns with the user's specific requirements (if provided)
- Start each tweet with its counter: [1/{n}], [2/{n}], etc.
- Separate each tweet with a blank line`,
	}
}

func quoteProfile() Profile {
	return Profile{
		Type:        content.Quote,
		Name:        "Quote posts",
		Description: "Powerful quotes with attribution and reflection",
		Guidelines: `Extract {n} different powerful quotes that:
- Capture different impactful statements or insights from the source
- Include proper attribution
- Add thoughtful reflection where appropriate
- Maintain the original context and meaning
- Stay under 280 characters including attribution
- Ensure quote selection and commentary align with user's specific requirements (if provided)
- Separate each quote tweet with a blank line`,
	}
}

func pollProfile() Profile {
	return Profile{
		Type:        content.Poll,
		Name:        "Polls",
		Description: "Engagement polls with 2-4 options",
		Guidelines: `Create {n} different engaging polls that:
- Ask clear, relevant questions about different aspects of the source
- Provide 2-4 distinct, meaningful options for each poll on separate lines
- Encourage audience participation
- Relate directly to different key points from the content
- Keep each poll, question and options together, under 280 characters
- Ensure poll questions and options align with user's specific requirements (if provided)
- Separate each poll with a blank line and never put blank lines inside a poll`,
	}
}

func longProfile() Profile {
	return Profile{
		Type:        content.Long,
		Name:        "Long-form post",
		Description: "One in-depth post up to 25,000 characters (premium)",
		Guidelines: `Create a comprehensive, well-structured post that is several paragraphs long (at least 1000 words)
- Start with a captivating hook
- Capture the main insights or key points from the source
- Include relevant examples and analogies
- Use engaging language and tone
- Include relevant hashtags where appropriate
- End with a thought-provoking conclusion
- Ensure the post aligns with the user's specific requirements (if provided)
- Make full use of the 25,000 character limit`,
	}
}

func longSeriesProfile() Profile {
	return Profile{
		Type:        content.Long,
		Name:        "Long-form series",
		Description: "An in-depth piece split into standard-length posts",
		Guidelines: `Write an in-depth piece split into {n} consecutive posts where:
- The first post opens with a captivating hook
- Together the posts cover the main insights or key points from the source
- Each post develops one idea with a concrete example or analogy
- Each post is a complete thought under 280 characters
- Hashtags are used sparingly, only where relevant
- The last post ends with a thought-provoking conclusion
- Ensure the piece aligns with the user's specific requirements (if provided)
- Separate each post with a blank line`,
	}
}
