package parse

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hyperifyio/postforge/internal/content"
	"github.com/hyperifyio/postforge/internal/prompt"
)

// Options controls how raw model output becomes posts.
type Options struct {
	// Count is the number of units the caller asked for. Values below 1 are
	// treated as 1.
	Count       int
	ContentType content.ContentType
	Premium     bool
	// FallbackLabel names the source in padding units, e.g. "the article".
	FallbackLabel string
	// FallbackSeed is a short excerpt (summary or source head) quoted in
	// padding units.
	FallbackSeed string
	// ImageURL, when set, is attached to the first unit only.
	ImageURL string
}

// SentenceFloor is the earliest position a premium cut may land on a
// sentence boundary; anything earlier is a hard cut at the cap.
const SentenceFloor = 1000

var (
	unitSep  = regexp.MustCompile(`\n[ \t]*\n`)
	preamble = regexp.MustCompile(`(?i)^(here (are|is)|sure[,!]|certainly[,!])[^\n]*:$`)
)

// Parse converts one raw completion into exactly opt.Count posts, or exactly
// one post for premium long-form requests.
func Parse(raw string, opt Options) []content.Post {
	if opt.Premium && opt.ContentType == content.Long {
		return parsePremium(raw, opt)
	}
	n := opt.Count
	if n < 1 {
		n = 1
	}
	units := Split(raw, n)
	if len(units) > n {
		units = units[:n]
	}
	for i := range units {
		units[i] = Truncate(units[i], content.StandardCap)
	}
	for len(units) < n {
		units = append(units, Fallback(opt.FallbackLabel, opt.FallbackSeed))
	}

	posts := make([]content.Post, n)
	thread := n > 1
	for i, text := range units {
		posts[i] = content.Post{Text: text, IsThread: thread}
		if thread {
			pos := i + 1
			posts[i].ThreadPosition = &pos
		}
	}
	attachImage(posts, opt.ImageURL)
	return posts
}

func parsePremium(raw string, opt Options) []content.Post {
	text := TruncatePremium(StripMarkers(normalizeNewlines(raw), 1))
	if text == "" {
		text = Fallback(opt.FallbackLabel, opt.FallbackSeed)
	}
	posts := []content.Post{{Text: text, IsPremiumContent: true}}
	attachImage(posts, opt.ImageURL)
	return posts
}

func attachImage(posts []content.Post, url string) {
	if url == "" || len(posts) == 0 {
		return
	}
	u := url
	posts[0].ImageURL = &u
}

// Split breaks raw output on blank lines and cleans each candidate for a
// request of count units. Empty
// candidates and candidates that are only markers are dropped, as is a
// leading "Here are N tweets:" style preamble.
func Split(raw string, count int) []string {
	parts := unitSep.Split(normalizeNewlines(raw), -1)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == 0 && preamble.MatchString(p) {
			continue
		}
		if p = StripMarkers(p, count); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Fallback is the synthetic unit used when the model under-delivers.
func Fallback(label string, seed string) string {
	if label == "" {
		label = "the source"
	}
	seed = strings.Join(strings.Fields(seed), " ")
	if seed == "" {
		return "Additional insights from " + label + "."
	}
	return Truncate("Additional insights from "+label+": "+prompt.Head(seed, 100)+"...", content.StandardCap)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	cut := prompt.Head(s, n)
	if len(cut) == len(s) {
		return s
	}
	return strings.TrimRightFunc(cut, unicode.IsSpace)
}

// TruncatePremium caps s at content.PremiumCap runes, preferring to end on
// the last sentence terminator when it sits at or after SentenceFloor.
func TruncatePremium(s string) string {
	r := []rune(s)
	if len(r) <= content.PremiumCap {
		return s
	}
	head := r[:content.PremiumCap]
	for i := len(head) - 1; i >= SentenceFloor; i-- {
		switch head[i] {
		case '.', '!', '?':
			return string(head[:i+1])
		}
	}
	return string(head)
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}
