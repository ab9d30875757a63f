package parse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// "Tweet 1:", "**Post 2:**", "Poll #3 -", "Quote 1)"
	labelMarker = regexp.MustCompile(`(?i)^(?:\*\*|__)?\s*(?:tweet|post|poll|quote|thread)\s*#?\s*\d+(?:\s*/\s*\d+)?\s*(?:\*\*|__)?\s*[:.)\-–—]\s*(?:\*\*|__)?\s*`)
	// "[1/5]", "(2/5)", "3/5"
	counterMarker = regexp.MustCompile(`^([\[(])?(\d+)\s*/\s*(\d+)[\])]?[:.]?\s*`)
	// "1. ", "2) "
	numberMarker = regexp.MustCompile(`^\d{1,2}[.)]\s+`)
)

// keep lists leading punctuation that belongs to the post itself.
const keep = "#@\"'“‘«¿¡($€£"

// bullets lists non-punctuation runes models use as list markers.
const bullets = "→➜➔➤►▶▪▫●◦■□"

// StripMarkers removes leading numbering, thread counters, labels and bullets
// from a unit. Hashtags, mentions, quotes and emoji survive. count is the
// number of units requested; an unbracketed i/N is only a counter when N
// equals it.
func StripMarkers(s string, count int) string {
	for {
		before := s
		s = strings.TrimLeftFunc(s, isMarkerRune)
		s = labelMarker.ReplaceAllString(s, "")
		s = stripCounter(s, count)
		s = numberMarker.ReplaceAllString(s, "")
		if s == before {
			return strings.TrimSpace(s)
		}
	}
}

// stripCounter removes an i/N counter. Unbracketed counters need N == count
// and i <= N, so "24/7 support" and "1/2 cup of flour" are left alone.
func stripCounter(s string, count int) string {
	m := counterMarker.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	if m[1] == "" {
		i, _ := strconv.Atoi(m[2])
		n, _ := strconv.Atoi(m[3])
		if n != count || i < 1 || i > n {
			return s
		}
	}
	return s[len(m[0]):]
}

func isMarkerRune(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	if strings.ContainsRune(keep, r) {
		return false
	}
	return unicode.IsPunct(r) || strings.ContainsRune(bullets, r)
}
