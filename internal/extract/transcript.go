package extract

import (
	"regexp"
	"strings"
)

var (
	cueTiming  = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?[.,]\d{1,3}\s+-->\s+\d{1,2}:\d{2}(:\d{2})?[.,]\d{1,3}`)
	cueIndex   = regexp.MustCompile(`^\d+$`)
	inlineTag  = regexp.MustCompile(`<[^>]*>`)
	speakerTag = regexp.MustCompile(`^\[(music|applause|laughter|inaudible)\]$`)
)

// Transcript turns an SRT or WebVTT caption file into running text. Plain
// text passes through normalized. Cue numbers, timings, headers, styling
// tags and consecutive duplicate lines (rolling captions) are removed.
func Transcript(raw string) string {
	raw = strings.TrimPrefix(strings.ReplaceAll(raw, "\r\n", "\n"), "\ufeff")
	if !looksLikeCaptions(raw) {
		return NormalizeText(raw)
	}
	var lines []string
	skipBlock := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			skipBlock = false
			continue
		case skipBlock:
			continue
		case strings.HasPrefix(line, "WEBVTT"):
			continue
		case strings.HasPrefix(line, "NOTE"), strings.HasPrefix(line, "STYLE"), strings.HasPrefix(line, "REGION"):
			skipBlock = true
			continue
		case cueIndex.MatchString(line), cueTiming.MatchString(line):
			continue
		}
		line = strings.TrimSpace(inlineTag.ReplaceAllString(line, ""))
		if line == "" || speakerTag.MatchString(strings.ToLower(line)) {
			continue
		}
		if n := len(lines); n > 0 && lines[n-1] == line {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(strings.Fields(strings.Join(lines, " ")), " ")
}

func looksLikeCaptions(s string) bool {
	if strings.HasPrefix(s, "WEBVTT") {
		return true
	}
	for _, line := range strings.SplitN(s, "\n", 20) {
		if cueTiming.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}
