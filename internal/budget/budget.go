package budget

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Output token budgets. Premium long-form posts may run to 25,000
// characters, which needs far more room than a handful of tweets.
const (
	StandardOutputTokens    = 1000
	PremiumLongOutputTokens = 7000
)

// MaxOutputTokens returns the completion budget for a request. The policy is
// explicit so callers and tests can rely on it.
func MaxOutputTokens(premiumLong bool) int {
	if premiumLong {
		return PremiumLongOutputTokens
	}
	return StandardOutputTokens
}

// EstimateTokensFromChars converts a character count into an estimated token
// count using ~4 chars per token, rounded up.
func EstimateTokensFromChars(charCount int) int {
	if charCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(charCount) / 4.0))
}

// EstimateTokens returns the estimated token count of a string.
func EstimateTokens(s string) int {
	return EstimateTokensFromChars(len(s))
}

// EstimatePromptTokens estimates the tokens of a system plus user message pair.
func EstimatePromptTokens(system string, user string) int {
	return EstimateTokens(system) + EstimateTokens(user)
}

// ModelContextTokens returns an estimated maximum context window for a given
// model name. Unknown models fall back to 8192.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return 8192
	}
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for prefix, v := range knownPrefixes {
		if strings.HasPrefix(name, prefix) {
			return v
		}
	}
	switch {
	case strings.HasSuffix(name, "200k"):
		return 200_000
	case strings.HasSuffix(name, "128k"):
		return 128_000
	case strings.Contains(name, "-mini"):
		return 128_000
	}
	return 8192
}

// HeadroomTokens is a safety margin for tokenizer drift and message framing:
// the larger of 5% of the context or 512 tokens.
func HeadroomTokens(modelName string) int {
	dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

// RemainingContext computes the input tokens left after reserving output and
// headroom and subtracting the prompt. Never negative.
func RemainingContext(modelName string, reservedForOutput int, promptTokens int) int {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	remaining := ModelContextTokens(modelName) - reservedForOutput - HeadroomTokens(modelName) - promptTokens
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FitSource trims source text so that it fits next to a prompt of
// overheadTokens within the model's context, leaving reservedForOutput for the
// completion. The cut lands on a paragraph or word boundary when one exists
// in the last quarter of the allowed span. The bool reports whether anything
// was removed.
func FitSource(modelName string, reservedForOutput int, overheadTokens int, text string) (string, bool) {
	allowed := RemainingContext(modelName, reservedForOutput, overheadTokens) * 4
	if len(text) <= allowed {
		return text, false
	}
	if allowed <= 0 {
		return "", text != ""
	}
	cut := allowed
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	head := text[:cut]
	floor := cut * 3 / 4
	if i := strings.LastIndex(head, "\n\n"); i >= floor {
		head = head[:i]
	} else if i := strings.LastIndexAny(head, " \n\t"); i >= floor {
		head = head[:i]
	}
	return strings.TrimSpace(head), true
}

var knownModelMax = map[string]int{
	"gpt-4o":        128_000,
	"gpt-4o-mini":   128_000,
	"gpt-4-turbo":   128_000,
	"gpt-4.1":       1_000_000,
	"gpt-4.1-mini":  1_000_000,
	"gpt-3.5-turbo": 16_384,
}

var knownPrefixes = map[string]int{
	"claude-": 200_000,
	"o1":      128_000,
	"o3":      200_000,
}
