package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/postforge/internal/content"
)

// Fingerprint builds "<operation>:<sha256>" over the given parts. Parts are
// NFC-normalized and trimmed so visually identical input maps to one key, and
// are length-prefixed so no two part lists can collide by concatenation.
func Fingerprint(operation string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		p = norm.NFC.String(strings.TrimSpace(p))
		h.Write([]byte(strconv.Itoa(len(p))))
		h.Write([]byte{':'})
		h.Write([]byte(p))
	}
	return operation + ":" + hex.EncodeToString(h.Sum(nil))
}

// RequestKey fingerprints every input that changes a generated response: the
// source identity, the model, all request parameters and any extra parts
// such as the system prompt.
func RequestKey(operation string, identifier string, model string, req content.Request, extra ...string) string {
	parts := []string{
		identifier,
		model,
		string(req.ContentType),
		strconv.Itoa(req.NumUnits),
		req.AdditionalContext,
		strconv.FormatBool(req.GenerateImage),
		strconv.FormatBool(req.Premium),
	}
	return Fingerprint(operation, append(parts, extra...)...)
}
