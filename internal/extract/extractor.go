package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Extractor converts one document format into plain text. Implementations
// are deterministic and have no side effects.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(data []byte) (string, error)

func (f ExtractorFunc) Extract(data []byte) (string, error) { return f(data) }

// ErrUnsupportedFormat is returned for document types with no extractor.
var ErrUnsupportedFormat = errors.New("unsupported document format")

const (
	MIMEPDF      = "application/pdf"
	MIMEDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEText     = "text/plain"
	MIMEMarkdown = "text/markdown"
)

var extractors = map[string]Extractor{
	MIMEPDF:      ExtractorFunc(PDFText),
	MIMEDOCX:     ExtractorFunc(DOCXText),
	MIMEXLSX:     ExtractorFunc(XLSXText),
	MIMEText:     ExtractorFunc(plainText),
	MIMEMarkdown: ExtractorFunc(plainText),
}

var extByMIME = map[string]string{
	".pdf":  MIMEPDF,
	".docx": MIMEDOCX,
	".xlsx": MIMEXLSX,
	".txt":  MIMEText,
	".md":   MIMEMarkdown,
}

// Supported reports whether mimeType has an extractor.
func Supported(mimeType string) bool {
	_, ok := extractors[baseMIME(mimeType)]
	return ok
}

// MIMEFromName guesses the document type from a file extension.
func MIMEFromName(name string) string {
	return extByMIME[strings.ToLower(filepath.Ext(name))]
}

// Document extracts normalized text from a document of the given type.
func Document(mimeType string, data []byte) (string, error) {
	ex, ok := extractors[baseMIME(mimeType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
	text, err := ex.Extract(data)
	if err != nil {
		return "", err
	}
	return NormalizeText(text), nil
}

func baseMIME(mimeType string) string {
	mt, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func plainText(data []byte) (string, error) {
	return strings.ToValidUTF8(string(data), ""), nil
}
