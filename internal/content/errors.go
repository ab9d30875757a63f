package content

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindExtraction
	KindGeneration
	KindImageGeneration
	KindCache
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failure"
	case KindExtraction:
		return "extraction_failure"
	case KindGeneration:
		return "generation_failure"
	case KindImageGeneration:
		return "image_generation_failure"
	case KindCache:
		return "cache_failure"
	}
	return "unknown"
}

// Error is a typed pipeline failure carrying the upstream cause.
type Error struct {
	Kind Kind
	// Op names the step or field that failed, e.g. "transcribe" or "num_tweets".
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

func wrap(k Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Op: op, Err: err}
}

// ValidationFailure reports a malformed request.
func ValidationFailure(field string, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: field, Err: fmt.Errorf(format, args...)}
}

// ExtractionFailure wraps a source that could not be turned into text.
func ExtractionFailure(op string, err error) error { return wrap(KindExtraction, op, err) }

// GenerationFailure wraps a failed text-model call.
func GenerationFailure(op string, err error) error { return wrap(KindGeneration, op, err) }

// ImageGenerationFailure wraps a failed image call. It never aborts a pipeline.
func ImageGenerationFailure(op string, err error) error { return wrap(KindImageGeneration, op, err) }

// CacheFailure wraps a cache read or write problem. Never returned to callers.
func CacheFailure(op string, err error) error { return wrap(KindCache, op, err) }
