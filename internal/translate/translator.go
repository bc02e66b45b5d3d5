// Package translate wraps a language-detection and translation capability
// behind a uniform contract with failure handling and quota enforcement.
package translate

import (
	"context"
	"errors"
)

// Failure taxonomy. Callers match with errors.Is; every failure from this
// package wraps exactly one of these.
var (
	// ErrDetection — the detection capability is unavailable or returned
	// malformed data.
	ErrDetection = errors.New("language detection failed")

	// ErrQuotaExceeded — the daily or monthly budget is exhausted.
	ErrQuotaExceeded = errors.New("translation quota exceeded")

	// ErrRateLimited — the calling connection is inside its cooldown window.
	ErrRateLimited = errors.New("translation rate limited")

	// ErrUpstream — the translation capability itself failed or timed out.
	ErrUpstream = errors.New("translation upstream error")
)

// Translator is the external capability: both operations are fallible and
// network-bound.
type Translator interface {
	// Detect returns the language code of text.
	Detect(ctx context.Context, text string) (string, error)

	// Translate converts text into targetLang.
	Translate(ctx context.Context, text, targetLang string) (string, error)
}
