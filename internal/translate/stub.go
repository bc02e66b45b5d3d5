package translate

import (
	"context"
	"strings"
	"sync/atomic"
	"time"
)

// Stub is a deterministic Translator for tests and for running the relay
// without upstream credentials. Unknown text translates to a
// "[LANG] "-prefixed copy of the original.
type Stub struct {
	// Sources maps text to its detected language. Unlisted text detects
	// as the default language.
	Sources map[string]string

	// Dictionary maps targetLang → sourceText → translatedText.
	Dictionary map[string]map[string]string

	// Delay simulates upstream processing time per call.
	Delay time.Duration

	// DetectErr / TranslateErr, when set, fail the corresponding call.
	DetectErr    error
	TranslateErr error

	calls atomic.Int64
}

// Calls returns how many upstream calls (detect + translate) were issued.
func (s *Stub) Calls() int64 { return s.calls.Load() }

func (s *Stub) Detect(ctx context.Context, text string) (string, error) {
	s.calls.Add(1)
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	if s.DetectErr != nil {
		return "", s.DetectErr
	}
	if lang, ok := s.Sources[text]; ok {
		return strings.ToUpper(lang), nil
	}
	return "EN", nil
}

func (s *Stub) Translate(ctx context.Context, text, targetLang string) (string, error) {
	s.calls.Add(1)
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	if s.TranslateErr != nil {
		return "", s.TranslateErr
	}
	target := strings.ToUpper(targetLang)
	if dict, ok := s.Dictionary[target]; ok {
		if out, ok := dict[text]; ok {
			return out, nil
		}
	}
	return "[" + target + "] " + text, nil
}

func (s *Stub) wait(ctx context.Context) error {
	if s.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(s.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
