package translate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pairtalk/pairtalk/internal/usage"
)

// DefaultTimeout bounds a single upstream call so a hung capability fails
// as ErrUpstream instead of stalling the event stream.
const DefaultTimeout = 10 * time.Second

// Gateway enforces quota and cooldown in front of a Translator and maps
// every failure into the package taxonomy. It is side-effect-free on the
// detection path; only successful translations are charged.
type Gateway struct {
	tr      Translator
	gov     *usage.Governor
	timeout time.Duration
}

func NewGateway(tr Translator, gov *usage.Governor, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{tr: tr, gov: gov, timeout: timeout}
}

// Detect returns the language code of text, or ErrDetection.
func (g *Gateway) Detect(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	lang, err := g.tr.Detect(ctx, text)
	if err != nil {
		log.Printf("TRANSLATE: detection failed: %v", err)
		return "", fmt.Errorf("%w: %v", ErrDetection, err)
	}
	return lang, nil
}

// Translate converts text into targetLang on behalf of connID. Budgets are
// checked before the upstream call; on success the character count is
// charged before returning, regardless of whether the text is ever
// delivered.
func (g *Gateway) Translate(ctx context.Context, connID, text, targetLang string) (string, error) {
	if err := g.gov.Check(connID); err != nil {
		switch {
		case errors.Is(err, usage.ErrCooldown):
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		default:
			return "", fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.tr.Translate(ctx, text, targetLang)
	if err != nil {
		log.Printf("TRANSLATE: %s → %s failed: %v", connID, targetLang, err)
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	g.gov.RecordTranslation(connID, len(text))
	return out, nil
}
