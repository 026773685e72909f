// Package translate converts article text between languages.
package translate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// Translator is the interface for translation providers. Empty or
// whitespace-only input is returned unchanged without a provider call.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Options configures provider construction.
type Options struct {
	Provider   string // "deepl", "noop" or "none"
	APIKeyEnv  string
	Endpoint   string
	GlossaryID string
	Formality  string
	Timeout    time.Duration
}

// New creates a translator from explicit configuration. Unknown providers
// are an error; there is no runtime registry.
func New(opts Options) (Translator, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "deepl":
		apiKey := os.Getenv(opts.APIKeyEnv)
		return NewDeepL(apiKey, opts.Endpoint, opts.GlossaryID, opts.Formality, opts.Timeout)
	case "noop", "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unsupported translator provider %q (available: deepl, noop)", opts.Provider)
	}
}

// Noop returns input text unchanged. Useful for dry runs and tests.
type Noop struct{}

// Translate returns text as-is.
func (Noop) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}
