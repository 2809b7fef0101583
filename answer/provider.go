package answer

import (
	"context"

	"github.com/nijaru/yt-ask/config"
	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// NewCompleter builds the completer selected by cfg. It returns a nil
// Completer and no error when the provider's credential is missing, which
// the Generator treats as "not configured".
func NewCompleter(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	if cfg.APIKey() == "" {
		return nil, nil
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIURL), nil
	case config.ProviderGemini:
		completer, err := NewGeminiCompleter(ctx, cfg.GeminiAPIKey, genai.HTTPOptions{})
		if err != nil {
			return nil, err
		}
		return completer, nil
	default:
		return nil, errors.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
