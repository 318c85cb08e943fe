package llm

import (
	"context"
	"fmt"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/rag/llm/gemini"
	"github.com/akolanti/DocQA/internal/rag/llm/openrouter"
)

// Provider completes a single system+user prompt pair.
type Provider interface {
	Complete(ctx context.Context, system string, user string) (string, error)
}

// NewProvider opens the configured completion backend.
func NewProvider(ctx context.Context, settings config.LLMSettings) (Provider, error) {
	switch settings.Provider {
	case config.LLMProviderGemini:
		c, err := gemini.NewGeminiClient(ctx, settings)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.LLMProviderOpenRouter:
		c, err := openrouter.NewOpenRouterClient(settings)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", settings.Provider)
	}
}
