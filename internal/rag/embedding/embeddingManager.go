package embedding

import (
	"context"
	"fmt"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/DocQA/internal/rag/embedding/openaiEmbedding"
)

// Embedder is a provider that turns text into fixed-dimension vectors.
type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
	Dimension() int
}

// NewProvider opens the configured embedding backend.
func NewProvider(ctx context.Context, settings config.EmbeddingSettings) (Embedder, error) {
	switch settings.Provider {
	case config.EmbeddingProviderGoogle:
		c, err := googleEmbedding.NewGoogleEmbedder(ctx, settings)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.EmbeddingProviderOpenAI:
		c, err := openaiEmbedding.NewOpenAIEmbedder(settings)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", settings.Provider)
	}
}
