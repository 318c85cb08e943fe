package main

import (
	"context"
	"fmt"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/rag/embedding"
	"github.com/akolanti/DocQA/internal/rag/ingest"
	"github.com/akolanti/DocQA/internal/rag/llm"
	"github.com/akolanti/DocQA/internal/rag/titles"
	"github.com/akolanti/DocQA/internal/rag/vectorDB"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/spf13/cobra"
)

var (
	configPath string
	settings   *config.Settings
)

var rootCmd = &cobra.Command{
	Use:          "ingest",
	Short:        "Chunk, embed and index documentation for DocQA",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		logger_i.Init(s.Log)
		settings = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "optional YAML settings file")
}

// buildPipeline connects to the vector index and the embedding provider. The LLM is only
// initialised when titles are wanted.
func buildPipeline(ctx context.Context, withTitles bool) (*ingest.Pipeline, vectorDB.Store, error) {
	store, err := vectorDB.New(ctx, settings.VectorStore)
	if err != nil {
		return nil, nil, fmt.Errorf("vector store: %w", err)
	}
	provider, err := embedding.NewProvider(ctx, settings.Embedding)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("embedding provider: %w", err)
	}
	batcher, err := embedding.NewBatcher(provider, settings.Pipeline.EmbedBatchSize,
		embedding.WithRequestsPerSecond(settings.Embedding.RequestsPerSecond))
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	var titler ingest.TitleGenerator
	if withTitles && !settings.Pipeline.SkipTitles {
		llmProvider, err := llm.NewProvider(ctx, settings.LLM)
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("llm provider: %w", err)
		}
		titler = titles.NewGenerator(llmProvider, settings.Pipeline.TitleBatchSize)
	}
	return ingest.NewPipeline(titler, batcher, store, settings.Pipeline), store, nil
}
