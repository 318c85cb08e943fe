// Package titles derives a short human readable title for each chunk using the configured LLM.
package titles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/rag/llm"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"golang.org/x/sync/errgroup"
)

const promptTemplate = "Generate a short, meaningful title for the following documentation text:\n\n%s\nTitle:"

const maxTitleRunes = 120

type Generator struct {
	llm       llm.Provider
	batchSize int
	maxWords  int
	timeout   time.Duration
	logger    *logger_i.Logger
}

func NewGenerator(provider llm.Provider, batchSize int) *Generator {
	if batchSize <= 0 {
		batchSize = config.DefaultTitleBatchSize
	}
	return &Generator{
		llm:       provider,
		batchSize: batchSize,
		maxWords:  config.TitleMaxTotalTokens - config.TitleReservedPromptToken,
		timeout:   config.ExternalCallTimeout,
		logger:    logger_i.NewLogger("titles"),
	}
}

// Titles returns one title per chunk, in order. A chunk whose title could not be generated
// gets an empty string; callers omit the title in that case.
func (g *Generator) Titles(ctx context.Context, chunks []string) []string {
	out := make([]string, len(chunks))
	if g == nil || g.llm == nil {
		return out
	}
	log := g.logger.WithTrace(ctx)

	for offset := 0; offset < len(chunks); offset += g.batchSize {
		end := min(offset+g.batchSize, len(chunks))

		var eg errgroup.Group
		for i := offset; i < end; i++ {
			eg.Go(func() error {
				title, err := g.title(ctx, chunks[i])
				if err != nil {
					log.Warn("title generation failed", "chunk", i, "error", err)
					metrics.IncrementTitleFailures()
					return nil
				}
				out[i] = title
				return nil
			})
		}
		_ = eg.Wait()

		if ctx.Err() != nil {
			break
		}
		log.Debug("titles generated", "done", end, "total", len(chunks))
	}
	return out
}

func (g *Generator) title(ctx context.Context, chunk string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.llm.Complete(callCtx, "", Prompt(chunk, g.maxWords))
	metrics.CaptureExecutionMetrics("title_generation", time.Since(start))
	if err != nil {
		return "", err
	}
	return Clean(raw), nil
}

// Prompt builds the title request, truncating chunk to roughly maxWords tokens.
func Prompt(chunk string, maxWords int) string {
	return fmt.Sprintf(promptTemplate, truncateWords(chunk, maxWords))
}

// Clean keeps the first non-empty line of a model answer without quotes or a leading "Title:".
func Clean(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
		line = strings.Trim(line, "\"'*# ")
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > maxTitleRunes {
			line = strings.TrimSpace(string(r[:maxTitleRunes]))
		}
		return line
	}
	return ""
}

func truncateWords(text string, maxWords int) string {
	if maxWords <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ")
}
