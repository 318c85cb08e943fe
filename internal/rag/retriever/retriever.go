// Package retriever runs top-K similarity search against the vector index and normalizes the hits.
package retriever

import (
	"context"
	"errors"
	"sort"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

var ErrInvalidTopK = errors.New("retriever: topK must be > 0")

// Searcher is the read side of vectorDB.DataProcessor.
type Searcher interface {
	Query(ctx context.Context, vector []float32, topK int) ([]commonModels.Match, error)
}

type Retriever struct {
	index  Searcher
	logger *logger_i.Logger
}

func New(index Searcher) *Retriever {
	return &Retriever{index: index, logger: logger_i.NewLogger("retriever")}
}

// Retrieve returns at most topK matches, best first. An empty result is not an error: it means
// the index holds no relevant evidence.
func (r *Retriever) Retrieve(ctx context.Context, queryVector []float32, topK int) ([]commonModels.Match, error) {
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}

	callCtx, cancel := context.WithTimeout(ctx, config.ExternalCallTimeout)
	defer cancel()

	matches, err := r.index.Query(callCtx, queryVector, topK)
	if err != nil {
		r.logger.WithTrace(ctx).Error("vector query failed", "error", err)
		return nil, err
	}

	out := make([]commonModels.Match, 0, len(matches))
	for _, m := range matches {
		if m.Metadata == nil {
			m.Metadata = map[string]any{}
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Id < out[j].Id
	})
	if len(out) > topK {
		out = out[:topK]
	}

	r.logger.WithTrace(ctx).Debug("retrieved", "matches", len(out))
	return out, nil
}
