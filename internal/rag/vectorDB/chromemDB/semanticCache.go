package chromemDB

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

const answerKey = "answer_json"

func (s *Store) cacheCollection() (*chromem.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache == nil {
		return nil, fmt.Errorf("collection %s not created", s.cacheName)
	}
	return s.cache, nil
}

func (s *Store) GetCachedAnswer(ctx context.Context, queryVector []float32) (commonModels.CachedAnswer, bool, error) {
	cache, err := s.cacheCollection()
	if err != nil {
		return commonModels.CachedAnswer{}, false, err
	}
	if cache.Count() == 0 {
		return commonModels.CachedAnswer{}, false, nil
	}

	results, err := cache.QueryEmbedding(ctx, queryVector, 1, nil, nil)
	if err != nil {
		return commonModels.CachedAnswer{}, false, err
	}
	if len(results) == 0 || finite(float64(results[0].Similarity)) < config.CacheSimilarityCutoff {
		return commonModels.CachedAnswer{}, false, nil
	}

	var cached commonModels.CachedAnswer
	if err := json.Unmarshal([]byte(results[0].Metadata[answerKey]), &cached); err != nil {
		return commonModels.CachedAnswer{}, false, fmt.Errorf("decoding cached answer: %w", err)
	}
	s.logger.WithTrace(ctx).Info("cache hit", "score", results[0].Similarity)
	return cached, true, nil
}

func (s *Store) SaveToCache(ctx context.Context, queryVector []float32, answer commonModels.CachedAnswer) error {
	cache, err := s.cacheCollection()
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return cache.AddDocument(ctx, chromem.Document{
		ID:        uuid.NewString(),
		Metadata:  map[string]string{answerKey: string(encoded)},
		Embedding: queryVector,
		Content:   answer.Answer,
	})
}
