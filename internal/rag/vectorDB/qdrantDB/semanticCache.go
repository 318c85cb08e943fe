package qdrantDB

import (
	"context"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

func (db *ClientHolder) GetCachedAnswer(ctx context.Context, queryVector []float32) (commonModels.CachedAnswer, bool, error) {
	loggr := db.logger.WithTrace(ctx)

	loggr.Debug("Searching for cached answer")
	searchResult, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.cacheCollection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Cache Query failed", "error", err)
		return commonModels.CachedAnswer{}, false, err
	}
	if len(searchResult) == 0 {
		return commonModels.CachedAnswer{}, false, nil
	}

	loggr.Debug("Closest cached answer", "semantic similarity score", searchResult[0].Score)
	if searchResult[0].Score < config.CacheSimilarityCutoff {
		return commonModels.CachedAnswer{}, false, nil
	}

	loggr.Info("cache hit")
	payload := searchResult[0].Payload
	cached := commonModels.CachedAnswer{
		Answer:  payload["answer"].GetStringValue(),
		Context: payload["context"].GetStringValue(),
	}
	for _, s := range payload["sources"].GetListValue().GetValues() {
		cached.Sources = append(cached.Sources, s.GetStringValue())
	}
	return cached, true, nil
}

func (db *ClientHolder) SaveToCache(ctx context.Context, vector []float32, answer commonModels.CachedAnswer) error {
	loggr := db.logger.WithTrace(ctx)

	sources := make([]any, len(answer.Sources))
	for i, s := range answer.Sources {
		sources[i] = s
	}
	payload, err := qdrant.TryValueMap(map[string]any{
		"answer":    answer.Answer,
		"context":   answer.Context,
		"sources":   sources,
		"timestamp": time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	loggr.Debug("Saving answer to cache")
	_, err = db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.cacheCollection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(uuid.NewString()),
				Vectors: qdrant.NewVectors(vector...),
				Payload: payload,
			},
		},
	})
	if err != nil {
		loggr.Error("Saving answer to cache failed", "error", err)
	}
	return err
}
