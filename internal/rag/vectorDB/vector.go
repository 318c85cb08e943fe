package vectorDB

import (
	"context"
	"fmt"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/rag/vectorDB/chromemDB"
	"github.com/akolanti/DocQA/internal/rag/vectorDB/qdrantDB"
)

// DataProcessor is the vector index holding one ChunkRecord per chunk id.
type DataProcessor interface {
	// CreateCollection is idempotent: an existing collection is left untouched.
	CreateCollection(ctx context.Context, dimension int) error
	// UpsertBatch inserts or overwrites records by id.
	UpsertBatch(ctx context.Context, records []commonModels.ChunkRecord) error
	Query(ctx context.Context, vector []float32, topK int) ([]commonModels.Match, error)
	// Fetch returns the records that exist; unknown ids are simply absent from the map.
	Fetch(ctx context.Context, ids []string) (map[string]commonModels.ChunkRecord, error)
	// UpdateMetadata replaces the metadata of an existing record without touching its vector.
	UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error
	Count(ctx context.Context) (int, error)
}

// AnswerCache short-circuits questions that are semantically identical to one already answered.
type AnswerCache interface {
	GetCachedAnswer(ctx context.Context, queryVector []float32) (commonModels.CachedAnswer, bool, error)
	SaveToCache(ctx context.Context, queryVector []float32, answer commonModels.CachedAnswer) error
}

type Store interface {
	DataProcessor
	AnswerCache
	Close() error
}

// New opens the configured backend. Collections are not created here; call CreateCollection.
func New(ctx context.Context, settings config.VectorStoreSettings) (Store, error) {
	switch settings.Type {
	case config.VectorStoreQdrant:
		s, err := qdrantDB.NewQdrantStore(ctx, settings)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.VectorStoreChromem:
		s, err := chromemDB.NewChromemStore(settings)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown vector store %q", settings.Type)
	}
}
