package rag_test

import (
	"context"

	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
)

// MockVectorDB implements vectorDB.Store
type MockVectorDB struct {
	// Control fields to simulate different behaviors
	OnQuery           func(ctx context.Context, vector []float32, topK int) ([]commonModels.Match, error)
	OnGetCachedAnswer func(ctx context.Context, queryVector []float32) (commonModels.CachedAnswer, bool, error)
	OnSaveToCache     func(ctx context.Context, vector []float32, answer commonModels.CachedAnswer) error
}

func (m *MockVectorDB) Query(ctx context.Context, v []float32, topK int) ([]commonModels.Match, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, v, topK)
	}
	return []commonModels.Match{{
		Id:       "doc-0",
		Score:    0.9,
		Metadata: map[string]any{commonModels.MetaTitle: "Agents", commonModels.MetaPageContent: "default context"},
	}}, nil
}

func (m *MockVectorDB) GetCachedAnswer(ctx context.Context, v []float32) (commonModels.CachedAnswer, bool, error) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, v)
	}
	return commonModels.CachedAnswer{}, false, nil
}

func (m *MockVectorDB) SaveToCache(ctx context.Context, v []float32, a commonModels.CachedAnswer) error {
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, v, a)
	}
	return nil
}

func (m *MockVectorDB) CreateCollection(ctx context.Context, dimension int) error { return nil }

func (m *MockVectorDB) UpsertBatch(ctx context.Context, records []commonModels.ChunkRecord) error {
	return nil
}

func (m *MockVectorDB) Fetch(ctx context.Context, ids []string) (map[string]commonModels.ChunkRecord, error) {
	return map[string]commonModels.ChunkRecord{}, nil
}

func (m *MockVectorDB) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error {
	return nil
}

func (m *MockVectorDB) Count(ctx context.Context) (int, error) { return 0, nil }

func (m *MockVectorDB) Close() error { return nil }

type MockEmbedder struct {
	Calls        int
	OnEmbedQuery func(ctx context.Context, text string) ([]float32, error)
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.Calls++
	if m.OnEmbedQuery != nil {
		return m.OnEmbedQuery(ctx, query)
	}
	return []float32{0.1, 0.2}, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnComplete func(ctx context.Context, system string, user string) (string, error)
}

func (m *MockLLM) Complete(ctx context.Context, system string, user string) (string, error) {
	if m.OnComplete != nil {
		return m.OnComplete(ctx, system, user)
	}
	return "mocked llm response", nil
}

type MockIngester struct {
	OnProcess func(ctx context.Context, job jobModel.Job) jobModel.Job
}

func (m *MockIngester) ProcessDocumentIngestion(ctx context.Context, job jobModel.Job) jobModel.Job {
	if m.OnProcess != nil {
		return m.OnProcess(ctx, job)
	}
	job.Status = jobModel.JobStatusComplete
	return job
}
