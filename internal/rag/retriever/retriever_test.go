package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/rag/vectorDB/chromemDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searcherFunc func(ctx context.Context, vector []float32, topK int) ([]commonModels.Match, error)

func (f searcherFunc) Query(ctx context.Context, vector []float32, topK int) ([]commonModels.Match, error) {
	return f(ctx, vector, topK)
}

func TestRetrieve_NormalizesMetadataAndOrder(t *testing.T) {
	r := New(searcherFunc(func(_ context.Context, _ []float32, _ int) ([]commonModels.Match, error) {
		return []commonModels.Match{
			{Id: "doc-2", Score: 0.5},
			{Id: "doc-1", Score: 0.9, Metadata: map[string]any{"title": "A"}},
			{Id: "doc-0", Score: 0.5},
		}, nil
	}))

	got, err := r.Retrieve(context.Background(), []float32{1}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"doc-1", "doc-0", "doc-2"}, []string{got[0].Id, got[1].Id, got[2].Id})
	assert.NotNil(t, got[1].Metadata)
	assert.Empty(t, got[1].Metadata)
}

func TestRetrieve_EmptyIsNotAnError(t *testing.T) {
	r := New(searcherFunc(func(context.Context, []float32, int) ([]commonModels.Match, error) {
		return nil, nil
	}))
	got, err := r.Retrieve(context.Background(), []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieve_InvalidTopK(t *testing.T) {
	called := false
	r := New(searcherFunc(func(context.Context, []float32, int) ([]commonModels.Match, error) {
		called = true
		return nil, nil
	}))
	_, err := r.Retrieve(context.Background(), []float32{1}, 0)
	assert.ErrorIs(t, err, ErrInvalidTopK)
	assert.False(t, called)
}

func TestRetrieve_PropagatesIndexFailure(t *testing.T) {
	r := New(searcherFunc(func(context.Context, []float32, int) ([]commonModels.Match, error) {
		return nil, errors.New("unreachable")
	}))
	_, err := r.Retrieve(context.Background(), []float32{1}, 3)
	assert.Error(t, err)
}

func TestRetrieve_AgainstEmbeddedIndex(t *testing.T) {
	ctx := context.Background()
	store, err := chromemDB.NewChromemStore(config.VectorStoreSettings{Collection: "docs"})
	require.NoError(t, err)
	require.NoError(t, store.CreateCollection(ctx, 2))
	require.NoError(t, store.UpsertBatch(ctx, []commonModels.ChunkRecord{
		{Id: "doc-0", Vector: []float32{1, 0}, Metadata: map[string]any{"page_content": "x"}},
		{Id: "doc-1", Vector: []float32{0, 1}},
	}))

	got, err := New(store).Retrieve(ctx, []float32{0.1, 1}, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "doc-1", got[0].Id)
	assert.NotNil(t, got[0].Metadata)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
}
