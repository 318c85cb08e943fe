package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	dim       int
	calls     atomic.Int32
	failBatch map[int32]bool
	batchFunc func(chunks []string) ([][]float32, error)
	hang      bool
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

func (f *fakeEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vecs, err := f.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	n := f.calls.Add(1)
	if f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.failBatch[n] {
		return nil, errors.New("provider down")
	}
	if f.batchFunc != nil {
		return f.batchFunc(chunks)
	}
	out := make([][]float32, len(chunks))
	for i := range chunks {
		v := make([]float32, f.dim)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "chunk"
	}
	return out
}

func TestEmbed_BatchesAndKeepsOrder(t *testing.T) {
	f := &fakeEmbedder{dim: 4}
	b, err := NewBatcher(f, 16)
	require.NoError(t, err)

	vecs, err := b.Embed(context.Background(), texts(40))
	require.NoError(t, err)
	assert.Len(t, vecs, 40)
	assert.EqualValues(t, 3, f.calls.Load())
	for _, v := range vecs {
		assert.Len(t, v, 4)
		assert.False(t, IsZero(v))
	}
}

func TestEmbed_FailedBatchBecomesZeroVectors(t *testing.T) {
	f := &fakeEmbedder{dim: 768, failBatch: map[int32]bool{2: true}}
	b, err := NewBatcher(f, 16)
	require.NoError(t, err)

	vecs, err := b.Embed(context.Background(), texts(40))
	require.NoError(t, err)
	require.Len(t, vecs, 40)

	for i, v := range vecs {
		require.Len(t, v, 768)
		if i >= 16 && i < 32 {
			assert.True(t, IsZero(v), "vector %d should be zero", i)
		} else {
			assert.False(t, IsZero(v), "vector %d should be real", i)
		}
	}
}

func TestEmbed_CountMismatchDegradesBatch(t *testing.T) {
	f := &fakeEmbedder{dim: 3, batchFunc: func(chunks []string) ([][]float32, error) {
		return [][]float32{{1, 2, 3}}, nil
	}}
	b, err := NewBatcher(f, 4)
	require.NoError(t, err)

	vecs, err := b.Embed(context.Background(), texts(4))
	require.NoError(t, err)
	require.Len(t, vecs, 4)
	for _, v := range vecs {
		assert.True(t, IsZero(v))
	}
}

func TestEmbed_WrongDimensionIsZeroed(t *testing.T) {
	f := &fakeEmbedder{dim: 3, batchFunc: func(chunks []string) ([][]float32, error) {
		return [][]float32{{1, 2, 3}, {1, 2}}, nil
	}}
	b, err := NewBatcher(f, 2)
	require.NoError(t, err)

	vecs, err := b.Embed(context.Background(), texts(2))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vecs[0])
	assert.Equal(t, []float32{0, 0, 0}, vecs[1])
}

func TestEmbed_EmptyInput(t *testing.T) {
	b, err := NewBatcher(&fakeEmbedder{dim: 2}, 16)
	require.NoError(t, err)

	vecs, err := b.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestEmbed_CancelledContext(t *testing.T) {
	b, err := NewBatcher(&fakeEmbedder{dim: 2}, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Embed(ctx, texts(3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbedQuery_FailurePropagates(t *testing.T) {
	f := &fakeEmbedder{dim: 2, failBatch: map[int32]bool{1: true}}
	b, err := NewBatcher(f, 16, WithRequestsPerSecond(100))
	require.NoError(t, err)

	_, err = b.EmbedQuery(context.Background(), "what is pydantic ai?")
	assert.Error(t, err)

	vec, err := b.EmbedQuery(context.Background(), "again")
	require.NoError(t, err)
	assert.Len(t, vec, 2)
}

func TestEmbedQuery_DimensionMismatch(t *testing.T) {
	f := &fakeEmbedder{dim: 3, batchFunc: func(chunks []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}}
	b, err := NewBatcher(f, 16)
	require.NoError(t, err)

	_, err = b.EmbedQuery(context.Background(), "q")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestNewBatcher_Validation(t *testing.T) {
	_, err := NewBatcher(nil, 16)
	assert.Error(t, err)
	_, err = NewBatcher(&fakeEmbedder{dim: 2}, 0)
	assert.Error(t, err)
}

func TestCallTimeout_BoundsEachProviderCall(t *testing.T) {
	b, err := NewBatcher(&fakeEmbedder{dim: 2, hang: true}, 4, WithCallTimeout(10*time.Millisecond))
	require.NoError(t, err)

	_, err = b.EmbedQuery(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// a timed out batch degrades like any other failed batch
	vectors, err := b.Embed(context.Background(), texts(3))
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{0, 0}, vectors[0])
}
