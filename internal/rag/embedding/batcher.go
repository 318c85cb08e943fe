package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"golang.org/x/time/rate"
)

var ErrDimensionMismatch = errors.New("embedding: vector dimension mismatch")

// Batcher embeds chunk lists in fixed-size batches. A failed batch is replaced by zero vectors
// so the output always has one vector of the configured dimension per input.
type Batcher struct {
	embedder  Embedder
	batchSize int
	dimension int
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    *logger_i.Logger
}

type BatcherOption func(*Batcher)

// WithRequestsPerSecond throttles outgoing provider calls. Zero or less disables throttling.
func WithRequestsPerSecond(rps float64) BatcherOption {
	return func(b *Batcher) {
		if rps > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithCallTimeout(d time.Duration) BatcherOption {
	return func(b *Batcher) {
		b.timeout = d
	}
}

func NewBatcher(e Embedder, batchSize int, opts ...BatcherOption) (*Batcher, error) {
	if e == nil {
		return nil, errors.New("embedding: nil embedder")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("embedding: batch size must be > 0, got %d", batchSize)
	}
	b := &Batcher{
		embedder:  e,
		batchSize: batchSize,
		dimension: e.Dimension(),
		timeout:   config.ExternalCallTimeout,
		logger:    logger_i.NewLogger("embedding_batcher"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Batcher) Dimension() int {
	return b.dimension
}

// Embed returns exactly len(texts) vectors in input order. Provider failures degrade the affected
// batch to zero vectors and are logged; the only error returned is cancellation of ctx itself.
func (b *Batcher) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := b.logger.WithTrace(ctx)
	out := make([][]float32, 0, len(texts))

	for offset := 0; offset < len(texts); offset += b.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(offset+b.batchSize, len(texts))
		batch := texts[offset:end]

		vectors, err := b.embedBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("embedding batch failed, using zero vectors", "offset", offset, "size", len(batch), "error", err)
			metrics.AddDegradedEmbeddings(len(batch))
			vectors = b.zeros(len(batch))
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// EmbedQuery embeds a single question. Unlike Embed, a failure here is returned to the caller.
func (b *Batcher) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	vec, err := b.embedder.GetEmbedding(callCtx, text)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return nil, err
	}
	if len(vec) != b.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), b.dimension)
	}
	return vec, nil
}

func (b *Batcher) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	vectors, err := b.embedder.BatchEmbedding(callCtx, batch)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("provider returned %d vectors for %d inputs", len(vectors), len(batch))
	}

	for i, v := range vectors {
		if len(v) != b.dimension {
			b.logger.WithTrace(ctx).Warn("embedding has wrong dimension, zeroing", "index", i, "got", len(v), "want", b.dimension)
			metrics.AddDegradedEmbeddings(1)
			vectors[i] = make([]float32, b.dimension)
		}
	}
	return vectors, nil
}

func (b *Batcher) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

func (b *Batcher) zeros(n int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = make([]float32, b.dimension)
	}
	return out
}

// IsZero reports whether v is the placeholder written for a failed embedding.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
