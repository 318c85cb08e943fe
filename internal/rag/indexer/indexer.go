// Package indexer writes embedded chunks into the vector index under deterministic ids.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/rag/vectorDB"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidBatchSize = errors.New("indexer: batch size must be > 0")
	ErrEmptyDocument    = errors.New("indexer: document content is empty")
)

// Embedder is satisfied by *embedding.Batcher.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// BatchError identifies the batch that failed so exactly that batch can be retried.
type BatchError struct {
	Batch   int
	Offset  int
	FirstID string
	LastID  string
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (ids %s..%s) failed: %v", e.Batch, e.FirstID, e.LastID, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

type Indexer struct {
	embedder    Embedder
	store       vectorDB.DataProcessor
	idPrefix    string
	concurrency int
	fromBatch   int
	logger      *logger_i.Logger
}

type Option func(*Indexer)

// WithIDPrefix replaces the default "doc-" prefix, e.g. to keep uploaded documents apart from the crawl.
func WithIDPrefix(prefix string) Option {
	return func(ix *Indexer) {
		ix.idPrefix = prefix
	}
}

// WithConcurrency lets up to n batches run at once. Ids are fixed by offset so results do not change.
func WithConcurrency(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.concurrency = n
		}
	}
}

// WithFromBatch skips batches before n, for resuming a run after a failed batch.
func WithFromBatch(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.fromBatch = n
		}
	}
}

func New(embedder Embedder, store vectorDB.DataProcessor, opts ...Option) *Indexer {
	ix := &Indexer{
		embedder:    embedder,
		store:       store,
		idPrefix:    config.DefaultIDPrefix,
		concurrency: 1,
		logger:      logger_i.NewLogger("indexer"),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// RecordID is the deterministic id of the chunk at ordinal.
func RecordID(prefix string, ordinal int) string {
	return prefix + strconv.Itoa(ordinal)
}

func (ix *Indexer) recordID(ordinal int) string {
	return RecordID(ix.idPrefix, ordinal)
}

// Upsert embeds and writes docs in batches of batchSize and returns the number of records written.
// Re-running with the same docs overwrites the same ids. Nothing is sent when any document is blank.
func (ix *Indexer) Upsert(ctx context.Context, docs []commonModels.Document, batchSize int) (int, error) {
	if batchSize <= 0 {
		return 0, ErrInvalidBatchSize
	}
	if len(docs) == 0 {
		return 0, nil
	}
	// skipping a blank document would shift every later id, so the whole run is refused
	for i, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			return 0, fmt.Errorf("%w: %s", ErrEmptyDocument, ix.recordID(i))
		}
	}
	log := ix.logger.WithTrace(ctx)

	batches := (len(docs) + batchSize - 1) / batchSize
	log.Info("indexing", "documents", len(docs), "batches", batches, "fromBatch", ix.fromBatch, "concurrency", ix.concurrency)

	var written atomic.Int64
	run := func(ctx context.Context, b int) error {
		offset := b * batchSize
		end := min(offset+batchSize, len(docs))
		n, err := ix.upsertBatch(ctx, docs[offset:end], offset)
		if err != nil {
			metrics.IncrementFailedUpsertBatches()
			batchErr := &BatchError{
				Batch:   b,
				Offset:  offset,
				FirstID: ix.recordID(offset),
				LastID:  ix.recordID(end - 1),
				Err:     err,
			}
			log.Error("upsert batch failed", "batch", b, "firstId", batchErr.FirstID, "lastId", batchErr.LastID, "error", err)
			return batchErr
		}
		written.Add(int64(n))
		metrics.AddUpsertedRecords(n)
		log.Debug("batch upserted", "batch", b, "records", n)
		return nil
	}

	if ix.concurrency <= 1 {
		for b := ix.fromBatch; b < batches; b++ {
			if err := run(ctx, b); err != nil {
				return int(written.Load()), err
			}
		}
		return int(written.Load()), nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(ix.concurrency)
	for b := ix.fromBatch; b < batches; b++ {
		eg.Go(func() error {
			if egCtx.Err() != nil {
				return nil
			}
			return run(egCtx, b)
		})
	}
	err := eg.Wait()
	return int(written.Load()), err
}

func (ix *Indexer) upsertBatch(ctx context.Context, docs []commonModels.Document, offset int) (int, error) {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(docs) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	records := make([]commonModels.ChunkRecord, len(docs))
	for i, d := range docs {
		records[i] = commonModels.ChunkRecord{
			Id:       ix.recordID(offset + i),
			Vector:   vectors[i],
			Metadata: recordMetadata(d),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, config.ExternalCallTimeout)
	defer cancel()
	if err := ix.store.UpsertBatch(callCtx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func recordMetadata(d commonModels.Document) map[string]any {
	metadata := make(map[string]any, len(d.Metadata)+1)
	maps.Copy(metadata, d.Metadata)
	metadata[commonModels.MetaPageContent] = strings.TrimSpace(d.Content)
	return metadata
}
