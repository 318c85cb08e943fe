package indexer

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
)

// Backfill sets page_content on records that already exist, reading each record's full metadata,
// changing that one key and writing the merged object back. Vectors are never touched and ids
// missing from the index are skipped. Returns the number of records updated.
func (ix *Indexer) Backfill(ctx context.Context, chunks []string, batchSize int) (int, error) {
	if batchSize <= 0 {
		return 0, ErrInvalidBatchSize
	}
	log := ix.logger.WithTrace(ctx)

	updated := 0
	for offset := 0; offset < len(chunks); offset += batchSize {
		end := min(offset+batchSize, len(chunks))

		ids := make([]string, 0, end-offset)
		for i := offset; i < end; i++ {
			ids = append(ids, ix.recordID(i))
		}

		existing, err := ix.fetch(ctx, ids)
		if err != nil {
			return updated, &BatchError{Batch: offset / batchSize, Offset: offset, FirstID: ids[0], LastID: ids[len(ids)-1], Err: err}
		}

		for i := offset; i < end; i++ {
			id := ix.recordID(i)
			rec, ok := existing[id]
			if !ok {
				log.Debug("record not in index, skipping", "id", id)
				continue
			}

			content := strings.TrimSpace(chunks[i])
			if current, _ := rec.Metadata[commonModels.MetaPageContent].(string); current == content {
				continue
			}

			merged := make(map[string]any, len(rec.Metadata)+1)
			maps.Copy(merged, rec.Metadata)
			merged[commonModels.MetaPageContent] = content

			if err := ix.update(ctx, id, merged); err != nil {
				return updated, fmt.Errorf("updating %s: %w", id, err)
			}
			updated++
		}
		log.Info("backfill batch done", "batch", offset/batchSize, "updated", updated)
	}
	return updated, nil
}

func (ix *Indexer) fetch(ctx context.Context, ids []string) (map[string]commonModels.ChunkRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, config.ExternalCallTimeout)
	defer cancel()
	return ix.store.Fetch(callCtx, ids)
}

func (ix *Indexer) update(ctx context.Context, id string, metadata map[string]any) error {
	callCtx, cancel := context.WithTimeout(ctx, config.ExternalCallTimeout)
	defer cancel()
	return ix.store.UpdateMetadata(callCtx, id, metadata)
}
