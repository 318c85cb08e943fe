package main

import (
	"errors"
	"fmt"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/rag/chunker"
	"github.com/akolanti/DocQA/internal/rag/indexer"
	"github.com/spf13/cobra"
)

var (
	uploadChunks    string
	uploadFromBatch int
	uploadSource    string
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Title, embed and index a chunk file",
	Long: `Indexes every chunk under the id doc-<ordinal>. Re-running overwrites the same ids.
When a batch fails its index and id range are printed; pass --from-batch to resume there.`,
	Args: cobra.NoArgs,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadChunks, "chunks", "c", "", "chunk file (defaults to pipeline.chunks_path)")
	uploadCmd.Flags().IntVar(&uploadFromBatch, "from-batch", 0, "skip batches before this index")
	uploadCmd.Flags().StringVar(&uploadSource, "source", "", "source recorded on every chunk (defaults to pipeline.source)")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	chunks, err := chunker.LoadChunks(chunksPath(uploadChunks))
	if err != nil {
		return err
	}
	source := uploadSource
	if source == "" {
		source = settings.Pipeline.Source
	}

	ctx := cmd.Context()
	pipeline, store, err := buildPipeline(ctx, true)
	if err != nil {
		return err
	}
	defer store.Close()

	written, err := pipeline.Index(ctx, chunks, source, config.DefaultIDPrefix, uploadFromBatch)
	if err != nil {
		var batchErr *indexer.BatchError
		if errors.As(err, &batchErr) {
			cmd.PrintErrf("Batch %d failed (ids %s..%s): %v\n", batchErr.Batch, batchErr.FirstID, batchErr.LastID, batchErr.Err)
			cmd.PrintErrf("Resume with: ingest upload --from-batch %d\n", batchErr.Batch)
		}
		return fmt.Errorf("upload stopped after %d records: %w", written, err)
	}
	cmd.Printf("Indexed %d chunks\n", written)
	return nil
}

func chunksPath(flag string) string {
	if flag != "" {
		return flag
	}
	return settings.Pipeline.ChunksPath
}
