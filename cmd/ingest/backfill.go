package main

import (
	"fmt"

	"github.com/akolanti/DocQA/internal/rag/chunker"
	"github.com/spf13/cobra"
)

var backfillChunks string

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Set page_content on records that are already indexed",
	Long: `Reads each existing record, sets page_content from the chunk file and writes the
merged metadata back. Vectors are not recomputed and missing records are skipped.`,
	Args: cobra.NoArgs,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().StringVarP(&backfillChunks, "chunks", "c", "", "chunk file (defaults to pipeline.chunks_path)")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	chunks, err := chunker.LoadChunks(chunksPath(backfillChunks))
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	pipeline, store, err := buildPipeline(ctx, false)
	if err != nil {
		return err
	}
	defer store.Close()

	updated, err := pipeline.Backfill(ctx, chunks)
	if err != nil {
		return fmt.Errorf("backfill stopped after %d records: %w", updated, err)
	}
	cmd.Printf("Updated %d of %d records\n", updated, len(chunks))
	return nil
}
