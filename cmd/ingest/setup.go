package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Check the vector index and create the collection if missing",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pipeline, store, err := buildPipeline(ctx, false)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := pipeline.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("creating collection %q: %w", settings.VectorStore.Collection, err)
	}
	n, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting records: %w", err)
	}
	cmd.Printf("Collection %q ready (%d records, dimension %d)\n", settings.VectorStore.Collection, n, settings.Embedding.Dimension)
	return nil
}
