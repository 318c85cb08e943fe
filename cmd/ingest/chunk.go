package main

import (
	"github.com/akolanti/DocQA/internal/rag/chunker"
	"github.com/akolanti/DocQA/internal/rag/ingest"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/spf13/cobra"
)

var (
	chunkInputs []string
	chunkOut    string
	chunkSize   int
)

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Split crawled pages into a chunk file",
	Long: `Reads every supported file under the inputs in path order, joins the page texts
with a blank line and writes the ordered chunk list as JSON.`,
	Args: cobra.NoArgs,
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().StringSliceVarP(&chunkInputs, "input", "i", nil, "crawler output directory or file (repeatable)")
	chunkCmd.Flags().StringVarP(&chunkOut, "out", "o", "", "chunk file to write (defaults to pipeline.chunks_path)")
	chunkCmd.Flags().IntVar(&chunkSize, "size", 0, "target chunk size in characters (defaults to pipeline.chunk_size)")
	_ = chunkCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	out := chunkOut
	if out == "" {
		out = settings.Pipeline.ChunksPath
	}
	size := chunkSize
	if size <= 0 {
		size = settings.Pipeline.ChunkSize
	}

	text, files, err := ingest.ReadCorpus(chunkInputs, logger_i.NewLogger("chunk"))
	if err != nil {
		return err
	}
	chunks, err := chunker.Chunk(text, size)
	if err != nil {
		return err
	}
	texts := make([]string, len(chunks))
	largest := 0
	for i, c := range chunks {
		texts[i] = c.Text
		largest = max(largest, c.Size)
	}
	if err := chunker.SaveChunks(out, texts); err != nil {
		return err
	}
	cmd.Printf("Read %d files, wrote %d chunks to %s (largest %d chars)\n", files, len(chunks), out, largest)
	return nil
}
