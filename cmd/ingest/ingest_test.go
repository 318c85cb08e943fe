package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/DocQA/internal/rag/chunker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		chunkInputs, chunkOut, chunkSize = nil, "", 0
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestChunkCommand_WritesChunkFile(t *testing.T) {
	dir := t.TempDir()
	crawl := filepath.Join(dir, "crawl")
	require.NoError(t, os.MkdirAll(crawl, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(crawl, "b.md"), []byte(strings.Repeat("second page. ", 20)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(crawl, "a.md"), []byte("first page"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(crawl, "logo.png"), []byte{0x89}, 0o644))
	out := filepath.Join(dir, "chunks.json")

	stdout, err := run(t, "chunk", "--config", filepath.Join(dir, "missing.yaml"), "--input", crawl, "--out", out, "--size", "100")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Read 2 files")

	chunks, err := chunker.LoadChunks(out)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasPrefix(chunks[0], "first page"))
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 100)
	}
}

func TestChunkCommand_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "chunk", "--config", filepath.Join(dir, "missing.yaml"), "--input", filepath.Join(dir, "nope"))
	require.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"chunk", "upload", "backfill", "setup"} {
		assert.True(t, names[want], want)
	}
}
