package chunker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveChunks writes the chunk list as an ordered JSON array of strings. This file is the only
// artifact passed from the chunking stage to the embedding/indexing stage.
func SaveChunks(path string, chunks []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating chunk dir: %w", err)
		}
	}
	if chunks == nil {
		chunks = []string{}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing chunks: %w", err)
	}
	return os.Rename(tmp, path)
}

func LoadChunks(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	var chunks []string
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decoding chunks %s: %w", path, err)
	}
	return chunks, nil
}
