package ingest

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/DocQA/internal/domain/commonModels"
)

// BuildDocuments pairs each chunk with its descriptive metadata. titles may be shorter than chunks
// or hold empty strings; those chunks are indexed without a title.
func BuildDocuments(chunks []string, titles []string, source string, now time.Time) []commonModels.Document {
	timestamp := now.UTC().Format(time.RFC3339)
	docs := make([]commonModels.Document, 0, len(chunks))
	for i, chunk := range chunks {
		metadata := map[string]any{
			commonModels.MetaChunkNumber: i,
			commonModels.MetaSource:      source,
			commonModels.MetaChunkSize:   utf8.RuneCountInString(chunk),
			commonModels.MetaTimestamp:   timestamp,
		}
		if i < len(titles) && strings.TrimSpace(titles[i]) != "" {
			metadata[commonModels.MetaTitle] = strings.TrimSpace(titles[i])
		}
		docs = append(docs, commonModels.Document{Content: chunk, Metadata: metadata})
	}
	return docs
}
