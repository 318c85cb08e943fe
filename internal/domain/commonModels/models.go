package commonModels

import (
	"path/filepath"
	"strings"
)

// metadata keys persisted with every ChunkRecord
const (
	MetaTitle       = "title"
	MetaPageContent = "page_content"
	MetaChunkNumber = "chunk_number"
	MetaSource      = "source"
	MetaChunkSize   = "chunk_size"
	MetaTimestamp   = "timestamp"
)

// Document is one chunk plus its descriptive metadata, ready for indexing. Immutable once built.
type Document struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Chunk is a trimmed, non-empty slice of the source corpus. Ordinal is dense and zero-based per run.
type Chunk struct {
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
	Size    int    `json:"size"`
}

// ChunkRecord is the persisted unit in the vector index.
type ChunkRecord struct {
	Id       string         `json:"id"`
	Vector   []float32      `json:"vector"`
	Metadata map[string]any `json:"metadata"`
}

// Match is one retrieval hit.
type Match struct {
	Id       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// CachedAnswer is what the semantic cache stores per answered question.
type CachedAnswer struct {
	Answer  string   `json:"answer"`
	Context string   `json:"context"`
	Sources []string `json:"sources"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"

func GetDocType(docPath string) DocType {
	switch strings.ToLower(filepath.Ext(docPath)) {
	case ".pdf":
		return PDF
	case ".docx", ".rtf", ".odt":
		return DOCX
	case ".txt", ".md", ".markdown":
		return TXT
	default:
		return ERR
	}
}
