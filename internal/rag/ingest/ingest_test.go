package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/rag/indexer"
	"github.com/akolanti/DocQA/internal/rag/vectorDB/chromemDB"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dim = 4

type stubEmbedder struct{}

func (stubEmbedder) Dimension() int { return dim }

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{1, float32(len(t) % 5), 0, 1}
	}
	return out, nil
}

type titlerFunc func(ctx context.Context, chunks []string) []string

func (f titlerFunc) Titles(ctx context.Context, chunks []string) []string { return f(ctx, chunks) }

func newStore(t *testing.T) *chromemDB.Store {
	t.Helper()
	s, err := chromemDB.NewChromemStore(config.VectorStoreSettings{Collection: "docs"})
	require.NoError(t, err)
	return s
}

func pipelineSettings() config.PipelineSettings {
	return config.PipelineSettings{ChunkSize: 50, UpsertBatchSize: 2, Concurrency: 1}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected commonModels.DocType
	}{
		{"test.pdf", commonModels.PDF},
		{"DOC.DOCX", commonModels.DOCX},
		{"notes.txt", commonModels.TXT},
		{"README.md", commonModels.TXT},
		{"image.png", commonModels.ERR},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, commonModels.GetDocType(tt.path), tt.path)
	}
}

func TestBuildDocuments(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.FixedZone("CET", 3600))
	docs := BuildDocuments([]string{"héllo", "second chunk", "third"}, []string{"Greeting", "  "}, "pydantic.ai", now)

	require.Len(t, docs, 3)
	assert.Equal(t, "Greeting", docs[0].Metadata[commonModels.MetaTitle])
	assert.Equal(t, 0, docs[0].Metadata[commonModels.MetaChunkNumber])
	assert.Equal(t, 5, docs[0].Metadata[commonModels.MetaChunkSize])
	assert.Equal(t, "pydantic.ai", docs[0].Metadata[commonModels.MetaSource])
	assert.Equal(t, "2026-03-01T09:30:00Z", docs[0].Metadata[commonModels.MetaTimestamp])

	assert.NotContains(t, docs[1].Metadata, commonModels.MetaTitle)
	assert.NotContains(t, docs[2].Metadata, commonModels.MetaTitle)
	assert.Equal(t, 2, docs[2].Metadata[commonModels.MetaChunkNumber])
}

func TestExtractText_Plain(t *testing.T) {
	path := writeFile(t, t.TempDir(), "guide.md", "# Guide\n\nSome text.")
	text, err := ExtractText(path, logger_i.NewLogger("test"))
	require.NoError(t, err)
	assert.Equal(t, "# Guide\n\nSome text.", text)

	_, err = ExtractText(filepath.Join(t.TempDir(), "image.png"), logger_i.NewLogger("test"))
	assert.Error(t, err)
}

func TestReadCorpus_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "second")
	writeFile(t, dir, "a/intro.md", "first")
	writeFile(t, dir, "c.png", "ignored")
	writeFile(t, dir, "d.txt", "   ")

	text, files, err := ReadCorpus([]string{dir}, logger_i.NewLogger("test"))
	require.NoError(t, err)
	assert.Equal(t, 2, files)
	assert.Equal(t, "first\n\nsecond", text)

	_, _, err = ReadCorpus([]string{filepath.Join(dir, "missing")}, logger_i.NewLogger("test"))
	assert.Error(t, err)
}

func TestPipeline_IndexWithTitles(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	titler := titlerFunc(func(_ context.Context, chunks []string) []string {
		out := make([]string, len(chunks))
		out[0] = "Intro"
		return out
	})
	p := NewPipeline(titler, stubEmbedder{}, store, pipelineSettings())

	written, err := p.Index(ctx, []string{"alpha", "beta", "gamma"}, "pydantic.ai", config.DefaultIDPrefix, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	got, err := store.Fetch(ctx, []string{"doc-0", "doc-1", "doc-2"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Intro", got["doc-0"].Metadata[commonModels.MetaTitle])
	assert.NotContains(t, got["doc-1"].Metadata, commonModels.MetaTitle)
	assert.Equal(t, "gamma", got["doc-2"].Metadata[commonModels.MetaPageContent])
}

func TestPipeline_SkipTitles(t *testing.T) {
	called := false
	titler := titlerFunc(func(_ context.Context, chunks []string) []string {
		called = true
		return make([]string, len(chunks))
	})
	settings := pipelineSettings()
	settings.SkipTitles = true

	_, err := NewPipeline(titler, stubEmbedder{}, newStore(t), settings).Index(context.Background(), []string{"one"}, "src", "doc-", 0)
	require.NoError(t, err)
	assert.False(t, called)
}

func TestPipeline_ResumeTitlesOnlyRemainingBatches(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	var titled []string
	titler := titlerFunc(func(_ context.Context, chunks []string) []string {
		titled = append(titled, chunks...)
		out := make([]string, len(chunks))
		for i, c := range chunks {
			out[i] = "T " + c
		}
		return out
	})
	p := NewPipeline(titler, stubEmbedder{}, store, pipelineSettings())

	chunks := []string{"c0", "c1", "c2", "c3", "c4", "c5"}
	written, err := p.Index(ctx, chunks, "src", config.DefaultIDPrefix, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.Equal(t, []string{"c4", "c5"}, titled)

	got, err := store.Fetch(ctx, []string{"doc-3", "doc-4", "doc-5"})
	require.NoError(t, err)
	assert.NotContains(t, got, "doc-3")
	assert.Equal(t, "T c4", got["doc-4"].Metadata[commonModels.MetaTitle])
	assert.Equal(t, "T c5", got["doc-5"].Metadata[commonModels.MetaTitle])
}

func TestPipeline_BlankChunkIsRejected(t *testing.T) {
	called := false
	titler := titlerFunc(func(_ context.Context, chunks []string) []string {
		called = true
		return make([]string, len(chunks))
	})
	store := newStore(t)
	p := NewPipeline(titler, stubEmbedder{}, store, pipelineSettings())

	written, err := p.Index(context.Background(), []string{"alpha", "   ", "gamma"}, "src", config.DefaultIDPrefix, 0)
	require.ErrorIs(t, err, indexer.ErrEmptyDocument)
	assert.Zero(t, written)
	assert.False(t, called, "no titles are derived for a rejected run")
}

func TestUploadPrefix(t *testing.T) {
	assert.Equal(t, "manual.pdf/doc-", UploadPrefix("manual.pdf"))
	assert.Equal(t, "upload/doc-", UploadPrefix(" "))
}

func TestProcessDocumentIngestion(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := NewPipeline(nil, stubEmbedder{}, store, pipelineSettings())

	body := strings.Repeat("Sentence about models. ", 10)
	path := writeFile(t, t.TempDir(), "notes.txt", body)
	job := jobModel.Job{
		Id:         "job-1",
		JobType:    jobModel.JobTypeIngest,
		JobPayload: jobModel.JobPayload{IngestFileName: "notes.txt", IngestURL: path},
	}

	done := p.ProcessDocumentIngestion(ctx, job)
	assert.Equal(t, jobModel.JobStatusComplete, done.Status)
	assert.Greater(t, done.JobPayload.ChunksIndexed, 1)

	got, err := store.Fetch(ctx, []string{"notes.txt/doc-0"})
	require.NoError(t, err)
	assert.Contains(t, got, "notes.txt/doc-0")

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "uploaded file is removed")
}

func TestProcessDocumentIngestion_UnsupportedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "image.png", "binary")
	job := jobModel.Job{JobPayload: jobModel.JobPayload{IngestFileName: "image.png", IngestURL: path}}

	done := NewPipeline(nil, stubEmbedder{}, newStore(t), pipelineSettings()).ProcessDocumentIngestion(context.Background(), job)
	assert.Equal(t, jobModel.JobStatusError, done.Status)
	assert.NotEmpty(t, done.Error.Message)
}
