package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/rag/chunker"
	"github.com/akolanti/DocQA/internal/rag/indexer"
	"github.com/akolanti/DocQA/internal/rag/vectorDB"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

// TitleGenerator is satisfied by *titles.Generator.
type TitleGenerator interface {
	Titles(ctx context.Context, chunks []string) []string
}

// Pipeline runs chunk lists through titles, metadata and the indexer.
type Pipeline struct {
	titler   TitleGenerator
	embedder indexer.Embedder
	store    vectorDB.DataProcessor
	settings config.PipelineSettings
	now      func() time.Time
	logger   *logger_i.Logger
}

// NewPipeline builds a Pipeline. titler may be nil, in which case no titles are derived.
func NewPipeline(titler TitleGenerator, embedder indexer.Embedder, store vectorDB.DataProcessor, settings config.PipelineSettings) *Pipeline {
	return &Pipeline{
		titler:   titler,
		embedder: embedder,
		store:    store,
		settings: settings,
		now:      time.Now,
		logger:   logger_i.NewLogger("ingest"),
	}
}

// EnsureCollection creates the index collection if it is missing.
func (p *Pipeline) EnsureCollection(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, config.ExternalCallTimeout)
	defer cancel()
	return p.store.CreateCollection(callCtx, p.embedder.Dimension())
}

// Index titles and indexes chunks, using ids prefix+ordinal. A fromBatch above zero resumes a failed
// run: earlier upsert batches are neither titled nor sent again.
func (p *Pipeline) Index(ctx context.Context, chunks []string, source string, prefix string, fromBatch int) (int, error) {
	log := p.logger.WithTrace(ctx)
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			return 0, fmt.Errorf("%w: %s", indexer.ErrEmptyDocument, indexer.RecordID(prefix, i))
		}
	}
	if err := p.EnsureCollection(ctx); err != nil {
		return 0, fmt.Errorf("ensuring collection: %w", err)
	}

	fromBatch = max(fromBatch, 0)
	start := min(fromBatch*p.settings.UpsertBatchSize, len(chunks))

	var titles []string
	if p.titler != nil && !p.settings.SkipTitles && start < len(chunks) {
		log.Info("deriving titles", "chunks", len(chunks)-start, "from", start)
		titles = make([]string, len(chunks))
		copy(titles[start:], p.titler.Titles(ctx, chunks[start:]))
	}
	docs := BuildDocuments(chunks, titles, source, p.now())

	ix := indexer.New(p.embedder, p.store,
		indexer.WithIDPrefix(prefix),
		indexer.WithConcurrency(p.settings.Concurrency),
		indexer.WithFromBatch(fromBatch),
	)

	written, err := ix.Upsert(ctx, docs, p.settings.UpsertBatchSize)
	if err != nil {
		return written, err
	}
	log.Info("indexed chunks", "written", written, "prefix", prefix)
	return written, nil
}

// Backfill re-derives page_content for already indexed chunks.
func (p *Pipeline) Backfill(ctx context.Context, chunks []string) (int, error) {
	ix := indexer.New(p.embedder, p.store, indexer.WithIDPrefix(config.DefaultIDPrefix))
	return ix.Backfill(ctx, chunks, p.settings.UpsertBatchSize)
}

// UploadPrefix keeps uploaded documents out of the crawl run's doc-N id space.
func UploadPrefix(documentName string) string {
	name := strings.TrimSpace(documentName)
	if name == "" {
		name = "upload"
	}
	return name + "/" + config.DefaultIDPrefix
}

// ProcessDocumentIngestion extracts, chunks and indexes an uploaded file, then removes it.
func (p *Pipeline) ProcessDocumentIngestion(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := p.logger.WithTrace(ctx)

	docName := job.JobPayload.IngestFileName
	docPath := job.JobPayload.IngestURL
	defer func() {
		if err := os.Remove(docPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Error("Error removing file", "error", err)
		}
	}()

	log.Debug("Processing document", "filename", docName, "path", docPath)
	job.CurrentStep = jobModel.IngestExtracting
	text, err := ExtractText(docPath, log)
	if err != nil {
		log.Error("Error processing document", "error", err)
		return failed(job, "Error extracting document content")
	}

	parts, err := chunker.Split(text, p.settings.ChunkSize)
	if err != nil {
		return failed(job, err.Error())
	}
	if len(parts) == 0 {
		return failed(job, "document has no text content")
	}

	job.CurrentStep = jobModel.IngestProcessing
	written, err := p.Index(ctx, parts, docName, UploadPrefix(docName), 0)
	if err != nil {
		log.Error("Error indexing document", "error", err)
		job.JobPayload.ChunksIndexed = written
		return failed(job, err.Error())
	}

	job.JobPayload.ChunksIndexed = written
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	return job
}

func failed(job jobModel.Job, message string) jobModel.Job {
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	job.Error.Message = message
	return job
}
