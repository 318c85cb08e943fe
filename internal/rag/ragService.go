package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/rag/assembler"
	"github.com/akolanti/DocQA/internal/rag/llm"
	"github.com/akolanti/DocQA/internal/rag/retriever"
	"github.com/akolanti/DocQA/internal/rag/vectorDB"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

// LLMErrorPlaceholder replaces the answer when the completion call fails. The assembled context
// is still returned alongside it.
const LLMErrorPlaceholder = "[Error generating response]"

var ErrEmptyQuestion = errors.New("question must not be empty")

type Outcome string

const (
	OutcomeAnswered   Outcome = "answered"
	OutcomeNoEvidence Outcome = "no_evidence"
	OutcomeLLMError   Outcome = "llm_error"
)

// AskResult is the outcome of one question. Context is the exact string the LLM was prompted with.
type AskResult struct {
	Question string
	Context  string
	Answer   string
	Sources  []string
	Outcome  Outcome
	Cached   bool
}

// QueryEmbedder is satisfied by *embedding.Batcher.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// DocumentIngester is satisfied by *ingest.Pipeline.
type DocumentIngester interface {
	ProcessDocumentIngestion(ctx context.Context, job jobModel.Job) jobModel.Job
}

// Service is what the worker pool and the MCP tools call. Neither needs to know which LLM,
// embedder or vector index sits behind it.
type Service interface {
	ProcessRequest(ctx context.Context, job jobModel.Job) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
	Ask(ctx context.Context, question string) (AskResult, error)
	Search(ctx context.Context, question string, topK int) ([]commonModels.Match, error)
}

type service struct {
	cache       vectorDB.AnswerCache
	retriever   *retriever.Retriever
	llmProvider llm.Provider
	embedder    QueryEmbedder
	ingester    DocumentIngester
	topK        int
	logger      *logger_i.Logger
}

// NewService wires the ask path against store and the upload path against ingester.
func NewService(store vectorDB.Store, provider llm.Provider, em QueryEmbedder, ingester DocumentIngester, topK int) Service {
	if topK <= 0 {
		topK = config.DefaultTopK
	}
	return &service{
		cache:       store,
		retriever:   retriever.New(store),
		llmProvider: provider,
		embedder:    em,
		ingester:    ingester,
		topK:        topK,
		logger:      logger_i.NewLogger("rag_service"),
	}
}

func (s *service) Ask(ctx context.Context, question string) (AskResult, error) {
	return s.ask(ctx, question, nil)
}

func (s *service) ask(ctx context.Context, question string, job *jobModel.Job) (AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return AskResult{}, ErrEmptyQuestion
	}
	log := s.logger.WithTrace(ctx)
	result := AskResult{Question: question}

	vector, err := s.executeEmbeddingStep(ctx, log, job, question)
	if err != nil {
		return result, fmt.Errorf("embedding question: %w", err)
	}

	if cached, found := s.executeCacheCheckStep(ctx, log, job, vector); found {
		result.Answer = cached.Answer
		result.Context = cached.Context
		result.Sources = cached.Sources
		result.Outcome = OutcomeAnswered
		result.Cached = true
		metrics.IncrementAskOutcome(string(OutcomeAnswered))
		return result, nil
	}

	matches, err := s.executeVectorSearchStep(ctx, log, job, vector, s.topK)
	if err != nil {
		return result, fmt.Errorf("retrieving matches: %w", err)
	}
	if len(matches) == 0 {
		log.Info("no matches for question")
		result.Answer = assembler.NotAvailableAnswer
		result.Outcome = OutcomeNoEvidence
		metrics.IncrementAskOutcome(string(OutcomeNoEvidence))
		return result, nil
	}

	result.Context = assembler.Assemble(matches)
	result.Sources = assembler.Sources(matches)

	answer, err := s.executeLLMStep(ctx, log, job, assembler.BuildPrompt(result.Context, question))
	if err != nil {
		log.Error("LLM generation failed", "error", err)
		result.Answer = LLMErrorPlaceholder
		result.Outcome = OutcomeLLMError
		metrics.IncrementAskOutcome(string(OutcomeLLMError))
		return result, nil
	}
	result.Answer = answer
	result.Outcome = OutcomeAnswered
	metrics.IncrementAskOutcome(string(OutcomeAnswered))

	s.saveToCacheInBackground(ctx, vector, commonModels.CachedAnswer{
		Answer:  result.Answer,
		Context: result.Context,
		Sources: result.Sources,
	})
	return result, nil
}

func (s *service) Search(ctx context.Context, question string, topK int) ([]commonModels.Match, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if topK <= 0 {
		topK = s.topK
	}
	log := s.logger.WithTrace(ctx)

	vector, err := s.executeEmbeddingStep(ctx, log, nil, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	return s.executeVectorSearchStep(ctx, log, nil, vector, topK)
}

func (s *service) ProcessRequest(ctx context.Context, jobt jobModel.Job) jobModel.Job {
	processContext, cancel := context.WithTimeout(ctx, config.AskProcessTimeout)
	defer cancel()

	jobt.CurrentStep = jobModel.RAGCall
	result, err := s.ask(processContext, jobt.JobPayload.Question, &jobt)
	switch {
	case errors.Is(err, ErrEmptyQuestion):
		return s.jobBadRequest(jobt, err)
	case err != nil:
		return s.jobError(jobt, err, "ASK_FAILURE", true)
	}

	jobt.JobPayload.Question = result.Question
	jobt.JobPayload.Context = result.Context
	jobt.JobPayload.Sources = result.Sources
	jobt.JobPayload.Cached = result.Cached

	if result.Outcome == OutcomeNoEvidence {
		jobt = returnOutput(jobt, result.Answer)
		jobt.Status = jobModel.JobStatusNoEvidence
		return jobt
	}
	return returnOutput(jobt, result.Answer)
}

func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	if s.ingester == nil {
		return s.jobError(job, errors.New("ingestion is not configured"), "INGESTION_FAILURE", false)
	}
	j := s.ingester.ProcessDocumentIngestion(ctx, job)
	if j.Status != jobModel.JobStatusComplete {
		return s.jobError(j, errors.New(j.Error.Message), "INGESTION_FAILURE", true)
	}
	return j
}
