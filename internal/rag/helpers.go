package rag

import (
	"context"
	"net/http"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/rag/assembler"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

func returnOutput(job jobModel.Job, ans string) jobModel.Job {
	job.JobPayload.Answer = ans
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	return job
}

// logStep records progress on the job when the ask runs as a queued job.
func logStep(job *jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) {
	if job == nil {
		return
	}
	job.CurrentStep = status
	log.Debug("ProcessRequest", "Current Status", job.CurrentStep)
}

func (s *service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "error", err, "jobId", job.Id)

	job.Error = jobModel.JobError{
		Code:    http.StatusInternalServerError,
		Message: "Internal Server Error",
		Retry:   canRetry,
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

func (s *service) jobBadRequest(job jobModel.Job, err error) jobModel.Job {
	job.Error = jobModel.JobError{
		Code:    http.StatusBadRequest,
		Message: err.Error(),
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	return job
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, question string) ([]float32, error) {
	logStep(job, jobModel.EmbeddingAPICall, log)
	return s.embedder.EmbedQuery(ctx, question)
}

func (s *service) executeCacheCheckStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, emb []float32) (commonModels.CachedAnswer, bool) {
	logStep(job, jobModel.CacheCall, log)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	ans, found, err := s.cache.GetCachedAnswer(ctx, emb)
	if err != nil {
		// a broken cache only costs a fresh answer
		log.Warn("cache lookup failed", "error", err)
		return commonModels.CachedAnswer{}, false
	}
	return ans, found
}

func (s *service) executeVectorSearchStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, emb []float32, topK int) ([]commonModels.Match, error) {
	logStep(job, jobModel.VectorDBCall, log)
	return s.retriever.Retrieve(ctx, emb, topK)
}

func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, job *jobModel.Job, prompt string) (string, error) {
	logStep(job, jobModel.LLMCall, log)

	callCtx, cancel := context.WithTimeout(ctx, config.ExternalCallTimeout)
	defer cancel()
	return s.llmProvider.Complete(callCtx, assembler.SystemMessage, prompt)
}

func (s *service) saveToCacheInBackground(ctx context.Context, vector []float32, answer commonModels.CachedAnswer) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.ExternalCallTimeout)
	go func() {
		defer cancel()
		if err := s.cache.SaveToCache(saveCtx, vector, answer); err != nil {
			s.logger.Error("Failed to save to cache", "error", err)
		}
	}()
}
