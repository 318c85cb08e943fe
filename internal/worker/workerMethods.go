package worker

import (
	"context"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/metrics"
)

func (p *Pool) executeJob(job jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.JobType), time.Since(start))
	}()

	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.JobTimeout)
	defer cancel()

	log := p.logger.WithTrace(ctx).With("jobId", job.Id)
	log.Debug("Processing job", "type", job.JobType)

	job.Status = jobModel.JobStatusRunning
	p.saveJobState(ctx, job)

	if job.JobType == jobModel.JobTypeIngest {
		job.CurrentStep = jobModel.IngestProcessing
		job = p.ragService.IngestDocument(ctx, job)
	} else {
		job = p.ragService.ProcessRequest(ctx, job)
	}

	if !job.IsFinal() {
		job.Status = jobModel.JobStatusComplete
	}
	job.EndTime = time.Now()
	p.saveJobState(ctx, job)
	log.Info("Job finished", "status", job.Status, "duration", time.Since(start))
}

func (p *Pool) saveJobState(ctx context.Context, job jobModel.Job) {
	// the job ctx may already be spent; the final state must still land
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.ExternalCallTimeout)
	defer cancel()
	if err := p.jobService.JobStore.SaveJob(saveCtx, job); err != nil {
		p.logger.WithTrace(ctx).Error("Failed to update job state", "jobId", job.Id, "error", err)
	}
}
