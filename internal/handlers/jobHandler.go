package handlers

import (
	"context"
	"time"

	"github.com/akolanti/DocQA/internal/adapter/utils"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/job"
	"github.com/akolanti/DocQA/internal/rag"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

// Handler serves the HTTP API. Ask and ingest requests become queued jobs; search runs inline.
type Handler struct {
	jobs      *job.Service
	rag       rag.Service
	uploadDir string
	topK      int
	logger    *logger_i.Logger
}

type newJobData struct {
	id               string
	message          string
	traceId          string
	isDocumentIngest bool
	documentName     string
	documentSource   string
}

// NewHandler builds the API handlers. uploadDir "" stores uploads under ./temporary_data.
func NewHandler(jobs *job.Service, ragService rag.Service, uploadDir string, topK int) *Handler {
	return &Handler{
		jobs:      jobs,
		rag:       ragService,
		uploadDir: uploadDir,
		topK:      topK,
		logger:    logger_i.NewLogger("job_handler"),
	}
}

func (h *Handler) createNewJob(ctx context.Context, newJob newJobData) {
	_job := jobModel.Job{
		Id:          newJob.id,
		CreatedTime: time.Now(),
		TraceId:     newJob.traceId,
		Status:      jobModel.JobStatusQueued,
	}

	if newJob.isDocumentIngest {
		_job.CurrentStep = jobModel.IngestInit
		_job.JobType = jobModel.JobTypeIngest
		_job.JobPayload.IngestFileName = newJob.documentName
		_job.JobPayload.IngestURL = newJob.documentSource
	} else {
		_job.JobType = jobModel.JobTypeQuery
		_job.JobPayload.Question = newJob.message
		_job.CurrentStep = jobModel.UserQueryInit
	}

	h.logger.WithTrace(ctx).Info("To create new job", "jobId", _job.Id, "type", _job.JobType)
	h.jobs.Submit(ctx, _job)
}

func (h *Handler) getJobStatus(ctx context.Context, id string) (jobModel.Job, bool) {
	return h.jobs.GetJob(ctx, id)
}

func newJobID() string {
	return utils.GetNewUUID()
}
