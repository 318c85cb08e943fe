package job

import (
	"context"
	"sync/atomic"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

// Service owns the job queue shared by the HTTP handlers (producers) and the worker pool (consumers).
type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	logger            *logger_i.Logger
}

type ServiceConfig struct {
	BufferLimit int
	JobStore    jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	if cfg.BufferLimit <= 0 {
		cfg.BufferLimit = config.BufferLimit
	}
	return &Service{
		JobChannel:        make(chan jobModel.Job, cfg.BufferLimit),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          cfg.JobStore,
		logger:            logger_i.NewLogger("job_service"),
	}
}

// Submit records the queued job and hands it to the workers. The channel send blocks when the
// buffer is full so a burst of requests cannot overwhelm the system.
func (s *Service) Submit(ctx context.Context, job jobModel.Job) {
	log := s.logger.WithTrace(ctx).With("jobId", job.Id)

	if err := s.JobStore.SaveJob(ctx, job); err != nil {
		log.Error("Failed to record queued job", "error", err)
	}

	metrics.IncrementJobsInQueue()
	s.JobChannel <- job
	log.Info("Queued job", "type", job.JobType)

	// one more worker every N requests, and one per ingest since those run long batch calls.
	// idle workers retire on their own.
	count := atomic.AddInt64(&s.RequestCount, 1)
	if count%config.RequestsPerNewWorkerCount == 0 || job.JobType == jobModel.JobTypeIngest {
		metrics.StartDispatcherSignalCount()
		select {
		case s.DispatcherChannel <- true:
		default:
			log.Debug("dispatcher already signalled")
		}
	}
}

func (s *Service) GetJob(ctx context.Context, id string) (jobModel.Job, bool) {
	if id == "" {
		return jobModel.Job{}, false
	}
	return s.JobStore.GetJob(ctx, id)
}
