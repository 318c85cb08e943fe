package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/data/redisStore"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

const jobKeyPrefix = "job:"

type RedisJobStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisJobStore(store *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: logger_i.NewLogger("job_store"),
	}
}

// NewJobStore prefers redis and falls back to memory when allowed. The returned close func
// releases the redis connection and is always safe to call.
func NewJobStore(ctx context.Context, settings config.RedisSettings) (jobModel.JobStore, func() error, error) {
	rs, err := redisStore.NewRedisStore(ctx, settings, config.RedisJobStore)
	if err != nil {
		if !settings.Fallback {
			return nil, nil, fmt.Errorf("job store: %w", err)
		}
		logger_i.NewLogger("job_store").Warn("Redis is offline, using in-memory job store", "error", err)
		return NewInMemoryJobStore(), func() error { return nil }, nil
	}
	return NewRedisJobStore(rs), rs.Close, nil
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := s.logger.WithTrace(ctx).With("jobId", job.Id)
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err := s.store.Set(ctx, jobKey(job.Id), data, config.RedisJobStoreTTL); err != nil {
		log.Error("Failed to save job", "error", err)
		return err
	}
	log.Debug("Saved job to Redis", "status", job.Status)
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	log := s.logger.WithTrace(ctx).With("jobId", jobId)

	val, err := s.store.Get(ctx, jobKey(jobId))
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		log.Error("Failed to read job", "error", err)
		return job, false
	}

	if err := json.Unmarshal([]byte(val), &job); err != nil {
		log.Error("Stored job is not valid json", "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, jobKey(jobID)); err != nil {
		s.logger.WithTrace(ctx).Error("Error deleting job from Redis", "jobId", jobID, "error", err)
		return
	}
	s.logger.WithTrace(ctx).Debug("Job deleted from Redis", "jobId", jobID)
}
