package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/data/redisStore"
	"github.com/akolanti/DocQA/internal/data/store"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisJobStore(t *testing.T) (*store.RedisJobStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return store.NewRedisJobStore(redisStore.NewStoreFromClient(client)), mr
}

func TestRedisJobStore_Lifecycle(t *testing.T) {
	jobStore, mr := newRedisJobStore(t)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:     jobID,
		Status: jobModel.JobStatusNoEvidence,
		JobPayload: jobModel.JobPayload{
			Question: "How do I define a tool?",
			Sources:  []string{"doc-4", "doc-9"},
		},
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		if err := jobStore.SaveJob(ctx, testJob); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("Job was saved but not found in Redis")
		}
		if retrievedJob.JobPayload.Question != testJob.JobPayload.Question || retrievedJob.Status != testJob.Status {
			t.Errorf("Data mismatch! Got %+v, want %+v", retrievedJob, testJob)
		}
		if len(retrievedJob.JobPayload.Sources) != 2 {
			t.Errorf("Sources lost in roundtrip: %v", retrievedJob.JobPayload.Sources)
		}
	})

	t.Run("Saved job expires", func(t *testing.T) {
		if ttl := mr.TTL("job:" + jobID); ttl != config.RedisJobStoreTTL {
			t.Errorf("TTL got %v, want %v", ttl, config.RedisJobStoreTTL)
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		if _, found := jobStore.GetJob(ctx, "ghost-id"); found {
			t.Error("Expected found=false for non-existent key")
		}
	})

	t.Run("Corrupt value is not found", func(t *testing.T) {
		_ = mr.Set("job:broken", "{not json")
		if _, found := jobStore.GetJob(ctx, "broken"); found {
			t.Error("Expected found=false for corrupt value")
		}
	})

	t.Run("Delete Job", func(t *testing.T) {
		jobStore.DeleteJob(ctx, jobID)
		if mr.Exists("job:" + jobID) {
			t.Error("Job still exists in Redis after DeleteJob call")
		}
	})
}

func TestRedisJobStore_Race(t *testing.T) {
	jobStore, _ := newRedisJobStore(t)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "race-trace")
	job := jobModel.Job{Id: "race-job"}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = jobStore.SaveJob(ctx, job)
			_, _ = jobStore.GetJob(ctx, "race-job")
		}()
	}
	wg.Wait()

	if _, found := jobStore.GetJob(ctx, "race-job"); !found {
		t.Error("job missing after concurrent writes")
	}
}

func TestInMemoryJobStore(t *testing.T) {
	s := store.NewInMemoryJobStore()
	ctx := context.Background()

	if err := s.SaveJob(ctx, jobModel.Job{Id: "a", Status: jobModel.JobStatusQueued}); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}
	if got, found := s.GetJob(ctx, "a"); !found || got.Status != jobModel.JobStatusQueued {
		t.Errorf("unexpected job %+v found=%v", got, found)
	}
	s.DeleteJob(ctx, "a")
	if _, found := s.GetJob(ctx, "a"); found {
		t.Error("job still present after delete")
	}
}

func TestNewJobStore_Fallback(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx := context.Background()

	js, closeFn, err := store.NewJobStore(ctx, config.RedisSettings{Addr: addr, Fallback: true})
	if err != nil {
		t.Fatalf("expected fallback, got error %v", err)
	}
	if _, ok := js.(*store.InMemoryJobStore); !ok {
		t.Errorf("expected in-memory store, got %T", js)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close failed: %v", err)
	}

	if _, _, err := store.NewJobStore(ctx, config.RedisSettings{Addr: addr}); err == nil {
		t.Error("expected an error when fallback is disabled")
	}
}

func TestNewJobStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	js, closeFn, err := store.NewJobStore(context.Background(), config.RedisSettings{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("NewJobStore failed: %v", err)
	}
	defer closeFn()

	if _, ok := js.(*store.RedisJobStore); !ok {
		t.Errorf("expected redis store, got %T", js)
	}
}
