package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/job"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/rag"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

// Pool is an elastic set of workers draining the job channel. It starts with one worker, grows on
// dispatcher signals up to maxWorkers and lets idle workers retire down to minWorkers.
type Pool struct {
	jobService  *job.Service
	ragService  rag.Service
	stop        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	count       atomic.Int64
	minWorkers  int64
	maxWorkers  int64
	idleTimeout time.Duration
	logger      *logger_i.Logger
}

type Option func(*Pool)

func WithIdleTimeout(d time.Duration) Option {
	return func(p *Pool) {
		p.idleTimeout = d
	}
}

func WithWorkerLimits(minWorkers, maxWorkers int64) Option {
	return func(p *Pool) {
		if minWorkers > 0 {
			p.minWorkers = minWorkers
		}
		if maxWorkers >= p.minWorkers {
			p.maxWorkers = maxWorkers
		}
	}
}

func NewPool(jobService *job.Service, ragService rag.Service, opts ...Option) *Pool {
	p := &Pool{
		jobService:  jobService,
		ragService:  ragService,
		stop:        make(chan struct{}),
		minWorkers:  config.MinWorkerCount,
		maxWorkers:  config.MaxWorkerCount,
		idleTimeout: config.IdleWorkerTimeout,
		logger:      logger_i.NewLogger("worker_pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pool) Start() {
	p.logger.Info("Initializing worker pool", "min", p.minWorkers, "max", p.maxWorkers)
	p.createWorker()
	go p.dispatcher()
}

// Stop retires every worker once its current job is done and waits for them.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) WorkerCount() int64 {
	return p.count.Load()
}

func (p *Pool) dispatcher() {
	p.logger.Info("Dispatcher started")
	for {
		select {
		case <-p.jobService.DispatcherChannel:
			if p.count.Load() < p.maxWorkers {
				p.logger.Info("Creating new worker", "workerCount", p.count.Load())
				p.createWorker()
			}
		case <-p.stop:
			return
		}
	}
}

func (p *Pool) createWorker() {
	p.wg.Add(1)
	p.count.Add(1)
	metrics.IncrementActiveWorkerCount()
	go p.worker()
}

func (p *Pool) worker() {
	idle := time.NewTimer(p.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case currentJob := <-p.jobService.JobChannel:
			metrics.DecrementJobsInQueue()
			p.executeJob(currentJob)
			idle.Reset(p.idleTimeout)

		case <-p.stop:
			p.count.Add(-1)
			p.finishWorker("Stop worker signal received")
			return

		case <-idle.C:
			if p.tryRetire() {
				p.finishWorker("Idle worker timeout")
				return
			}
			idle.Reset(p.idleTimeout)
		}
	}
}

// tryRetire releases one slot atomically so concurrent idle workers never drop the pool below
// minWorkers.
func (p *Pool) tryRetire() bool {
	for {
		current := p.count.Load()
		if current <= p.minWorkers {
			return false
		}
		if p.count.CompareAndSwap(current, current-1) {
			return true
		}
	}
}

func (p *Pool) finishWorker(reason string) {
	metrics.DecrementActiveWorkerCount()
	p.logger.Info("Removed worker", "reason", reason, "workerCount", p.count.Load())
	p.wg.Done()
}
