package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a queued job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is one unit of background work
type Job struct {
	ID       uuid.UUID
	Kind     string
	Run      func(ctx context.Context) error
	Status   JobStatus
	Attempts int
	Error    string
}

// NewJob creates a pending job
func NewJob(kind string, run func(ctx context.Context) error) *Job {
	return &Job{
		ID:     uuid.New(),
		Kind:   kind,
		Run:    run,
		Status: JobStatusPending,
	}
}

// Config holds worker pool configuration
type Config struct {
	Workers       int
	QueueSize     int
	JobTimeout    time.Duration
	RetryAttempts int // extra attempts after the first failure
	RetryDelay    time.Duration
}

// DefaultConfig returns default pool configuration
func DefaultConfig() Config {
	return Config{
		Workers:       4,
		QueueSize:     256,
		JobTimeout:    10 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Second,
	}
}

// Stats is a snapshot of the pool's counters
type Stats struct {
	Submitted int64 `json:"submitted"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Rejected  int64 `json:"rejected"`
}

// Pool runs submitted jobs on a fixed set of worker goroutines.
// Stop drains the queue before returning.
type Pool struct {
	config Config
	logger *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool

	submitted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

// NewPool creates a stopped pool; zero config values take defaults
func NewPool(config Config, logger *zap.Logger) *Pool {
	def := DefaultConfig()
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = def.JobTimeout
	}
	if config.RetryAttempts < 0 {
		config.RetryAttempts = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		config: config,
		logger: logger,
	}
}

// Start launches the workers. Calling Start on a running pool is a no-op.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isRunning {
		return nil
	}

	p.jobs = make(chan *Job, p.config.QueueSize)
	ctx, p.cancel = context.WithCancel(ctx)
	p.isRunning = true

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.logger.Info("worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("queue_size", p.config.QueueSize),
	)
	return nil
}

// Stop closes the queue and waits for queued jobs to finish. When ctx
// expires first the running jobs are cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool stopped gracefully")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker pool stop timed out, cancelling running jobs")
		return ctx.Err()
	}
}

// Submit queues job without blocking
func (p *Pool) Submit(job *Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.isRunning {
		p.rejected.Add(1)
		return ErrPoolNotRunning
	}

	select {
	case p.jobs <- job:
		p.submitted.Add(1)
		return nil
	default:
		p.rejected.Add(1)
		return ErrJobQueueFull
	}
}

// Stats returns the pool's counters
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
	}
}

func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	for job := range p.jobs {
		p.process(ctx, job, workerID)
	}
}

// process runs job with retries, giving each attempt its own timeout
func (p *Pool) process(ctx context.Context, job *Job, workerID int) {
	job.Status = JobStatusRunning

	for {
		job.Attempts++
		err := p.runOnce(ctx, job)
		if err == nil {
			job.Status = JobStatusSuccess
			job.Error = ""
			p.succeeded.Add(1)
			return
		}

		job.Error = err.Error()
		if job.Attempts > p.config.RetryAttempts || ctx.Err() != nil {
			job.Status = JobStatusFailed
			p.failed.Add(1)
			p.logger.Error("job failed",
				zap.Int("worker_id", workerID),
				zap.String("job_id", job.ID.String()),
				zap.String("kind", job.Kind),
				zap.Int("attempts", job.Attempts),
				zap.Error(err),
			)
			return
		}

		p.logger.Debug("job attempt failed, retrying",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", job.Kind),
			zap.Int("attempt", job.Attempts),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
		case <-time.After(p.config.RetryDelay):
		}
	}
}

func (p *Pool) runOnce(ctx context.Context, job *Job) (err error) {
	jobCtx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	return job.Run(jobCtx)
}
