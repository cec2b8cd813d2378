package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/utils"
)

const maxJobRetries = 3

// Job is a unit of background work. Failed jobs are requeued until
// maxJobRetries is reached.
type Job struct {
	ID         string
	Name       string
	Run        func(ctx context.Context) error
	Timeout    time.Duration
	RetryCount int
	CreatedAt  time.Time
}

func NewJob(name string, run func(ctx context.Context) error) Job {
	return Job{ID: uuid.NewString(), Name: name, Run: run, CreatedAt: time.Now().UTC()}
}

type Pool struct {
	jobs       chan Job
	quit       chan struct{}
	mu         sync.Mutex
	started    bool
	stopped    bool
	wg         sync.WaitGroup
	numWorkers int
}

func NewPool(numWorkers int, queueCapacity int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueCapacity <= 0 {
		queueCapacity = 100
	}
	return &Pool{
		jobs:       make(chan Job, queueCapacity),
		quit:       make(chan struct{}),
		numWorkers: numWorkers,
	}
}

func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			utils.Zlog.Debug("Worker started", zap.Int("workerId", workerID))
			for {
				select {
				case <-p.quit:
					utils.Zlog.Debug("Worker stopping", zap.Int("workerId", workerID))
					return
				case job := <-p.jobs:
					p.process(workerID, job)
				}
			}
		}(i + 1)
	}
}

// Stop signals workers to exit and waits for them until ctx expires.
// Jobs still queued are dropped.
func (p *Pool) Stop(ctx context.Context) {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.stopped = true
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.quit)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		utils.Zlog.Warn("Timeout waiting for workers to stop")
	case <-done:
		utils.Zlog.Info("All workers stopped")
	}
}

// Enqueue never blocks. It returns false when the queue is full or the pool
// is stopping.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case <-p.quit:
		return false
	default:
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

func (p *Pool) process(workerID int, job Job) {
	start := time.Now()
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := p.run(ctx, job)
	if err == nil {
		utils.Zlog.Info("Job completed",
			zap.Int("workerId", workerID),
			zap.String("jobId", job.ID),
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)))
		return
	}

	utils.Zlog.Error("Job failed",
		zap.Int("workerId", workerID),
		zap.String("jobId", job.ID),
		zap.String("job", job.Name),
		zap.Int("retryCount", job.RetryCount),
		zap.Error(err))

	if job.RetryCount >= maxJobRetries {
		utils.Zlog.Error("Max retries exceeded, dropping job",
			zap.String("jobId", job.ID),
			zap.String("job", job.Name))
		return
	}
	job.RetryCount++
	if ok := p.Enqueue(job); !ok {
		utils.Zlog.Error("Failed to requeue job (queue full or stopping)",
			zap.String("jobId", job.ID),
			zap.String("job", job.Name))
	}
}

func (p *Pool) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			utils.Zlog.Error("Job panicked", zap.String("jobId", job.ID), zap.Any("panic", rec))
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	if job.Run == nil {
		return nil
	}
	return job.Run(ctx)
}
