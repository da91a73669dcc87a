// Package processing runs a bounded pool of worker goroutines that
// drain a job queue, used to cap how much concurrent strategy
// evaluation and simulation work the engine takes on at once.
package processing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Job is a unit of work a worker pool can execute. The mempool
// ingester's per-transaction dispatch job implements it; strategy
// evaluation, simulation and submission run inside that job's handler.
type Job interface {
	Execute(ctx context.Context) (interface{}, error)
	GetPriority() int
	GetID() string
	GetTimeout() time.Duration
}

// WorkerPoolStats reports point-in-time utilization of a WorkerPool.
type WorkerPoolStats struct {
	PoolSize       int           `json:"pool_size"`
	ActiveWorkers  int           `json:"active_workers"`
	QueuedJobs     int           `json:"queued_jobs"`
	CompletedJobs  int64         `json:"completed_jobs"`
	FailedJobs     int64         `json:"failed_jobs"`
	AverageLatency time.Duration `json:"average_latency"`
	Utilization    float64       `json:"utilization"`
}

// WorkerPool dispatches submitted jobs across a fixed number of worker
// goroutines.
type WorkerPool interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Submit(job Job) error
	GetStats() *WorkerPoolStats
	Resize(newSize int) error
}

// WorkerPoolConfig holds configuration for the worker pool
type WorkerPoolConfig struct {
	PoolSize        int           `json:"pool_size"`
	QueueSize       int           `json:"queue_size"`
	MaxJobTimeout   time.Duration `json:"max_job_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	EnableMetrics   bool          `json:"enable_metrics"`
}

// DefaultWorkerPoolConfig returns default configuration
func DefaultWorkerPoolConfig() *WorkerPoolConfig {
	return &WorkerPoolConfig{
		PoolSize:        10,
		QueueSize:       1000,
		MaxJobTimeout:   30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		EnableMetrics:   true,
	}
}

// workerPool implements the WorkerPool interface
type workerPool struct {
	config   *WorkerPoolConfig
	jobQueue chan Job
	workers  []*worker
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex
	running  bool

	// Metrics
	completedJobs int64
	failedJobs    int64
	totalLatency  int64
	jobCount      int64
}

// worker represents a single worker goroutine
type worker struct {
	id       int
	pool     *workerPool
	jobQueue chan Job
	quit     chan bool
}

// NewWorkerPool creates a new worker pool instance
func NewWorkerPool(config *WorkerPoolConfig) WorkerPool {
	if config == nil {
		config = DefaultWorkerPoolConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &workerPool{
		config:   config,
		jobQueue: make(chan Job, config.QueueSize),
		workers:  make([]*worker, config.PoolSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the worker pool
func (wp *workerPool) Start(ctx context.Context) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return fmt.Errorf("worker pool is already running")
	}

	for i := 0; i < wp.config.PoolSize; i++ {
		w := &worker{
			id:       i,
			pool:     wp,
			jobQueue: wp.jobQueue,
			quit:     make(chan bool),
		}
		wp.workers[i] = w

		wp.wg.Add(1)
		go w.start()
	}

	wp.running = true
	return nil
}

// Stop stops the worker pool gracefully
func (wp *workerPool) Stop(ctx context.Context) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.running {
		return fmt.Errorf("worker pool is not running")
	}

	wp.cancel()
	close(wp.jobQueue)

	for _, w := range wp.workers {
		w.stop()
	}

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(wp.config.ShutdownTimeout):
		return fmt.Errorf("worker pool shutdown timeout")
	case <-ctx.Done():
		return ctx.Err()
	}

	wp.running = false
	return nil
}

// Submit submits a job to the worker pool. It never blocks: a full
// queue is reported back to the caller rather than applying backpressure,
// since callers sit downstream of a bounded ingest buffer that already
// applies its own backpressure.
func (wp *workerPool) Submit(job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.running {
		return fmt.Errorf("worker pool is not running")
	}

	select {
	case wp.jobQueue <- job:
		return nil
	default:
		return fmt.Errorf("job queue is full")
	}
}

// GetStats returns current worker pool statistics
func (wp *workerPool) GetStats() *WorkerPoolStats {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	completed := atomic.LoadInt64(&wp.completedJobs)
	failed := atomic.LoadInt64(&wp.failedJobs)
	totalLatency := atomic.LoadInt64(&wp.totalLatency)
	jobCount := atomic.LoadInt64(&wp.jobCount)

	stats := &WorkerPoolStats{
		PoolSize:      wp.config.PoolSize,
		ActiveWorkers: wp.getActiveWorkerCount(),
		QueuedJobs:    len(wp.jobQueue),
		CompletedJobs: completed,
		FailedJobs:    failed,
	}

	if jobCount > 0 {
		stats.AverageLatency = time.Duration(totalLatency / jobCount)
	}

	if wp.config.PoolSize > 0 {
		stats.Utilization = float64(stats.ActiveWorkers) / float64(wp.config.PoolSize)
	}

	return stats
}

// Resize changes the pool size (not implemented for this version)
func (wp *workerPool) Resize(newSize int) error {
	return fmt.Errorf("dynamic resizing not implemented")
}

// getActiveWorkerCount returns the number of currently active workers
func (wp *workerPool) getActiveWorkerCount() int {
	activeCount := 0
	for _, w := range wp.workers {
		if w != nil {
			activeCount++
		}
	}
	return activeCount
}

// worker methods

// start starts the worker goroutine
func (w *worker) start() {
	defer w.pool.wg.Done()

	for {
		select {
		case job, ok := <-w.jobQueue:
			if !ok {
				return // channel closed
			}
			w.processJob(job)

		case <-w.quit:
			return

		case <-w.pool.ctx.Done():
			return
		}
	}
}

// stop stops the worker
func (w *worker) stop() {
	close(w.quit)
}

// processJob executes a job with timeout and metrics tracking
func (w *worker) processJob(job Job) {
	startTime := time.Now()

	timeout := job.GetTimeout()
	if timeout == 0 {
		timeout = w.pool.config.MaxJobTimeout
	}

	ctx, cancel := context.WithTimeout(w.pool.ctx, timeout)
	defer cancel()

	_, err := job.Execute(ctx)

	duration := time.Since(startTime)
	atomic.AddInt64(&w.pool.jobCount, 1)
	atomic.AddInt64(&w.pool.totalLatency, int64(duration))

	if err != nil {
		atomic.AddInt64(&w.pool.failedJobs, 1)
	} else {
		atomic.AddInt64(&w.pool.completedJobs, 1)
	}
}
