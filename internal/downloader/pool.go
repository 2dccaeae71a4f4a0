package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mitenedl/pkg/album"
	"mitenedl/pkg/logger"
	"mitenedl/pkg/ratelimit"
)

// Job represents a single item download task
type Job struct {
	Item album.Item
}

// Result represents the outcome of one job
type Result struct {
	Job      Job
	Skipped  bool
	Success  bool
	Error    error
	Duration time.Duration
}

// ItemFetcher downloads one item into the destination directory
type ItemFetcher interface {
	FetchItem(item album.Item) (skipped bool, err error)
}

// WorkerPool runs item fetches under a fixed concurrency bound. At most
// numWorkers fetches are in flight at any instant, regardless of how
// many jobs are submitted; a finishing worker immediately pulls the
// next job from the backlog. One job's failure never cancels siblings.
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     ItemFetcher
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewWorkerPool creates a download worker pool of the given width
func NewWorkerPool(numWorkers int, fetcher ItemFetcher, rateLimiter ratelimit.Limiter, log logger.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}
	if rateLimiter == nil {
		rateLimiter = ratelimit.NewUnlimited()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Start launches all workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop signals that no more jobs will arrive, waits for the backlog to
// drain and closes the result channel. Returns once every submitted job
// has settled.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("worker pool stopped")
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the channel results are delivered on
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// worker pulls jobs until the queue closes
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob handles a single download job
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()

	if !wp.rateLimiter.Allow() {
		wp.logger.DebugWithFields("worker waiting for rate limit", map[string]interface{}{
			"worker_id": workerID,
			"uuid":      job.Item.UUID,
		})
		wp.rateLimiter.Wait()
	}

	skipped, err := wp.fetcher.FetchItem(job.Item)
	duration := time.Since(start)

	if err != nil {
		wp.logger.ErrorWithFields("item download failed", map[string]interface{}{
			"worker_id": workerID,
			"uuid":      job.Item.UUID,
			"error":     err.Error(),
			"duration":  duration,
		})
		return Result{Job: job, Success: false, Error: err, Duration: duration}
	}

	return Result{Job: job, Skipped: skipped, Success: true, Duration: duration}
}

// Width returns the pool's concurrency bound
func (wp *WorkerPool) Width() int {
	return wp.numWorkers
}
