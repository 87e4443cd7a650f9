package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/openscribe/scribe/internal/metrics"
)

// Job is one queued transcription request in daemon mode.
type Job struct {
	AudioPath string
}

// QueueStats reports the current state of the transcription queue.
type QueueStats struct {
	Pending   int   `json:"pending"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// WorkerPool drains queued jobs through a Runner. The default deployment
// runs a single worker; the Runner's model mutex keeps even multi-worker
// pools from invoking the model concurrently.
type WorkerPool struct {
	jobs    chan Job
	runner  *Runner
	workers int
	log     zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	completed atomic.Int64
	failed    atomic.Int64

	// stopMu orders Enqueue sends against Stop's channel close: Stop's
	// write lock waits out in-flight Enqueues before closing.
	stopMu  sync.RWMutex
	stopped bool
}

// NewWorkerPool creates a worker pool over the given runner.
func NewWorkerPool(runner *Runner, workers, queueSize int, log zerolog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		jobs:    make(chan Job, queueSize),
		runner:  runner,
		workers: workers,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.log.Info().Int("workers", wp.workers).Int("queue_size", cap(wp.jobs)).Msg("transcription worker pool started")
}

// Stop signals workers to drain and waits for completion.
func (wp *WorkerPool) Stop() {
	wp.stopMu.Lock()
	wp.stopped = true
	wp.stopMu.Unlock()
	close(wp.jobs)
	wp.wg.Wait()
	wp.cancel()
	wp.log.Info().
		Int64("completed", wp.completed.Load()).
		Int64("failed", wp.failed.Load()).
		Msg("transcription worker pool stopped")
}

// Enqueue adds a job to the queue. Returns false if the queue is full or
// the pool has been stopped.
func (wp *WorkerPool) Enqueue(j Job) bool {
	wp.stopMu.RLock()
	defer wp.stopMu.RUnlock()
	if wp.stopped {
		return false
	}
	select {
	case wp.jobs <- j:
		metrics.QueueDepth.Set(float64(len(wp.jobs)))
		return true
	default:
		return false
	}
}

// Stats returns current queue statistics.
func (wp *WorkerPool) Stats() QueueStats {
	return QueueStats{
		Pending:   len(wp.jobs),
		Completed: wp.completed.Load(),
		Failed:    wp.failed.Load(),
	}
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int { return wp.workers }

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.log.With().Int("worker", id).Logger()

	for job := range wp.jobs {
		metrics.QueueDepth.Set(float64(len(wp.jobs)))
		if _, _, err := wp.runner.ProcessFile(wp.ctx, job.AudioPath); err != nil {
			wp.failed.Add(1)
			log.Warn().Err(err).Str("audio", job.AudioPath).Msg("job failed")
		} else {
			wp.completed.Add(1)
		}
	}
}
