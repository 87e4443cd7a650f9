package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// AsyncMirror uploads artifacts to S3 in the background without blocking the
// transcription pipeline. Artifacts are already on local disk before being
// enqueued here.
type AsyncMirror struct {
	s3       *S3Store
	ch       chan mirrorJob
	log      zerolog.Logger
	wg       sync.WaitGroup
	stopped  atomic.Bool
	stopOnce sync.Once
}

type mirrorJob struct {
	key         string
	data        []byte
	contentType string
}

// NewAsyncMirror creates an async S3 mirror with the given buffer size.
func NewAsyncMirror(s3 *S3Store, bufferSize int, log zerolog.Logger) *AsyncMirror {
	return &AsyncMirror{
		s3:  s3,
		ch:  make(chan mirrorJob, bufferSize),
		log: log.With().Str("component", "s3-mirror").Logger(),
	}
}

// Enqueue adds an upload job. Non-blocking: drops with a warning if the
// queue is full or the mirror is stopped; the artifact stays on local disk.
func (m *AsyncMirror) Enqueue(key string, data []byte, contentType string) {
	if m.stopped.Load() {
		return
	}
	job := mirrorJob{key: key, data: data, contentType: contentType}
	select {
	case m.ch <- job:
	default:
		m.log.Warn().Str("key", key).Msg("s3 mirror queue full, skipping (artifact safe on disk)")
	}
}

// Start launches worker goroutines.
func (m *AsyncMirror) Start(workers int) {
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	m.log.Info().Int("workers", workers).Int("buffer", cap(m.ch)).Msg("s3 mirror started")
}

// Stop signals workers to drain and waits for queued uploads to finish.
func (m *AsyncMirror) Stop() {
	m.stopped.Store(true)
	m.stopOnce.Do(func() { close(m.ch) })
	m.wg.Wait()
}

func (m *AsyncMirror) worker() {
	defer m.wg.Done()
	for job := range m.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := m.s3.Save(ctx, job.key, job.data, job.contentType); err != nil {
			m.log.Error().Err(err).Str("key", job.key).Msg("s3 mirror upload failed (artifact safe on disk)")
		}
		cancel()
	}
}
