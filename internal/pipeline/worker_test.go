package pipeline

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestPool(t *testing.T, workers, queueSize int) *WorkerPool {
	t.Helper()
	runner := newTestRunner(t, &fakeProvider{}, nil, t.TempDir())
	return NewWorkerPool(runner, workers, queueSize, zerolog.Nop())
}

func TestNewWorkerPool(t *testing.T) {
	wp := newTestPool(t, 4, 100)
	if cap(wp.jobs) != 100 {
		t.Errorf("queue capacity = %d, want 100", cap(wp.jobs))
	}
	if wp.Workers() != 4 {
		t.Errorf("Workers = %d, want 4", wp.Workers())
	}
}

func TestNewWorkerPoolClampsWorkers(t *testing.T) {
	wp := newTestPool(t, 0, 10)
	if wp.Workers() != 1 {
		t.Errorf("Workers = %d, want 1 after clamping", wp.Workers())
	}
}

func TestWorkerPool_EnqueueBeforeStart(t *testing.T) {
	wp := newTestPool(t, 2, 5)
	// Enqueue should work even before Start(), it just buffers.
	if !wp.Enqueue(Job{AudioPath: "a.wav"}) {
		t.Error("Enqueue should return true when queue has space")
	}
}

func TestWorkerPool_EnqueueFull(t *testing.T) {
	wp := newTestPool(t, 1, 2) // never started, nobody draining

	wp.Enqueue(Job{AudioPath: "a.wav"})
	wp.Enqueue(Job{AudioPath: "b.wav"})

	if wp.Enqueue(Job{AudioPath: "c.wav"}) {
		t.Error("Enqueue should return false when queue is full")
	}
}

func TestWorkerPool_EnqueueAfterStop(t *testing.T) {
	wp := newTestPool(t, 1, 10)
	wp.Start()
	wp.Stop()

	if wp.Enqueue(Job{AudioPath: "a.wav"}) {
		t.Error("Enqueue should return false after Stop()")
	}
}

func TestWorkerPool_Stats(t *testing.T) {
	wp := newTestPool(t, 1, 10) // never started, nothing drains

	wp.Enqueue(Job{AudioPath: "a.wav"})
	wp.Enqueue(Job{AudioPath: "b.wav"})

	stats := wp.Stats()
	if stats.Pending != 2 {
		t.Errorf("Pending = %d, want 2", stats.Pending)
	}
	if stats.Completed != 0 {
		t.Errorf("Completed = %d, want 0", stats.Completed)
	}
	if stats.Failed != 0 {
		t.Errorf("Failed = %d, want 0", stats.Failed)
	}
}

func TestWorkerPool_StopDrains(t *testing.T) {
	wp := newTestPool(t, 2, 10)
	wp.Start()

	done := make(chan struct{})
	go func() {
		wp.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return within 5 seconds")
	}
}

func TestWorkerPool_ConcurrentEnqueueAndStop(t *testing.T) {
	// Enqueue racing Stop must never send on the closed jobs channel;
	// run enough rounds to give the race detector a chance.
	for i := 0; i < 50; i++ {
		wp := newTestPool(t, 1, 4)
		wp.Start()

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					wp.Enqueue(Job{AudioPath: "missing.wav"})
				}
			}()
		}
		wp.Stop()
		wg.Wait()

		if wp.Enqueue(Job{AudioPath: "missing.wav"}) {
			t.Fatal("Enqueue returned true after Stop")
		}
	}
}

func TestWorkerPool_ProcessesJobs(t *testing.T) {
	dir := t.TempDir()
	good := writeAudio(t, dir, "good.wav")
	bad := filepath.Join(dir, "missing.wav")

	runner := newTestRunner(t, &fakeProvider{}, nil, t.TempDir())
	wp := NewWorkerPool(runner, 1, 10, zerolog.Nop())
	wp.Start()

	wp.Enqueue(Job{AudioPath: good})
	wp.Enqueue(Job{AudioPath: bad})
	wp.Stop() // drains both jobs before returning

	stats := wp.Stats()
	if stats.Completed != 1 {
		t.Errorf("Completed = %d, want 1", stats.Completed)
	}
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
	if stats.Pending != 0 {
		t.Errorf("Pending = %d, want 0", stats.Pending)
	}
}
