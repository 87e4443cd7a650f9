// Package watch monitors a drop directory for new audio files and feeds
// them to the transcription worker pool.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/openscribe/scribe/internal/audio"
	"github.com/openscribe/scribe/internal/pipeline"
)

// debounceDelay coalesces rapid Create+Write events and lets slow copies
// finish before the file is read.
const debounceDelay = 2 * time.Second

// Status reports the watcher state for the health endpoint.
type Status struct {
	Status        string `json:"status"`
	WatchDir      string `json:"watch_dir"`
	FilesEnqueued int64  `json:"files_enqueued"`
	FilesDropped  int64  `json:"files_dropped"`
}

// Watcher monitors a directory tree for new audio files.
type Watcher struct {
	pool     *pipeline.WorkerPool
	watchDir string
	backfill bool
	log      zerolog.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer

	enqueued atomic.Int64
	dropped  atomic.Int64
	status   atomic.Value // string: "starting", "backfilling", "watching", "stopped"
}

// New creates a watcher over watchDir. When backfill is true, audio files
// already present at startup are enqueued too.
func New(pool *pipeline.WorkerPool, watchDir string, backfill bool, log zerolog.Logger) *Watcher {
	w := &Watcher{
		pool:           pool,
		watchDir:       watchDir,
		backfill:       backfill,
		log:            log.With().Str("component", "watcher").Logger(),
		done:           make(chan struct{}),
		debounceTimers: make(map[string]*time.Timer),
	}
	w.status.Store("starting")
	return w
}

// Start initializes the fsnotify watcher, adds all existing directories,
// and begins watching for new files.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fsw

	dirCount := 0
	err = filepath.WalkDir(w.watchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warn().Err(err).Str("path", path).Msg("error walking directory")
			return nil
		}
		if d.IsDir() {
			if addErr := fsw.Add(path); addErr != nil {
				w.log.Warn().Err(addErr).Str("path", path).Msg("failed to watch directory")
			} else {
				dirCount++
			}
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return err
	}

	w.log.Info().
		Int("directories", dirCount).
		Str("watch_dir", w.watchDir).
		Msg("file watcher initialized")

	go w.watchLoop()

	if w.backfill {
		go w.runBackfill()
	} else {
		w.status.Store("watching")
	}

	return nil
}

// Stop cancels pending debounce timers and closes the fsnotify watcher.
func (w *Watcher) Stop() {
	w.status.Store("stopped")
	close(w.done)

	w.debounceMu.Lock()
	for path, t := range w.debounceTimers {
		t.Stop()
		delete(w.debounceTimers, path)
	}
	w.debounceMu.Unlock()

	if w.watcher != nil {
		w.watcher.Close()
	}
	w.log.Info().
		Int64("files_enqueued", w.enqueued.Load()).
		Int64("files_dropped", w.dropped.Load()).
		Msg("file watcher stopped")
}

// Status returns the current watcher state.
func (w *Watcher) Status() Status {
	s, _ := w.status.Load().(string)
	return Status{
		Status:        s,
		WatchDir:      w.watchDir,
		FilesEnqueued: w.enqueued.Load(),
		FilesDropped:  w.dropped.Load(),
	}
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			// New directory: add it to the watch set so files dropped in
			// fresh subdirectories are caught too.
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.watcher.Add(event.Name); err != nil {
					w.log.Warn().Err(err).Str("path", event.Name).Msg("failed to watch new directory")
				}
				continue
			}

			if !audio.Supported(event.Name) {
				continue
			}

			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("fsnotify error")
		}
	}
}

// schedule debounces enqueueing so the file is fully written before the
// pipeline opens it.
func (w *Watcher) schedule(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if t, ok := w.debounceTimers[path]; ok {
		t.Reset(debounceDelay)
		return
	}

	w.debounceTimers[path] = time.AfterFunc(debounceDelay, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		// A timer that fired just as Stop ran must not feed a pool that
		// is shutting down.
		select {
		case <-w.done:
			return
		default:
		}
		w.enqueue(path)
	})
}

func (w *Watcher) enqueue(path string) {
	if w.pool.Enqueue(pipeline.Job{AudioPath: path}) {
		w.enqueued.Add(1)
		w.log.Debug().Str("audio", path).Msg("enqueued watched file")
		return
	}
	w.dropped.Add(1)
	w.log.Warn().Str("audio", path).Msg("queue full, dropping watched file")
}

// runBackfill enqueues audio files that were already in the drop directory
// at startup, oldest paths first.
func (w *Watcher) runBackfill() {
	w.status.Store("backfilling")
	start := time.Now()

	files, err := audio.FindFiles(w.watchDir)
	if err != nil {
		w.log.Warn().Err(err).Msg("backfill scan failed")
		w.status.Store("watching")
		return
	}

	count := 0
	for _, f := range files {
		select {
		case <-w.done:
			return
		default:
		}
		w.enqueue(f)
		count++
	}

	w.log.Info().Int("files", count).Dur("elapsed", time.Since(start)).Msg("backfill complete")
	w.status.Store("watching")
}
