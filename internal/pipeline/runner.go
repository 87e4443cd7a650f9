// Package pipeline orchestrates one audio file's journey: validate,
// preprocess, transcribe, diarize, render, persist.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openscribe/scribe/internal/audio"
	"github.com/openscribe/scribe/internal/diarize"
	"github.com/openscribe/scribe/internal/events"
	"github.com/openscribe/scribe/internal/format"
	"github.com/openscribe/scribe/internal/metrics"
	"github.com/openscribe/scribe/internal/storage"
	"github.com/openscribe/scribe/internal/transcribe"
	"github.com/openscribe/scribe/internal/transcript"
)

// Options configure a Runner.
type Options struct {
	Provider    transcribe.Provider
	Diarizer    diarize.Provider // nil disables diarization
	Store       storage.Store
	Mirror      *storage.AsyncMirror // nil disables S3 mirroring
	Events      *events.Publisher    // nil disables MQTT events
	Formats     []string             // already expanded, e.g. [txt json srt vtt]
	Language    string
	Device      string
	Temperature float64
	MinSpeakers int
	MaxSpeakers int
	Preprocess  bool
	Log         zerolog.Logger
}

// Runner processes audio files one at a time. A single mutex serializes
// model invocations across callers, matching a single-GPU deployment.
type Runner struct {
	opts Options
	log  zerolog.Logger

	modelMu sync.Mutex
}

// contentTypes maps output formats to MIME types for the artifact store.
var contentTypes = map[string]string{
	"txt":  "text/plain; charset=utf-8",
	"json": "application/json",
	"srt":  "application/x-subrip",
	"vtt":  "text/vtt",
}

// NewRunner creates a pipeline runner.
func NewRunner(opts Options) *Runner {
	return &Runner{
		opts: opts,
		log:  opts.Log,
	}
}

// Warmup pings the transcription and diarization backends so they pull
// their pretrained models before the first real request. Diarizer failures
// are non-fatal: processing falls back to the default speaker label.
func (r *Runner) Warmup(ctx context.Context) error {
	if err := r.opts.Provider.Healthy(ctx); err != nil {
		return fmt.Errorf("whisper backend not ready: %w", err)
	}
	r.log.Info().Str("model", r.opts.Provider.Model()).Msg("whisper backend ready")

	if r.opts.Diarizer != nil {
		if err := r.opts.Diarizer.Healthy(ctx); err != nil {
			r.log.Warn().Err(err).Msg("diarization backend not ready, speakers will default")
		} else {
			r.log.Info().Msg("diarization backend ready")
		}
	}
	return nil
}

// ProcessFile transcribes one audio file and writes every requested output
// format. Returns the finished transcript and the artifact keys written.
func (r *Runner) ProcessFile(ctx context.Context, audioPath string) (*transcript.Transcript, []string, error) {
	start := time.Now()

	if err := audio.Validate(audioPath); err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("rejected").Inc()
		return nil, nil, err
	}

	tr, err := r.produce(ctx, audioPath)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("failed").Inc()
		return nil, nil, err
	}

	keys, err := r.render(ctx, audioPath, tr)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("failed").Inc()
		return nil, nil, err
	}

	elapsed := time.Since(start)
	metrics.TranscriptionsTotal.WithLabelValues("ok").Inc()
	metrics.TranscribeDuration.Observe(elapsed.Seconds())

	if r.opts.Events != nil {
		r.opts.Events.Publish(audio.Stem(audioPath), events.CompletionEvent{
			AudioFile: tr.Metadata.AudioFile,
			Duration:  tr.Metadata.Duration,
			Language:  tr.Metadata.Language,
			Speakers:  tr.Metadata.Speakers,
			Segments:  len(tr.Segments),
			Model:     tr.Metadata.Model,
			Formats:   r.opts.Formats,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}

	r.log.Info().
		Str("audio", audioPath).
		Float64("duration", tr.Metadata.Duration).
		Str("language", tr.Metadata.Language).
		Int("speakers", tr.Metadata.Speakers).
		Int("segments", len(tr.Segments)).
		Dur("elapsed", elapsed).
		Msg("transcription complete")

	return tr, keys, nil
}

// produce runs transcription and speaker attribution for one file.
func (r *Runner) produce(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	transcribePath := audioPath
	if r.opts.Preprocess {
		processed, cleanup, err := transcribe.Preprocess(ctx, audioPath)
		if err != nil {
			r.log.Warn().Err(err).Msg("preprocessing failed, using original audio")
		} else {
			transcribePath = processed
			defer cleanup()
		}
	}

	// One model invocation at a time.
	r.modelMu.Lock()
	result, err := r.opts.Provider.Transcribe(ctx, transcribePath, transcribe.Options{
		Language:    r.opts.Language,
		Device:      r.opts.Device,
		Temperature: r.opts.Temperature,
	})
	r.modelMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w (try a smaller model or --device cpu)", err)
	}

	r.assignSpeakers(ctx, transcribePath, result.Segments)

	duration := result.Duration
	if duration == 0 {
		duration = audio.Duration(audioPath)
	}
	language := r.opts.Language
	if language == "" {
		language = result.Language
	}

	tr := &transcript.Transcript{Segments: result.Segments}
	tr.Metadata = transcript.Metadata{
		AudioFile: filepath.Base(audioPath),
		Duration:  round2(duration),
		Model:     r.opts.Provider.Model(),
		Language:  language,
		Speakers:  tr.Speakers(),
	}
	return tr, nil
}

// assignSpeakers runs diarization and attributes segments by maximum
// overlap. Any failure downgrades to the default speaker label rather than
// failing the file.
func (r *Runner) assignSpeakers(ctx context.Context, audioPath string, segments []transcript.Segment) {
	if r.opts.Diarizer == nil {
		diarize.AssignDefault(segments)
		return
	}

	r.modelMu.Lock()
	result, err := r.opts.Diarizer.Diarize(ctx, audioPath, diarize.Options{
		MinSpeakers: r.opts.MinSpeakers,
		MaxSpeakers: r.opts.MaxSpeakers,
	})
	r.modelMu.Unlock()
	if err != nil {
		r.log.Warn().Err(err).Msg("speaker diarization failed, using default speaker")
		diarize.AssignDefault(segments)
		return
	}

	diarize.Assign(segments, result.Turns)
}

// render writes one artifact per requested format and mirrors it when
// configured.
func (r *Runner) render(ctx context.Context, audioPath string, tr *transcript.Transcript) ([]string, error) {
	stem := audio.Stem(audioPath)
	keys := make([]string, 0, len(r.opts.Formats))

	for _, name := range r.opts.Formats {
		content, err := format.Render(tr, name)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}

		key := format.Filename(stem, name)
		data := []byte(content)
		if err := r.opts.Store.Save(ctx, key, data, contentTypes[name]); err != nil {
			return nil, fmt.Errorf("save %s: %w", key, err)
		}
		if r.opts.Mirror != nil {
			r.opts.Mirror.Enqueue(key, data, contentTypes[name])
		}
		metrics.ArtifactsWrittenTotal.WithLabelValues(name).Inc()
		keys = append(keys, key)

		r.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("artifact written")
	}
	return keys, nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
