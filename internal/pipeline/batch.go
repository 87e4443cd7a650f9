package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/openscribe/scribe/internal/audio"
)

// FileError records one failed file in a batch.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// BatchResult summarizes a directory run.
type BatchResult struct {
	Found     int
	Succeeded int
	Failed    []FileError
}

// ProcessBatch transcribes every supported audio file under dir,
// sequentially. A failure aborts only that file; remaining files still
// run. Returns an error only when the directory itself is unusable or the
// context is canceled.
func (r *Runner) ProcessBatch(ctx context.Context, dir string) (*BatchResult, error) {
	files, err := audio.FindFiles(dir)
	if err != nil {
		return nil, err
	}

	res := &BatchResult{Found: len(files)}
	if len(files) == 0 {
		r.log.Warn().
			Str("dir", dir).
			Str("supported", strings.Join(audio.SupportedExtensions(), ", ")).
			Msg("no supported audio files found")
		return res, nil
	}

	r.log.Info().Int("files", len(files)).Str("dir", dir).Msg("batch processing started")

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		r.log.Info().Int("n", i+1).Int("total", len(files)).Str("audio", file).Msg("processing")
		if _, _, err := r.ProcessFile(ctx, file); err != nil {
			r.log.Error().Err(err).Str("audio", file).Msg("file failed, continuing batch")
			res.Failed = append(res.Failed, FileError{Path: file, Err: err})
			continue
		}
		res.Succeeded++
	}

	r.log.Info().
		Int("succeeded", res.Succeeded).
		Int("failed", len(res.Failed)).
		Msg("batch processing complete")
	return res, nil
}
