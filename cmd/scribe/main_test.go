package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openscribe/scribe/internal/config"
	"github.com/openscribe/scribe/internal/pipeline"
	"github.com/openscribe/scribe/internal/storage"
	"github.com/openscribe/scribe/internal/transcribe"
	"github.com/openscribe/scribe/internal/transcript"
)

// cannedProvider fails for listed base names and returns one segment
// otherwise.
type cannedProvider struct {
	failOn map[string]bool
}

func (p *cannedProvider) Transcribe(ctx context.Context, audioPath string, opts transcribe.Options) (*transcribe.Result, error) {
	if p.failOn[filepath.Base(audioPath)] {
		return nil, errors.New("decode error")
	}
	return &transcribe.Result{
		Language: "en",
		Duration: 1.6,
		Segments: []transcript.Segment{{Start: 0.1, End: 1.5, Text: "hello"}},
	}, nil
}
func (p *cannedProvider) Healthy(ctx context.Context) error { return nil }
func (p *cannedProvider) Name() string                      { return "canned" }
func (p *cannedProvider) Model() string                     { return "base" }

func newRunnerForTest(t *testing.T, provider transcribe.Provider) *pipeline.Runner {
	t.Helper()
	return pipeline.NewRunner(pipeline.Options{
		Provider: provider,
		Store:    storage.NewLocalStore(t.TempDir()),
		Formats:  []string{"txt"},
		Log:      zerolog.Nop(),
	})
}

func writeWAV(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runSingle and runBatch return exit codes instead of exiting so cleanup
// (the S3 mirror drain) still runs in main after a failed run.
func TestRunSingle(t *testing.T) {
	dir := t.TempDir()
	good := writeWAV(t, dir, "ok.wav")
	bad := writeWAV(t, dir, "bad.wav")

	runner := newRunnerForTest(t, &cannedProvider{failOn: map[string]bool{"bad.wav": true}})

	if code := runSingle(context.Background(), runner, good, zerolog.Nop()); code != 0 {
		t.Errorf("runSingle(ok.wav) = %d, want 0", code)
	}
	if code := runSingle(context.Background(), runner, bad, zerolog.Nop()); code != 1 {
		t.Errorf("runSingle(bad.wav) = %d, want 1", code)
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, dir, "a.wav")
	writeWAV(t, dir, "b.wav")

	t.Run("all_succeed", func(t *testing.T) {
		runner := newRunnerForTest(t, &cannedProvider{})
		if code := runBatch(context.Background(), runner, dir, zerolog.Nop()); code != 0 {
			t.Errorf("runBatch = %d, want 0", code)
		}
	})

	t.Run("partial_failure_returns_not_exits", func(t *testing.T) {
		runner := newRunnerForTest(t, &cannedProvider{failOn: map[string]bool{"b.wav": true}})
		if code := runBatch(context.Background(), runner, dir, zerolog.Nop()); code != 1 {
			t.Errorf("runBatch with one failed file = %d, want 1", code)
		}
	})

	t.Run("missing_dir", func(t *testing.T) {
		runner := newRunnerForTest(t, &cannedProvider{})
		if code := runBatch(context.Background(), runner, filepath.Join(dir, "missing"), zerolog.Nop()); code != 1 {
			t.Errorf("runBatch on missing dir = %d, want 1", code)
		}
	})
}

func TestValidateArgs(t *testing.T) {
	dir := t.TempDir()
	audio := writeWAV(t, dir, "a.wav")

	cases := []struct {
		name    string
		audio   string
		batch   string
		mutate  func(cfg *config.Config)
		wantErr bool
	}{
		{"audio_ok", audio, "", nil, false},
		{"batch_ok", "", dir, nil, false},
		{"neither", "", "", nil, true},
		{"both", audio, dir, nil, true},
		{"missing_audio", filepath.Join(dir, "nope.wav"), "", nil, true},
		{"missing_batch", "", filepath.Join(dir, "nope"), nil, true},
		{"bad_model", audio, "", func(cfg *config.Config) { cfg.WhisperModel = "huge" }, true},
		{"bad_format", audio, "", func(cfg *config.Config) { cfg.OutputFormat = "docx" }, true},
		{"bad_device", audio, "", func(cfg *config.Config) { cfg.Device = "tpu" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{WhisperModel: "base", OutputFormat: "all", Device: "auto"}
			if tc.mutate != nil {
				tc.mutate(cfg)
			}
			err := validateArgs(tc.audio, tc.batch, cfg)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateArgs = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
