// scribe transcribes audio files with speaker diarization and writes the
// results as txt, json, srt, and vtt files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/openscribe/scribe/internal/config"
	"github.com/openscribe/scribe/internal/diarize"
	"github.com/openscribe/scribe/internal/format"
	"github.com/openscribe/scribe/internal/pipeline"
	"github.com/openscribe/scribe/internal/storage"
	"github.com/openscribe/scribe/internal/transcribe"
)

var version = "dev"

var supportedDevices = []string{"cpu", "cuda", "auto"}

func main() {
	var (
		audioPath    string
		batchDir     string
		model        string
		language     string
		device       string
		outputFormat string
		outputDir    string
		minSpeakers  int
		maxSpeakers  int
		verbose      bool
		envFile      string
		preprocess   bool
		showVersion  bool
	)

	flag.StringVar(&audioPath, "audio", "", "path to a single audio file")
	flag.StringVar(&batchDir, "batch", "", "path to a directory of audio files")
	flag.StringVar(&model, "model", "", "whisper model size (tiny|base|small|medium|large-v2|large-v3)")
	flag.StringVar(&language, "language", "", `language code (e.g. "en"), auto-detect if empty`)
	flag.StringVar(&device, "device", "", "device to use (cpu|cuda|auto)")
	flag.StringVar(&outputFormat, "output_format", "", "output format (txt|json|srt|vtt|all)")
	flag.StringVar(&outputDir, "output_dir", "", "output directory")
	flag.IntVar(&minSpeakers, "min_speakers", 0, "minimum number of speakers for diarization")
	flag.IntVar(&maxSpeakers, "max_speakers", 0, "maximum number of speakers for diarization")
	flag.BoolVar(&verbose, "verbose", false, "enable verbose logging")
	flag.StringVar(&envFile, "env-file", "", "path to .env file (default .env)")
	flag.BoolVar(&preprocess, "preprocess", false, "resample/normalize audio with sox before transcription")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println("scribe", version)
		return
	}

	log := newLogger(verbose)

	cfg, err := config.Load(config.Overrides{
		EnvFile:      envFile,
		Model:        model,
		Language:     language,
		Device:       device,
		OutputFormat: outputFormat,
		OutputDir:    outputDir,
		MinSpeakers:  minSpeakers,
		MaxSpeakers:  maxSpeakers,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if preprocess {
		cfg.PreprocessAudio = true
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	if err := validateArgs(audioPath, batchDir, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		fmt.Fprintln(os.Stderr, "run with --help for usage")
		os.Exit(2)
	}

	if cfg.Token() == "" {
		log.Warn().Msg("HF_TOKEN (or TOKEN) is not set; speaker diarization requires a Hugging Face token")
		log.Warn().Msg("get a token from https://huggingface.co/settings/tokens; continuing with transcription only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := transcribe.NewWhisperClient(cfg.WhisperURL, cfg.WhisperModel, cfg.WhisperTimeout)

	var diarizer diarize.Provider
	if cfg.Token() != "" {
		diarizer = diarize.NewPyannoteClient(cfg.DiarizeURL, cfg.Token(), cfg.DiarizeTimeout)
	}

	store, mirror, err := storage.New(cfg, log.With().Str("component", "storage").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	if mirror != nil {
		mirror.Start(2)
	}

	runner := pipeline.NewRunner(pipeline.Options{
		Provider:    provider,
		Diarizer:    diarizer,
		Store:       store,
		Mirror:      mirror,
		Formats:     format.Expand(cfg.OutputFormat),
		Language:    cfg.Language,
		Device:      cfg.Device,
		Temperature: cfg.Temperature,
		MinSpeakers: cfg.MinSpeakers,
		MaxSpeakers: cfg.MaxSpeakers,
		Preprocess:  cfg.PreprocessAudio,
		Log:         log,
	})

	log.Info().
		Str("model", cfg.WhisperModel).
		Str("device", cfg.Device).
		Str("language", orAuto(cfg.Language)).
		Str("format", cfg.OutputFormat).
		Str("output_dir", cfg.OutputDir).
		Msg("scribe starting")

	code := 0
	if batchDir != "" {
		code = runBatch(ctx, runner, batchDir, log)
	} else {
		code = runSingle(ctx, runner, audioPath, log)
	}

	// Drain queued S3 uploads before exiting; successful files keep their
	// mirrors even when other files in the run failed.
	if mirror != nil {
		mirror.Stop()
	}
	os.Exit(code)
}

func runSingle(ctx context.Context, runner *pipeline.Runner, audioPath string, log zerolog.Logger) int {
	tr, keys, err := runner.ProcessFile(ctx, audioPath)
	if err != nil {
		log.Error().Err(err).Str("audio", audioPath).Msg("transcription failed")
		return 1
	}
	for _, key := range keys {
		log.Info().Str("artifact", key).Msg("saved output")
	}
	log.Info().
		Float64("duration", tr.Metadata.Duration).
		Str("language", tr.Metadata.Language).
		Int("speakers", tr.Metadata.Speakers).
		Int("segments", len(tr.Segments)).
		Msg("done")
	return 0
}

func runBatch(ctx context.Context, runner *pipeline.Runner, batchDir string, log zerolog.Logger) int {
	res, err := runner.ProcessBatch(ctx, batchDir)
	if err != nil {
		log.Error().Err(err).Str("dir", batchDir).Msg("batch failed")
		return 1
	}
	for _, fe := range res.Failed {
		log.Error().Err(fe.Err).Str("audio", fe.Path).Msg("file failed")
	}
	if len(res.Failed) > 0 {
		return 1
	}
	return 0
}

func validateArgs(audioPath, batchDir string, cfg *config.Config) error {
	if audioPath == "" && batchDir == "" {
		return fmt.Errorf("either --audio or --batch must be specified")
	}
	if audioPath != "" && batchDir != "" {
		return fmt.Errorf("cannot specify both --audio and --batch")
	}
	if audioPath != "" {
		if _, err := os.Stat(audioPath); err != nil {
			return fmt.Errorf("audio file not found: %s", audioPath)
		}
	}
	if batchDir != "" {
		info, err := os.Stat(batchDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("batch directory not found: %s", batchDir)
		}
	}
	if !transcribe.SupportedModel(cfg.WhisperModel) {
		return fmt.Errorf("invalid model %q, choose from: %s",
			cfg.WhisperModel, strings.Join(transcribe.SupportedModels, ", "))
	}
	if !format.Supported(cfg.OutputFormat) {
		return fmt.Errorf("invalid output format %q, choose from: %s, all",
			cfg.OutputFormat, strings.Join(format.Formats(), ", "))
	}
	if !deviceSupported(cfg.Device) {
		return fmt.Errorf("invalid device %q, choose from: %s",
			cfg.Device, strings.Join(supportedDevices, ", "))
	}
	return nil
}

func deviceSupported(device string) bool {
	if device == "" {
		return true
	}
	for _, d := range supportedDevices {
		if d == device {
			return true
		}
	}
	return false
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(out).With().Timestamp().Logger().Level(level)
}

func orAuto(s string) string {
	if s == "" {
		return "auto"
	}
	return s
}
