// scribed is the long-running transcription daemon: it serves an HTTP
// transcription API, watches a drop directory for new audio, and publishes
// completion events over MQTT.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/openscribe/scribe/internal/config"
	"github.com/openscribe/scribe/internal/diarize"
	"github.com/openscribe/scribe/internal/events"
	"github.com/openscribe/scribe/internal/format"
	"github.com/openscribe/scribe/internal/pipeline"
	"github.com/openscribe/scribe/internal/server"
	"github.com/openscribe/scribe/internal/storage"
	"github.com/openscribe/scribe/internal/transcribe"
	"github.com/openscribe/scribe/internal/watch"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var (
		envFile  string
		httpAddr string
		watchDir string
		logLevel string
		backfill bool
	)
	flag.StringVar(&envFile, "env-file", "", "path to .env file (default .env)")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	flag.StringVar(&watchDir, "watch-dir", "", "audio drop directory to watch (overrides WATCH_DIR)")
	flag.StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	flag.BoolVar(&backfill, "backfill", false, "enqueue audio files already present in the watch directory")
	flag.Parse()

	cfg, err := config.Load(config.Overrides{
		EnvFile:  envFile,
		HTTPAddr: httpAddr,
		WatchDir: watchDir,
		LogLevel: logLevel,
	})
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("scribed starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backends
	provider := transcribe.NewWhisperClient(cfg.WhisperURL, cfg.WhisperModel, cfg.WhisperTimeout)

	var diarizer diarize.Provider
	if cfg.Token() != "" {
		diarizer = diarize.NewPyannoteClient(cfg.DiarizeURL, cfg.Token(), cfg.DiarizeTimeout)
	} else {
		log.Warn().Msg("HF_TOKEN not set, diarization disabled; segments get the default speaker")
	}

	// Storage
	store, mirror, err := storage.New(cfg, log.With().Str("component", "storage").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	if mirror != nil {
		mirror.Start(2)
		defer mirror.Stop()
	}

	// MQTT completion events
	var publisher *events.Publisher
	if cfg.MQTTEnabled() {
		publisher, err = events.Connect(events.Options{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Topic:     cfg.MQTTTopic,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			Log:       log.With().Str("component", "mqtt").Logger(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
		}
		defer publisher.Close()
	}

	// Pipeline
	runner := pipeline.NewRunner(pipeline.Options{
		Provider:    provider,
		Diarizer:    diarizer,
		Store:       store,
		Mirror:      mirror,
		Events:      publisher,
		Formats:     format.Expand(cfg.OutputFormat),
		Language:    cfg.Language,
		Device:      cfg.Device,
		Temperature: cfg.Temperature,
		MinSpeakers: cfg.MinSpeakers,
		MaxSpeakers: cfg.MaxSpeakers,
		Preprocess:  cfg.PreprocessAudio,
		Log:         log.With().Str("component", "pipeline").Logger(),
	})

	// Warm the model caches before accepting work.
	warmupCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	if err := runner.Warmup(warmupCtx); err != nil {
		log.Warn().Err(err).Msg("backend warmup failed, first request will be slow")
	}
	cancel()

	pool := pipeline.NewWorkerPool(runner, cfg.Workers, cfg.QueueSize,
		log.With().Str("component", "worker-pool").Logger())
	pool.Start()

	// Drop-directory watcher
	var watcher *watch.Watcher
	if cfg.WatchDir != "" {
		watcher = watch.New(pool, cfg.WatchDir, backfill, log)
		if err := watcher.Start(); err != nil {
			log.Fatal().Err(err).Str("dir", cfg.WatchDir).Msg("failed to start file watcher")
		}
	}

	// HTTP server
	var eventsStatus server.EventsStatus
	if publisher != nil {
		eventsStatus = publisher
	}
	health := server.NewHealthHandler(provider, diarizer, eventsStatus, pool, watcher, version, startTime)
	srv := server.NewServer(cfg, server.Deps{
		Runner: runner,
		Pool:   pool,
		Health: health,
		Log:    log.With().Str("component", "http").Logger(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	if watcher != nil {
		watcher.Stop()
	}
	pool.Stop()

	log.Info().Msg("scribed stopped")
}
