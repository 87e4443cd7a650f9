// Package storage persists rendered transcript artifacts, locally and
// optionally mirrored to an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/openscribe/scribe/internal/config"
)

// Store abstracts artifact storage backends.
type Store interface {
	// Save stores a rendered artifact. key format: {stem}.{ext}
	Save(ctx context.Context, key string, data []byte, contentType string) error

	// LocalPath returns the local filesystem path if the artifact exists
	// on disk. Returns "" for remote-only backends.
	LocalPath(key string) string

	// URL returns a presigned URL for the artifact.
	// Returns "" for local-only backends.
	URL(ctx context.Context, key string) (string, error)

	// Open returns a reader for the artifact.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Type returns "local" or "s3".
	Type() string
}

// New creates the local store rooted at outputDir and, when S3 is
// configured, an async mirror that the caller must Start/Stop. Returns an
// error if S3 is configured but unreachable.
func New(cfg *config.Config, log zerolog.Logger) (Store, *AsyncMirror, error) {
	local := NewLocalStore(cfg.OutputDir)
	if !cfg.S3Enabled() {
		return local, nil, nil
	}

	s3store, err := NewS3Store(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("S3 init failed: %w", err)
	}

	// Startup validation: verify credentials and bucket access.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3store.HeadBucket(ctx); err != nil {
		return nil, nil, fmt.Errorf("S3 startup check failed (bucket=%q endpoint=%q): %w",
			cfg.S3Bucket, cfg.S3Endpoint, err)
	}
	log.Info().Str("bucket", cfg.S3Bucket).Str("endpoint", cfg.S3Endpoint).Msg("S3 connection verified")

	return local, NewAsyncMirror(s3store, 64, log), nil
}
