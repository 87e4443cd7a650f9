package transcribe

import (
	"context"

	"github.com/openscribe/scribe/internal/transcript"
)

// Provider is the interface for speech-to-text backends. Backends return
// timed segments; speaker attribution happens downstream.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error)
	Healthy(ctx context.Context) error
	Name() string  // "whisper"
	Model() string // model identifier for metadata/logs
}

// Options are per-request transcription parameters. Zero-value fields are
// omitted from the request, so this works with any OpenAI-compatible server.
type Options struct {
	Language    string  // ISO code, "" = auto-detect
	Device      string  // cpu|cuda, "" = backend default
	Temperature float64 // sampling temperature
}

// Result is the common transcription result from any provider.
type Result struct {
	Text     string
	Language string               // detected (or echoed) language code
	Duration float64              // audio duration in seconds
	Segments []transcript.Segment // speaker fields unset
}
