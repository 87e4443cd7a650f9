// Package diarize assigns speaker labels to transcript segments using an
// external diarization backend.
package diarize

import "context"

// Provider is the interface for speaker-diarization backends.
type Provider interface {
	Diarize(ctx context.Context, audioPath string, opts Options) (*Result, error)
	Healthy(ctx context.Context) error
	Name() string
}

// Options bound the expected speaker count. Zero means unconstrained.
type Options struct {
	MinSpeakers int
	MaxSpeakers int
}

// Turn is a speaker-attributed time range from the diarizer.
type Turn struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Result holds the diarizer output for one audio file.
type Result struct {
	Turns       []Turn `json:"turns"`
	NumSpeakers int    `json:"num_speakers"`
}
