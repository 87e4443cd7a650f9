package audio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
)

// Duration returns the audio duration in seconds for WAV files, or 0 for
// formats we cannot inspect locally. Compressed formats get their duration
// from the transcription backend instead.
func Duration(path string) float64 {
	if strings.ToLower(filepath.Ext(path)) != ".wav" {
		return 0
	}
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	d, err := dec.Duration()
	if err != nil {
		return 0
	}
	return d.Seconds()
}
