// Package format renders a transcript into its textual output formats:
// plain text, JSON, SRT and WebVTT subtitles.
package format

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/openscribe/scribe/internal/transcript"
)

// Sentinel errors for callers that need to distinguish usage errors from
// malformed transcript data.
var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrInvalidSegment    = errors.New("invalid segment")
)

// FormatAll expands to every supported format.
const FormatAll = "all"

type renderFunc func(*transcript.Transcript) string

var renderers = map[string]renderFunc{
	"txt":  renderTXT,
	"json": renderJSON,
	"srt":  renderSRT,
	"vtt":  renderVTT,
}

// Formats returns the supported format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Supported reports whether name is a renderable format or "all".
func Supported(name string) bool {
	if name == FormatAll {
		return true
	}
	_, ok := renderers[strings.ToLower(name)]
	return ok
}

// Expand resolves "all" to the full format list; any other name is returned
// as a single-element slice. The name is not validated here; Render does that.
func Expand(name string) []string {
	if name == FormatAll {
		return Formats()
	}
	return []string{strings.ToLower(name)}
}

// Render serializes the transcript in the named format. It fails if the
// format is unknown or any segment violates the timing invariants; a malformed
// segment aborts the whole render rather than producing a partial file.
func Render(tr *transcript.Transcript, name string) (string, error) {
	fn, ok := renderers[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedFormat, name, strings.Join(Formats(), ", "))
	}
	if err := tr.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSegment, err)
	}
	return fn(tr), nil
}

// Filename returns the output filename for an audio source: the source stem
// with the format's extension.
func Filename(stem, name string) string {
	return stem + "." + strings.ToLower(name)
}
