// Package transcript defines the data contract between the speech-to-text
// producers and the output formatters: timed, speaker-attributed segments
// plus per-file run metadata. Formatters depend only on these types, never
// on a provider's wire representation.
package transcript

import "fmt"

// DefaultSpeaker is the label substituted when diarization produced no
// speaker for a segment (or was skipped entirely).
const DefaultSpeaker = "SPEAKER_00"

// Segment is a timed span of speech. Segments are produced once and treated
// as read-only afterward.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
	Text    string  `json:"text"`
}

// Validate checks the timing invariants: start must be non-negative and the
// segment must have positive duration.
func (s Segment) Validate() error {
	if s.Start < 0 {
		return fmt.Errorf("segment start %.3f is negative", s.Start)
	}
	if s.End <= s.Start {
		return fmt.Errorf("segment end %.3f precedes start %.3f", s.End, s.Start)
	}
	return nil
}

// SpeakerOrDefault returns the speaker label, or DefaultSpeaker when absent.
func (s Segment) SpeakerOrDefault() string {
	if s.Speaker == "" {
		return DefaultSpeaker
	}
	return s.Speaker
}

// Metadata describes one transcription run.
type Metadata struct {
	AudioFile string  `json:"audio_file"`
	Duration  float64 `json:"duration"`
	Model     string  `json:"model"`
	Language  string  `json:"language"`
	Speakers  int     `json:"speakers_detected"`
}

// Transcript is the full ordered output for one audio file. Segments are
// chronological by start time; overlapping segments (overlapping speech)
// are passed through unchanged.
type Transcript struct {
	Metadata Metadata  `json:"metadata"`
	Segments []Segment `json:"segments"`
}

// Validate checks every segment's timing invariants.
func (t *Transcript) Validate() error {
	for i, seg := range t.Segments {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return nil
}

// Speakers returns the number of distinct speaker labels, counting
// unlabeled segments under DefaultSpeaker.
func (t *Transcript) Speakers() int {
	seen := make(map[string]struct{})
	for _, seg := range t.Segments {
		seen[seg.SpeakerOrDefault()] = struct{}{}
	}
	return len(seen)
}
