package diarize

import "github.com/openscribe/scribe/internal/transcript"

// Assign labels each segment with the speaker whose turns overlap it the
// most. Segments with no overlapping turn keep the default label. The
// segment slice is modified in place.
func Assign(segments []transcript.Segment, turns []Turn) {
	for i := range segments {
		segments[i].Speaker = bestSpeaker(segments[i].Start, segments[i].End, turns)
	}
}

// AssignDefault labels every segment with the default speaker. Used when
// diarization is disabled or failed; transcription output is still useful
// without speaker identities.
func AssignDefault(segments []transcript.Segment) {
	for i := range segments {
		segments[i].Speaker = transcript.DefaultSpeaker
	}
}

func bestSpeaker(start, end float64, turns []Turn) string {
	best := transcript.DefaultSpeaker
	var maxOverlap float64

	for _, turn := range turns {
		overlapStart := start
		if turn.Start > overlapStart {
			overlapStart = turn.Start
		}
		overlapEnd := end
		if turn.End < overlapEnd {
			overlapEnd = turn.End
		}
		if overlap := overlapEnd - overlapStart; overlap > maxOverlap {
			maxOverlap = overlap
			best = turn.Speaker
		}
	}
	return best
}
