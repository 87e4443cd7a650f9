package diarize

import (
	"testing"

	"github.com/openscribe/scribe/internal/transcript"
)

func TestAssign(t *testing.T) {
	turns := []Turn{
		{Speaker: "SPEAKER_00", Start: 0, End: 2},
		{Speaker: "SPEAKER_01", Start: 2, End: 5},
	}

	segments := []transcript.Segment{
		{Start: 0.5, End: 1.5, Text: "fully inside first turn"},
		{Start: 1.5, End: 4.0, Text: "straddles, mostly second"},
		{Start: 10, End: 11, Text: "past every turn"},
	}
	Assign(segments, turns)

	if segments[0].Speaker != "SPEAKER_00" {
		t.Errorf("segment 0 speaker = %q, want SPEAKER_00", segments[0].Speaker)
	}
	// 0.5s overlap with the first turn, 2.0s with the second.
	if segments[1].Speaker != "SPEAKER_01" {
		t.Errorf("segment 1 speaker = %q, want SPEAKER_01", segments[1].Speaker)
	}
	if segments[2].Speaker != transcript.DefaultSpeaker {
		t.Errorf("segment 2 speaker = %q, want default", segments[2].Speaker)
	}
}

func TestAssignNoTurns(t *testing.T) {
	segments := []transcript.Segment{{Start: 0, End: 1, Text: "hello"}}
	Assign(segments, nil)
	if segments[0].Speaker != transcript.DefaultSpeaker {
		t.Errorf("speaker = %q, want default", segments[0].Speaker)
	}
}

func TestAssignDefault(t *testing.T) {
	segments := []transcript.Segment{
		{Start: 0, End: 1, Speaker: "SPEAKER_04"},
		{Start: 1, End: 2},
	}
	AssignDefault(segments)
	for i, seg := range segments {
		if seg.Speaker != transcript.DefaultSpeaker {
			t.Errorf("segment %d speaker = %q, want default", i, seg.Speaker)
		}
	}
}
