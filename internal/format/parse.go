package format

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/openscribe/scribe/internal/transcript"
)

// ParseSRT parses SRT cue blocks back into segments. Sequence numbers are
// checked for presence but their values are ignored; multi-line cue text is
// joined with spaces.
func ParseSRT(data string) ([]transcript.Segment, error) {
	var segments []transcript.Segment
	for _, block := range splitBlocks(data) {
		if len(block) < 2 {
			return nil, fmt.Errorf("srt cue %d: missing timecode line", len(segments)+1)
		}
		seg, err := parseCue(block[1], block[2:])
		if err != nil {
			return nil, fmt.Errorf("srt cue %d: %w", len(segments)+1, err)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// ParseVTT parses WebVTT output back into segments. The WEBVTT header is
// required.
func ParseVTT(data string) ([]transcript.Segment, error) {
	blocks := splitBlocks(data)
	if len(blocks) == 0 || blocks[0][0] != "WEBVTT" {
		return nil, fmt.Errorf("missing WEBVTT header")
	}
	// Header block may carry metadata lines; cues start at the next block,
	// unless the header block itself is only "WEBVTT" followed by cues
	// without a separating blank line (we never emit that).
	var segments []transcript.Segment
	for _, block := range blocks[1:] {
		seg, err := parseCue(block[0], block[1:])
		if err != nil {
			return nil, fmt.Errorf("vtt cue %d: %w", len(segments)+1, err)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// splitBlocks splits cue text into blank-line-separated groups of lines.
func splitBlocks(data string) [][]string {
	var blocks [][]string
	var current []string
	sc := bufio.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// parseCue parses a "start --> end" line plus text lines. A leading
// "SPEAKER: " prefix on the text is split back out into the speaker label.
func parseCue(timeLine string, textLines []string) (transcript.Segment, error) {
	var seg transcript.Segment

	parts := strings.Split(timeLine, " --> ")
	if len(parts) != 2 {
		return seg, fmt.Errorf("malformed timecode line %q", timeLine)
	}
	start, err := ParseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return seg, err
	}
	end, err := ParseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return seg, err
	}
	seg.Start = start
	seg.End = end

	text := strings.Join(textLines, " ")
	if idx := strings.Index(text, ": "); idx > 0 && !strings.ContainsAny(text[:idx], " \t") {
		seg.Speaker = text[:idx]
		text = text[idx+2:]
	}
	seg.Text = text
	return seg, nil
}
