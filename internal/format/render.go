package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openscribe/scribe/internal/transcript"
)

func renderTXT(tr *transcript.Transcript) string {
	var b strings.Builder
	for i, seg := range tr.Segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s --> %s] %s: %s",
			Timestamp(seg.Start), Timestamp(seg.End),
			seg.SpeakerOrDefault(), strings.TrimSpace(seg.Text))
	}
	return b.String()
}

func renderJSON(tr *transcript.Transcript) string {
	// Segments serialize with the default speaker filled in so every
	// format reports the same labels.
	type jsonSegment struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Speaker string  `json:"speaker"`
		Text    string  `json:"text"`
	}
	doc := struct {
		Metadata transcript.Metadata `json:"metadata"`
		Segments []jsonSegment       `json:"segments"`
	}{
		Metadata: tr.Metadata,
		Segments: make([]jsonSegment, len(tr.Segments)),
	}
	for i, seg := range tr.Segments {
		doc.Segments[i] = jsonSegment{
			Start:   seg.Start,
			End:     seg.End,
			Speaker: seg.SpeakerOrDefault(),
			Text:    strings.TrimSpace(seg.Text),
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	// Encoding a struct of plain values cannot fail.
	_ = enc.Encode(doc)
	return strings.TrimRight(buf.String(), "\n")
}

func renderSRT(tr *transcript.Transcript) string {
	var lines []string
	for i, seg := range tr.Segments {
		lines = append(lines,
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%s --> %s", srtTimestamp(seg.Start), srtTimestamp(seg.End)),
			fmt.Sprintf("%s: %s", seg.SpeakerOrDefault(), strings.TrimSpace(seg.Text)),
			"",
		)
	}
	return strings.Join(lines, "\n")
}

func renderVTT(tr *transcript.Transcript) string {
	lines := []string{"WEBVTT", ""}
	for _, seg := range tr.Segments {
		lines = append(lines,
			fmt.Sprintf("%s --> %s", Timestamp(seg.Start), Timestamp(seg.End)),
			fmt.Sprintf("%s: %s", seg.SpeakerOrDefault(), strings.TrimSpace(seg.Text)),
			"",
		)
	}
	return strings.Join(lines, "\n")
}
