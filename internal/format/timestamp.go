package format

import (
	"fmt"
	"strconv"
	"strings"
)

// Timestamp formats seconds as HH:MM:SS.mmm, rounding to the nearest
// millisecond. Used verbatim for txt and VTT output; SRT swaps the
// millisecond separator for a comma.
func Timestamp(seconds float64) string {
	ms := int64(seconds*1000 + 0.5)
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func srtTimestamp(seconds float64) string {
	return strings.Replace(Timestamp(seconds), ".", ",", 1)
}

// ParseTimestamp parses HH:MM:SS.mmm (or the SRT comma variant) back to
// seconds with millisecond precision.
func ParseTimestamp(ts string) (float64, error) {
	ts = strings.Replace(ts, ",", ".", 1)
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed timestamp %q", ts)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed timestamp %q: %w", ts, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed timestamp %q: %w", ts, err)
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("malformed timestamp %q: %w", ts, err)
	}
	return float64(h*3600+m*60) + sec, nil
}
