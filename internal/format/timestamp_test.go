package format

import (
	"math"
	"testing"
)

func TestTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00.000"},
		{0.622, "00:00:00.622"},
		{1.563, "00:00:01.563"},
		{59.9996, "00:01:00.000"},
		{61.5, "00:01:01.500"},
		{3661.001, "01:01:01.001"},
		{-1, "00:00:00.000"},
	}
	for _, tc := range cases {
		if got := Timestamp(tc.seconds); got != tc.want {
			t.Errorf("Timestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestSRTTimestamp(t *testing.T) {
	if got := srtTimestamp(0.622); got != "00:00:00,622" {
		t.Errorf("srtTimestamp(0.622) = %q, want 00:00:00,622", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, ts := range []string{"00:00:00.622", "00:00:00,622"} {
		got, err := ParseTimestamp(ts)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", ts, err)
		}
		if math.Abs(got-0.622) > 1e-9 {
			t.Errorf("ParseTimestamp(%q) = %v, want 0.622", ts, got)
		}
	}

	for _, ts := range []string{"", "1:2", "xx:00:00.000", "00:yy:00.000", "00:00:zz"} {
		if _, err := ParseTimestamp(ts); err == nil {
			t.Errorf("ParseTimestamp(%q) succeeded, want error", ts)
		}
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, seconds := range []float64{0, 0.001, 0.622, 1.563, 2.524, 3.406, 59.999, 3600.5} {
		got, err := ParseTimestamp(Timestamp(seconds))
		if err != nil {
			t.Fatalf("round trip of %v: %v", seconds, err)
		}
		if math.Abs(got-seconds) > 0.0005 {
			t.Errorf("round trip of %v = %v, drift exceeds half a millisecond", seconds, got)
		}
	}
}
