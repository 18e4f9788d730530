package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampParts names the colon-delimited components of the timestamp field.
var timestampParts = [...]string{"year", "month", "day", "hour", "minute", "second"}

// parseTimestamp parses the "YY:MM:DD:HH:mm:ss.f" prefix of the first field.
// The year is two digits past 2000 and f is a single decisecond digit.
// The result is in the local time zone.
func parseTimestamp(s string) (time.Time, error) {
	parts := strings.Split(s, ":")
	if len(parts) != len(timestampParts) {
		return time.Time{}, fmt.Errorf("%w: %q has %d components, want %d",
			ErrTimestamp, s, len(parts), len(timestampParts))
	}

	secStr, fracStr, ok := strings.Cut(parts[5], ".")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q has no decisecond separator", ErrTimestamp, s)
	}
	parts[5] = secStr

	var v [len(timestampParts)]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("%w: %s %q is not numeric", ErrTimestamp, timestampParts[i], p)
		}
		v[i] = n
	}

	frac, err := strconv.Atoi(fracStr)
	if err != nil || frac < 0 || frac > 9 {
		return time.Time{}, fmt.Errorf("%w: decisecond %q is not a single digit", ErrTimestamp, fracStr)
	}

	year := 2000 + v[0]
	ts := time.Date(year, time.Month(v[1]), v[2], v[3], v[4], v[5], frac*100*int(time.Millisecond), time.Local)

	// time.Date normalizes out-of-range values; a component that moved was invalid.
	if ts.Year() != year || int(ts.Month()) != v[1] || ts.Day() != v[2] ||
		ts.Hour() != v[3] || ts.Minute() != v[4] || ts.Second() != v[5] {
		return time.Time{}, fmt.Errorf("%w: %q is out of range", ErrTimestamp, s)
	}

	return ts, nil
}

// formatTimestamp renders a timestamp back into the log's own encoding.
func formatTimestamp(t time.Time) string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d:%02d:%02d.%d",
		t.Year()-2000, int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second(),
		t.Nanosecond()/int(100*time.Millisecond))
}
