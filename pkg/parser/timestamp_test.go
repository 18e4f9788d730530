package parser

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "valid timestamp",
			input: "24:01:15:20:30:45.5",
			want:  time.Date(2024, 1, 15, 20, 30, 45, 500*int(time.Millisecond), time.Local),
		},
		{
			name:  "zero decisecond",
			input: "23:12:31:23:59:59.0",
			want:  time.Date(2023, 12, 31, 23, 59, 59, 0, time.Local),
		},
		{
			name:  "leap day",
			input: "24:02:29:00:00:00.9",
			want:  time.Date(2024, 2, 29, 0, 0, 0, 900*int(time.Millisecond), time.Local),
		},
		{name: "too few components", input: "24:01:15:20:30", wantErr: true},
		{name: "too many components", input: "24:01:15:20:30:45:12.5", wantErr: true},
		{name: "no decisecond", input: "24:01:15:20:30:45", wantErr: true},
		{name: "non-numeric month", input: "24:Jan:15:20:30:45.5", wantErr: true},
		{name: "month out of range", input: "24:13:15:20:30:45.5", wantErr: true},
		{name: "day out of range", input: "23:02:29:20:30:45.5", wantErr: true},
		{name: "hour out of range", input: "24:01:15:24:30:45.5", wantErr: true},
		{name: "two digit decisecond", input: "24:01:15:20:30:45.55", wantErr: true},
		{name: "negative component", input: "24:01:-1:20:30:45.5", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTimestamp(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrTimestamp) {
					t.Errorf("parseTimestamp(%q) error = %v, want ErrTimestamp", tt.input, err)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatTimestamp_RoundTrip(t *testing.T) {
	inputs := []string{
		"24:01:15:20:30:45.5",
		"00:01:01:00:00:00.0",
		"99:12:31:23:59:59.9",
	}

	for _, in := range inputs {
		ts, err := parseTimestamp(in)
		if err != nil {
			t.Fatalf("parseTimestamp(%q) error = %v", in, err)
		}
		if got := formatTimestamp(ts); got != in {
			t.Errorf("formatTimestamp(parseTimestamp(%q)) = %q", in, got)
		}
	}
}
