package output

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ccollicutt/combatlog/pkg/analyzer"
)

func TestNewJSONFormatter(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewJSONFormatter() returned nil")
	}
	if f.Name() != "json" {
		t.Errorf("Name() = %q, want %q", f.Name(), "json")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{})
	report := createTestReport(t)

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed struct {
		Summary struct {
			Level       string `json:"level"`
			CombatsKept int    `json:"combats_kept"`
		} `json:"summary"`
		Combats []struct {
			Map      *string `json:"map"`
			Rejected bool    `json:"rejected"`
			Players  []struct {
				OwnerDisplay string            `json:"owner_display"`
				Events       []json.RawMessage `json:"events"`
			} `json:"players"`
		} `json:"combats"`
		Messages []struct {
			Level string `json:"level"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.Summary.Level != "warning" || parsed.Summary.CombatsKept != 2 {
		t.Errorf("summary = %+v", parsed.Summary)
	}
	if len(parsed.Combats) != 2 {
		t.Fatalf("combats = %d, want 2", len(parsed.Combats))
	}
	first := parsed.Combats[0]
	if first.Rejected || len(first.Players) != 1 || first.Players[0].OwnerDisplay != "Alice" {
		t.Errorf("first combat = %+v", first)
	}
	if len(first.Players[0].Events) != 3 {
		t.Errorf("Alice events = %d, want 3", len(first.Players[0].Events))
	}
	if !parsed.Combats[1].Rejected {
		t.Error("second combat should be rejected")
	}
	if len(parsed.Messages) == 0 || parsed.Messages[0].Level == "" {
		t.Errorf("messages = %+v", parsed.Messages)
	}
}

func TestJSONFormatter_Format_Quiet(t *testing.T) {
	f := NewJSONFormatter(FormatOptions{Quiet: true})
	report := createTestReport(t)

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if _, ok := parsed["combats_kept"]; !ok {
		t.Errorf("quiet output = %v, want the summary", parsed)
	}
	if _, ok := parsed["combats"]; ok {
		t.Error("quiet output should not include combats")
	}
}

func TestJSONFormatter_DebugMessages(t *testing.T) {
	report := createTestReport(t)
	report.Messages = append(report.Messages, analyzer.Message{Level: analyzer.LevelDebug, Text: "trace detail"})

	tests := []struct {
		verbose bool
		want    bool
	}{
		{false, false},
		{true, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := NewJSONFormatter(FormatOptions{Verbose: tt.verbose}).Format(context.Background(), report, &buf); err != nil {
			t.Fatalf("Format() error = %v", err)
		}
		if got := strings.Contains(buf.String(), "trace detail"); got != tt.want {
			t.Errorf("verbose=%v: debug message present = %v, want %v", tt.verbose, got, tt.want)
		}
	}
}
