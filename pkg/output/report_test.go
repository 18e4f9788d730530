package output

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/combatlog/pkg/analyzer"
	"github.com/ccollicutt/combatlog/pkg/config"
	"github.com/ccollicutt/combatlog/pkg/parser"
)

var testLines = []string{
	"24:01:15:20:30:45.5::Alice,P[1@1 Alice@alice],,,Borg Cube,C[2 Borg_Cube],Torpedo,Pn_Torpedo,Kinetic,Critical,1500,1200",
	"24:01:15:20:30:46.0::Borg Cube,C[2 Borg_Cube],,,Alice,P[1@1 Alice@alice],Cutting Beam,Borg_Beam,Plasma,,300,300",
	"24:01:15:20:30:47.2::Alice,P[1@1 Alice@alice],Attack Drone,C[55 Pet_Drone],Borg Cube,C[2 Borg_Cube],Beam,Pn_Beam,Phaser,Kill,320.5,300",
	"24:01:15:20:30:48.0::Alice,P[1@1 Alice@alice],,,Borg Cube,C[2 Borg_Cube],Torpedo,Pn_Torpedo,Kinetic,,900,900",
	"garbage",
	"24:01:15:21:30:00.0::Borg Cube,C[2 Borg_Cube],,,Rock,C[9 Rock],Cutting Beam,Borg_Beam,Plasma,,1,1",
}

// createTestReport runs a small parse: one player combat and one rejected
// combat without players.
func createTestReport(t *testing.T) *Report {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.PostProcessing.MinEvents = 1
	cfg.PostProcessing.DisplayRejected = true

	a, err := analyzer.NewAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	result, err := a.Analyze(context.Background(), parser.NewLineSource("combat.log", testLines, nil))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return NewReport(result, "config.yaml")
}

func TestNewReport(t *testing.T) {
	report := createTestReport(t)

	s := report.Summary
	if s.CombatsSegmented != 2 || s.CombatsKept != 2 || s.CombatsRejected != 1 {
		t.Errorf("Summary = %+v, want 2 segmented, 2 kept, 1 rejected", s)
	}
	if s.LinesSucceeded != 5 || s.LinesFailed != 1 {
		t.Errorf("lines = %d/%d, want 5/1", s.LinesSucceeded, s.LinesFailed)
	}
	if s.Level != analyzer.LevelWarning {
		t.Errorf("Level = %v, want warning", s.Level)
	}
	if report.HasErrors() {
		t.Error("HasErrors() = true, want false")
	}
	if report.Metadata.ConfigFile != "config.yaml" || len(report.Metadata.Sources) != 1 {
		t.Errorf("Metadata = %+v", report.Metadata)
	}
	if report.Metadata.Duration < 0 || report.Metadata.Duration > time.Minute {
		t.Errorf("Duration = %v", report.Metadata.Duration)
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "text", false},
		{"text", "text", false},
		{"json", "json", false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(tt.name, FormatOptions{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && f.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", f.Name(), tt.want)
			}
			if err != nil && !strings.Contains(err.Error(), "xml") {
				t.Errorf("error = %v, want it to name the format", err)
			}
		})
	}
}
