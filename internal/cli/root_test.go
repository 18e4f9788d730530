package cli

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input  string
		want   zerolog.Level
		wantOK bool
	}{
		{"", zerolog.WarnLevel, true},
		{"debug", zerolog.DebugLevel, true},
		{"info", zerolog.InfoLevel, true},
		{"warn", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"off", zerolog.Disabled, true},
		{"disabled", zerolog.Disabled, true},
		{"loud", zerolog.WarnLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseLevel(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)

	setupLogging("")
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("GlobalLevel() = %v, want debug from %s", zerolog.GlobalLevel(), EnvLogLevel)
	}

	setupLogging("error")
	if zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Errorf("GlobalLevel() = %v, want error from flag", zerolog.GlobalLevel())
	}
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "combatlog" {
		t.Errorf("Use = %s, want combatlog", cmd.Use)
	}
	if cmd.PersistentFlags().Lookup("log-level") == nil {
		t.Error("Missing log-level flag")
	}

	want := []string{"analyze", "import", "inspect", "diagnose", "validate", "version"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Missing subcommand: %s", name)
		}
	}
}
