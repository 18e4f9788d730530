package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/combatlog/pkg/archive"
	"github.com/ccollicutt/combatlog/pkg/config"
	"github.com/ccollicutt/combatlog/pkg/parser"
)

var base = time.Date(2024, 1, 15, 20, 0, 0, 0, time.Local)

const (
	alice = "P[1@1 Alice@alice]"
	cube  = "C[2 Borg_Cube]"
)

// logLine renders one combat log line at base+offset.
func logLine(offset time.Duration, owner, target string, magnitude float64) string {
	ts := base.Add(offset)
	return fmt.Sprintf("%02d:%02d:%02d:%02d:%02d:%02d.%d::%s,%s,,,%s,%s,Phaser,Pn_Phaser,Phaser,,%g,%g",
		ts.Year()-2000, int(ts.Month()), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(),
		ts.Nanosecond()/int(100*time.Millisecond),
		displayOf(owner), owner, displayOf(target), target, magnitude, magnitude)
}

func displayOf(id string) string {
	if strings.HasPrefix(id, "P[") {
		return "Alice"
	}
	return "Borg Cube"
}

// fight returns lines of alice and the cube trading hits every second over [from, from+length).
func fight(from, length time.Duration) []string {
	var lines []string
	for off := time.Duration(0); off < length; off += time.Second {
		lines = append(lines, logLine(from+off, alice, cube, 100))
		lines = append(lines, logLine(from+off, cube, alice, 50))
	}
	return lines
}

func writeLog(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.PostProcessing.MinEvents = 3
	return cfg
}

func fixedNow() time.Time { return base.Add(24 * time.Hour) }

func TestNewAnalyzer_NilConfig(t *testing.T) {
	if _, err := NewAnalyzer(nil); err == nil {
		t.Error("NewAnalyzer(nil) expected error")
	}
}

func TestAnalyzer_AnalyzeFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeLog(t, dir, "Combatlog_1.log", append(fight(0, 20*time.Second), "garbage line"))
	second := writeLog(t, dir, "Combatlog_2.log", fight(10*time.Minute, 20*time.Second))

	var closed, failed int
	observer := func(n Notification) {
		switch n.(type) {
		case CombatClosed:
			closed++
		case LineParseFailed:
			failed++
		}
	}

	a, err := NewAnalyzer(testConfig(), WithObserver(observer), WithNow(fixedNow))
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	result, err := a.AnalyzeFiles(context.Background(), []string{first, second})
	if err != nil {
		t.Fatalf("AnalyzeFiles() error = %v", err)
	}

	if len(result.Combats) != 2 {
		t.Fatalf("Combats = %d, want 2", len(result.Combats))
	}
	for _, c := range result.Combats {
		if c.EventCount() != 40 {
			t.Errorf("EventCount() = %d, want 40", c.EventCount())
		}
		if c.PlayerCount() != 1 {
			t.Errorf("PlayerCount() = %d, want 1", c.PlayerCount())
		}
	}
	if !result.Combats[0].Start().Before(result.Combats[1].Start()) {
		t.Error("combats are not in chronological order")
	}

	if closed != 2 || failed != 1 {
		t.Errorf("notifications closed=%d failed=%d, want 2 and 1", closed, failed)
	}
	if result.LinesSucceeded() != 80 || result.LinesFailed() != 1 {
		t.Errorf("lines = %d/%d, want 80/1", result.LinesSucceeded(), result.LinesFailed())
	}
	if result.Level != LevelWarning {
		t.Errorf("Level = %v, want warning", result.Level)
	}
	if len(result.Metadata.Sources) != 2 || result.Metadata.CombatsSegmented != 2 {
		t.Errorf("Metadata = %+v", result.Metadata)
	}
	if result.Metadata.EventsParsed != 80 {
		t.Errorf("EventsParsed = %d, want 80", result.Metadata.EventsParsed)
	}
}

func TestAnalyzer_AnalyzeFiles_OutOfOrderFiles(t *testing.T) {
	dir := t.TempDir()
	// a.log is read first but holds the later fight.
	late := writeLog(t, dir, "a.log", fight(time.Hour, 10*time.Second))
	early := writeLog(t, dir, "b.log", fight(0, 10*time.Second))

	a, _ := NewAnalyzer(testConfig())
	result, err := a.AnalyzeFiles(context.Background(), []string{late, early})
	if err != nil {
		t.Fatalf("AnalyzeFiles() error = %v", err)
	}
	if len(result.Combats) != 2 {
		t.Fatalf("Combats = %d, want 2", len(result.Combats))
	}
	if !result.Combats[0].Start().Equal(base) {
		t.Errorf("first combat starts at %v, want %v", result.Combats[0].Start(), base)
	}
	if len(result.Files) != 2 || result.Files[0].File != late || result.Files[1].File != early {
		t.Errorf("Files = %+v, want one entry per file in read order", result.Files)
	}
}

func TestAnalyzer_MissingFileIsError(t *testing.T) {
	dir := t.TempDir()
	good := writeLog(t, dir, "a.log", fight(0, 10*time.Second))

	a, _ := NewAnalyzer(testConfig())
	result, err := a.AnalyzeFiles(context.Background(), []string{good, filepath.Join(dir, "missing.log")})
	if err != nil {
		t.Fatalf("AnalyzeFiles() error = %v", err)
	}
	if !result.HasErrors() || result.Halted() {
		t.Errorf("Level = %v, want error without halt", result.Level)
	}
	if len(result.Combats) != 1 {
		t.Errorf("Combats = %d, want 1", len(result.Combats))
	}
	if result.LinesFailed() != 0 {
		t.Errorf("LinesFailed() = %d, want 0 for an unopened file", result.LinesFailed())
	}
}

func TestAnalyzer_Halts(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, cfg *config.Config)
	}{
		{"no folder", func(t *testing.T, cfg *config.Config) {}},
		{"folder missing", func(t *testing.T, cfg *config.Config) {
			cfg.LogSources.Folder = filepath.Join(t.TempDir(), "nope")
		}},
		{"no file matches", func(t *testing.T, cfg *config.Config) {
			dir := t.TempDir()
			writeLog(t, dir, "other.txt", fight(0, time.Second))
			cfg.LogSources.Folder = dir
		}},
		{"every file too old", func(t *testing.T, cfg *config.Config) {
			dir := t.TempDir()
			path := writeLog(t, dir, "Combatlog.log", fight(0, time.Second))
			old := fixedNow().Add(-48 * time.Hour)
			if err := os.Chtimes(path, old, old); err != nil {
				t.Fatal(err)
			}
			cfg.LogSources.Folder = dir
			cfg.LogSources.MaxAge = time.Hour
		}},
		{"no events survive", func(t *testing.T, cfg *config.Config) {
			dir := t.TempDir()
			writeLog(t, dir, "Combatlog.log", []string{"junk", "more junk"})
			cfg.LogSources.Folder = dir
		}},
		{"account rejection without account", func(t *testing.T, cfg *config.Config) {
			dir := t.TempDir()
			writeLog(t, dir, "Combatlog.log", fight(0, 10*time.Second))
			cfg.LogSources.Folder = dir
			cfg.PostProcessing.RejectWithoutAccount = true
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.setup(t, cfg)

			a, _ := NewAnalyzer(cfg, WithNow(fixedNow))
			result, err := a.Run(context.Background())
			if !errors.Is(err, ErrHalted) {
				t.Fatalf("Run() error = %v, want ErrHalted", err)
			}
			if result == nil || !result.Halted() {
				t.Fatal("result not marked halted")
			}
			if len(result.MessagesAt(LevelHalt)) != 1 {
				t.Errorf("halt messages = %v", result.MessagesAt(LevelHalt))
			}
		})
	}
}

func TestAnalyzer_AnalyzeFolder_Window(t *testing.T) {
	dir := t.TempDir()
	recent := writeLog(t, dir, "Combatlog_new.log", fight(0, 10*time.Second))
	old := writeLog(t, dir, "Combatlog_old.log", fight(time.Hour, 10*time.Second))
	for path, mod := range map[string]time.Time{
		recent: fixedNow().Add(-time.Minute),
		old:    fixedNow().Add(-72 * time.Hour),
	} {
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatal(err)
		}
	}

	cfg := testConfig()
	cfg.LogSources.Folder = dir
	cfg.LogSources.MaxAge = 24 * time.Hour

	a, _ := NewAnalyzer(cfg, WithNow(fixedNow))
	result, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Metadata.Sources) != 1 || result.Metadata.Sources[0] != recent {
		t.Errorf("Sources = %v, want only the recent file", result.Metadata.Sources)
	}
	if len(result.Combats) != 1 {
		t.Errorf("Combats = %d, want 1", len(result.Combats))
	}
}

func TestAnalyzer_Deduplicate(t *testing.T) {
	dir := t.TempDir()
	lines := fight(0, 10*time.Second)
	first := writeLog(t, dir, "a.log", lines)
	copyOf := writeLog(t, dir, "b.log", lines)

	for _, dedup := range []bool{false, true} {
		cfg := testConfig()
		cfg.Combat.DeduplicateEvents = dedup

		a, _ := NewAnalyzer(cfg)
		result, err := a.AnalyzeFiles(context.Background(), []string{first, copyOf})
		if err != nil {
			t.Fatalf("AnalyzeFiles() error = %v", err)
		}

		want := 2 * len(lines)
		if dedup {
			want = len(lines)
		}
		if got := result.Combats[0].EventCount(); got != want {
			t.Errorf("dedup=%v: EventCount() = %d, want %d", dedup, got, want)
		}
		if dedup && result.Metadata.DuplicatesDropped != len(lines) {
			t.Errorf("DuplicatesDropped = %d, want %d", result.Metadata.DuplicatesDropped, len(lines))
		}
	}
}

func TestAnalyzer_TimeRange(t *testing.T) {
	lines := append(fight(0, 10*time.Second), fight(time.Hour, 10*time.Second)...)
	source := parser.NewLineSource("mem", lines, nil)

	a, _ := NewAnalyzer(testConfig(), WithTimeRange(base.Add(30*time.Minute), time.Time{}))
	result, err := a.Analyze(context.Background(), source)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Combats) != 1 || !result.Combats[0].Start().Equal(base.Add(time.Hour)) {
		t.Fatalf("Combats = %d, want only the later fight", len(result.Combats))
	}
	if result.Metadata.EventsOutOfRange != 20 {
		t.Errorf("EventsOutOfRange = %d, want 20", result.Metadata.EventsOutOfRange)
	}
}

func TestAnalyzer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, _ := NewAnalyzer(testConfig())
	_, err := a.Analyze(ctx, parser.NewLineSource("mem", fight(0, time.Second), nil))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Analyze() error = %v, want context.Canceled", err)
	}
}

func TestAnalyzer_Reimport(t *testing.T) {
	a, _ := NewAnalyzer(testConfig())
	lines := append(fight(0, 10*time.Second), fight(time.Hour, 10*time.Second)...)
	analyzed, err := a.Analyze(context.Background(), parser.NewLineSource("mem", lines, nil))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "export.json")
	if err := archive.ExportFile(path, analyzed.Combats); err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}

	for _, reprocess := range []bool{false, true} {
		result, err := a.Reimport(context.Background(), []string{path}, reprocess)
		if err != nil {
			t.Fatalf("Reimport(reprocess=%v) error = %v", reprocess, err)
		}
		if !result.Metadata.Imported {
			t.Error("Metadata.Imported = false")
		}
		if len(result.Combats) != len(analyzed.Combats) {
			t.Errorf("Combats = %d, want %d", len(result.Combats), len(analyzed.Combats))
		}
		for i, c := range result.Combats {
			if c.EventCount() != analyzed.Combats[i].EventCount() {
				t.Errorf("combat %d EventCount() = %d, want %d", i, c.EventCount(), analyzed.Combats[i].EventCount())
			}
		}
	}
}

func TestAnalyzer_ReimportFailures(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{oops"), 0o600); err != nil {
		t.Fatal(err)
	}

	a, _ := NewAnalyzer(testConfig())
	result, err := a.Reimport(context.Background(), []string{bad, filepath.Join(dir, "missing.json")}, false)
	if !errors.Is(err, ErrHalted) {
		t.Fatalf("Reimport() error = %v, want ErrHalted", err)
	}
	if len(result.MessagesAt(LevelError)) != 3 {
		t.Errorf("messages = %v, want two errors and a halt", result.MessagesAt(LevelError))
	}
}

func TestTimeRange_Contains(t *testing.T) {
	tests := []struct {
		name string
		r    *TimeRange
		t    time.Time
		want bool
	}{
		{"nil range", nil, base, true},
		{"inside", &TimeRange{Start: base, End: base.Add(time.Hour)}, base.Add(time.Minute), true},
		{"start inclusive", &TimeRange{Start: base, End: base.Add(time.Hour)}, base, true},
		{"before", &TimeRange{Start: base}, base.Add(-time.Second), false},
		{"after", &TimeRange{End: base}, base.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Contains(tt.t); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	if LevelHalt.String() != "halt" || Level(42).String() != "level(42)" {
		t.Errorf("String() = %q/%q", LevelHalt.String(), Level(42).String())
	}
	if !(LevelDebug < LevelInfo && LevelInfo < LevelWarning && LevelWarning < LevelError && LevelError < LevelHalt) {
		t.Error("levels are not ordered")
	}
}
