// Package output provides formatting and output generation for parse results.
package output

import (
	"time"

	"github.com/ccollicutt/combatlog/pkg/analyzer"
	"github.com/ccollicutt/combatlog/pkg/combat"
	"github.com/ccollicutt/combatlog/pkg/parser"
)

// Report is the complete parse output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Combats is the combat list in chronological order.
	Combats []*combat.Combat `json:"combats"`

	// Messages are the run messages, in the order they were recorded.
	Messages []analyzer.Message `json:"messages"`

	// Files has per-file parse counts.
	Files []parser.LineStats `json:"files"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// Level is the highest message severity of the run.
	Level analyzer.Level `json:"level"`

	CombatsSegmented int `json:"combats_segmented"`
	CombatsKept      int `json:"combats_kept"`
	CombatsRejected  int `json:"combats_rejected"`

	LinesSucceeded int `json:"lines_succeeded"`
	LinesFailed    int `json:"lines_failed"`
}

// Metadata provides context about the run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used.
	ConfigFile string `json:"config_file,omitempty"`

	// Sources lists the files that were read.
	Sources []string `json:"sources"`

	// TimeRange is the time filter that was applied, if any.
	TimeRange *analyzer.TimeRange `json:"time_range,omitempty"`

	// AnalyzedAt is when the run finished.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`

	Imported bool `json:"imported,omitempty"`
}

// NewReport creates a Report from a run result.
func NewReport(result *analyzer.Result, configFile string) *Report {
	return &Report{
		Combats:  result.Combats,
		Messages: result.Messages,
		Files:    result.Files,
		Metadata: Metadata{
			ConfigFile: configFile,
			Sources:    result.Metadata.Sources,
			TimeRange:  result.Metadata.TimeRange,
			AnalyzedAt: result.Metadata.EndTime,
			Duration:   result.Metadata.EndTime.Sub(result.Metadata.StartTime),
			Imported:   result.Metadata.Imported,
		},
		Summary: Summary{
			Level:            result.Level,
			CombatsSegmented: result.Metadata.CombatsSegmented,
			CombatsKept:      len(result.Combats),
			CombatsRejected:  result.RejectedCombats(),
			LinesSucceeded:   result.LinesSucceeded(),
			LinesFailed:      result.LinesFailed(),
		},
	}
}

// HasErrors returns true if the run recorded Error-level messages.
func (r *Report) HasErrors() bool {
	return r.Summary.Level >= analyzer.LevelError
}
