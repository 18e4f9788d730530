// Package analyzer runs a combat log parse: reading sources, segmenting
// events into combats and post-processing them, collecting every
// user-facing message in a Result.
package analyzer

import (
	"errors"
	"fmt"
	"time"

	"github.com/ccollicutt/combatlog/pkg/combat"
	"github.com/ccollicutt/combatlog/pkg/parser"
)

// ErrHalted is wrapped by the error returned from a run that could not proceed.
var ErrHalted = errors.New("run halted")

// Level is the severity of a message. Levels are ordered.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelHalt
)

var levelNames = [...]string{"debug", "info", "warning", "error", "halt"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelHalt {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Message is one leveled, timestamped run message.
type Message struct {
	Time  time.Time `json:"time"`
	Level Level     `json:"level"`
	Text  string    `json:"text"`
}

// TimeRange defines a time window for filtering events.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies inside the range, bounds included.
// A zero bound is open.
func (r *TimeRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// Metadata provides context about the run.
type Metadata struct {
	// Sources lists the files read, in reading order.
	Sources []string `json:"sources"`

	TimeRange *TimeRange `json:"time_range,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`

	// EventsParsed counts events read from the sources.
	EventsParsed int `json:"events_parsed"`

	// EventsOutOfRange counts events dropped by the time range.
	EventsOutOfRange int `json:"events_out_of_range"`

	// DuplicatesDropped counts events dropped by de-duplication.
	DuplicatesDropped int `json:"duplicates_dropped"`

	// CombatsSegmented counts combats before post-processing.
	CombatsSegmented int `json:"combats_segmented"`

	// Imported is set when combats came from archives rather than logs.
	Imported bool `json:"imported,omitempty"`
}

// Result aggregates everything a run produced.
type Result struct {
	// Level is the highest severity among Messages.
	Level    Level
	Messages []Message

	// Files has per-file parse counts.
	Files []parser.LineStats

	// Combats is the final combat list, including rejected combats when
	// they are configured to be kept.
	Combats []*combat.Combat

	Metadata Metadata

	now func() time.Time
}

func newResult(now func() time.Time) *Result {
	return &Result{now: now, Metadata: Metadata{StartTime: now()}}
}

func (r *Result) add(level Level, format string, args ...any) {
	r.Messages = append(r.Messages, Message{
		Time:  r.now(),
		Level: level,
		Text:  fmt.Sprintf(format, args...),
	})
	if level > r.Level {
		r.Level = level
	}
}

func (r *Result) Debugf(format string, args ...any) { r.add(LevelDebug, format, args...) }
func (r *Result) Infof(format string, args ...any)  { r.add(LevelInfo, format, args...) }
func (r *Result) Warnf(format string, args ...any)  { r.add(LevelWarning, format, args...) }
func (r *Result) Errorf(format string, args ...any) { r.add(LevelError, format, args...) }

// halt records a Halt message and returns the matching error.
func (r *Result) halt(format string, args ...any) error {
	r.add(LevelHalt, format, args...)
	r.Metadata.EndTime = r.now()
	return fmt.Errorf("%w: %s", ErrHalted, fmt.Sprintf(format, args...))
}

// Halted reports whether the run was halted.
func (r *Result) Halted() bool { return r.Level >= LevelHalt }

// HasErrors reports whether any message is Error level or above.
func (r *Result) HasErrors() bool { return r.Level >= LevelError }

// MessagesAt returns messages at or above level.
func (r *Result) MessagesAt(level Level) []Message {
	var out []Message
	for _, m := range r.Messages {
		if m.Level >= level {
			out = append(out, m)
		}
	}
	return out
}

// LinesSucceeded returns the total parsed lines across files.
func (r *Result) LinesSucceeded() int {
	n := 0
	for _, f := range r.Files {
		n += f.Succeeded
	}
	return n
}

// LinesFailed returns the total unparsable lines across files.
func (r *Result) LinesFailed() int {
	n := 0
	for _, f := range r.Files {
		n += f.Failed
	}
	return n
}

// RejectedCombats returns the number of kept combats marked rejected.
func (r *Result) RejectedCombats() int {
	n := 0
	for _, c := range r.Combats {
		if c.Rejected() {
			n++
		}
	}
	return n
}
