// Package parser provides combat log reading and line parsing functionality.
package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// HealType is the damage type the game uses for hit point restoration.
const HealType = "HitPoints"

// CombatEvent represents a single parsed combat log line.
// Events are never modified after ParseEvent returns them.
type CombatEvent struct {
	// Timestamp is the local time the event was logged, with decisecond precision.
	Timestamp time.Time `json:"timestamp"`

	OwnerDisplay          string `json:"owner_display"`
	OwnerInternal         string `json:"owner_internal"`
	OwnerInternalStripped string `json:"owner_internal_stripped,omitempty"`

	// Source fields are only set for pet or indirect damage.
	SourceDisplay          string `json:"source_display,omitempty"`
	SourceInternal         string `json:"source_internal,omitempty"`
	SourceInternalStripped string `json:"source_internal_stripped,omitempty"`

	TargetDisplay          string `json:"target_display"`
	TargetInternal         string `json:"target_internal"`
	TargetInternalStripped string `json:"target_internal_stripped,omitempty"`

	EventDisplay  string `json:"event_display"`
	EventInternal string `json:"event_internal"`

	// Type is the damage type, or HealType for heals.
	Type string `json:"type"`

	// Flags is the raw flag token set, e.g. "Critical|Flank|Kill".
	Flags string `json:"flags,omitempty"`

	Magnitude     float64 `json:"magnitude"`
	MagnitudeBase float64 `json:"magnitude_base"`

	IsOwnerPlayer   bool `json:"is_owner_player"`
	IsTargetPlayer  bool `json:"is_target_player"`
	IsOwnerPetEvent bool `json:"is_owner_pet_event"`

	// IsOwnerModified is set when the log omitted the owner and the
	// target was substituted in its place.
	IsOwnerModified bool `json:"is_owner_modified"`

	// RawLine is the original line content, kept so the event can be re-derived.
	RawLine string `json:"raw_line"`

	// FileName is the file path this line came from.
	FileName string `json:"file_name"`

	// LineNumber is the 1-based line number in the source file.
	LineNumber int `json:"line_number"`
}

// IsHeal reports whether the event restores hit points.
func (e *CombatEvent) IsHeal() bool {
	return e.Type == HealType
}

// IsCritical reports whether the event carries the critical flag.
func (e *CombatEvent) IsCritical() bool {
	return hasFlag(e.Flags, "critical")
}

// IsFlank reports whether the event carries the flank flag.
func (e *CombatEvent) IsFlank() bool {
	return hasFlag(e.Flags, "flank")
}

// IsKill reports whether the event carries the kill flag.
func (e *CombatEvent) IsKill() bool {
	return hasFlag(e.Flags, "kill")
}

func hasFlag(flags, name string) bool {
	return strings.Contains(strings.ToLower(flags), name)
}

// Hash returns an identity hash over the fields that make two events "the same".
// It is advisory: two distinct hits can legitimately share a hash.
func (e *CombatEvent) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(strconv.FormatInt(e.Timestamp.UnixNano(), 10))
	for _, field := range []string{
		e.OwnerInternal,
		e.SourceInternal,
		e.TargetInternal,
		e.EventInternal,
		e.Type,
		e.Flags,
		strconv.FormatFloat(e.Magnitude, 'g', -1, 64),
	} {
		_, _ = d.WriteString("\x1f")
		_, _ = d.WriteString(field)
	}
	return d.Sum64()
}

// SameAs reports whether two events have the same identity hash.
func (e *CombatEvent) SameAs(other *CombatEvent) bool {
	return other != nil && e.Hash() == other.Hash()
}

// LineStats counts parse outcomes for a single source file.
type LineStats struct {
	// File is the source file path.
	File string `json:"file"`

	// Succeeded is the number of lines parsed into events.
	Succeeded int `json:"succeeded"`

	// Failed is the number of lines that could not be parsed.
	Failed int `json:"failed"`

	// OpenError is set when the file could not be opened; no line was read.
	OpenError string `json:"open_error,omitempty"`
}
