package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldCount is the number of comma-separated fields in a combat log line.
const FieldCount = 12

// Field names used in ParseError.Field, by position.
var fieldNames = [FieldCount]string{
	"timestamp",
	"owner_internal",
	"source_display",
	"source_internal",
	"target_display",
	"target_internal",
	"event_display",
	"event_internal",
	"type",
	"flags",
	"magnitude",
	"magnitude_base",
}

// ParseEvent parses one raw combat log line into a CombatEvent.
// fileName and lineNumber are recorded on the event and in any error.
// It performs no I/O and has no side effects.
func ParseEvent(fileName, rawLine string, lineNumber int) (*CombatEvent, error) {
	fail := func(field string, err error) error {
		return &ParseError{File: fileName, Line: lineNumber, Field: field, Err: err}
	}

	line := cleanLine(rawLine)
	fields := strings.Split(line, ",")
	if len(fields) != FieldCount {
		return nil, fail("line", fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(fields), FieldCount))
	}

	tsStr, ownerDisplay, ok := strings.Cut(fields[0], "::")
	if !ok {
		return nil, fail(fieldNames[0], fmt.Errorf("%w: missing \"::\" before owner name", ErrTimestamp))
	}
	ts, err := parseTimestamp(tsStr)
	if err != nil {
		return nil, fail(fieldNames[0], err)
	}

	magnitude, err := parseMagnitude(fields[10])
	if err != nil {
		return nil, fail(fieldNames[10], err)
	}
	magnitudeBase, err := parseMagnitude(fields[11])
	if err != nil {
		return nil, fail(fieldNames[11], err)
	}

	ev := &CombatEvent{
		Timestamp:      ts,
		OwnerDisplay:   ownerDisplay,
		OwnerInternal:  fields[1],
		SourceDisplay:  fields[2],
		SourceInternal: fields[3],
		TargetDisplay:  fields[4],
		TargetInternal: fields[5],
		EventDisplay:   fields[6],
		EventInternal:  fields[7],
		Type:           fields[8],
		Flags:          fields[9],
		Magnitude:      magnitude,
		MagnitudeBase:  magnitudeBase,
		RawLine:        rawLine,
		FileName:       fileName,
		LineNumber:     lineNumber,
	}

	// Self-targeted effects are logged without an owner.
	if strings.TrimSpace(ev.OwnerInternal) == "" {
		ev.OwnerDisplay = ev.TargetDisplay
		ev.OwnerInternal = ev.TargetInternal
		ev.IsOwnerModified = true
	}

	if ev.SourceDisplay != "" && ev.SourceInternal != "" && ev.SourceInternal != "*" {
		ev.IsOwnerPetEvent = true
		ev.SourceInternalStripped, _ = StripIdentifier(ev.SourceInternal)
	}

	if ev.OwnerDisplay != "" && ev.OwnerInternal != "" && ev.OwnerInternal != "*" {
		ev.OwnerInternalStripped, ev.IsOwnerPlayer = StripIdentifier(ev.OwnerInternal)
	}

	if ev.TargetDisplay != "" && ev.TargetInternal != "" && ev.TargetInternal != "*" {
		ev.TargetInternalStripped, ev.IsTargetPlayer = StripIdentifier(ev.TargetInternal)
	}

	return ev, nil
}

// Line renders the event in the log's own line format. For an event parsed
// from a log this reproduces an equivalent line even when RawLine is unknown.
func (e *CombatEvent) Line() string {
	ownerDisplay, ownerInternal := e.OwnerDisplay, e.OwnerInternal
	if e.IsOwnerModified {
		ownerDisplay, ownerInternal = "", ""
	}

	return strings.Join([]string{
		formatTimestamp(e.Timestamp) + "::" + ownerDisplay,
		ownerInternal,
		e.SourceDisplay,
		e.SourceInternal,
		e.TargetDisplay,
		e.TargetInternal,
		e.EventDisplay,
		e.EventInternal,
		e.Type,
		e.Flags,
		strconv.FormatFloat(e.Magnitude, 'f', -1, 64),
		strconv.FormatFloat(e.MagnitudeBase, 'f', -1, 64),
	}, ",")
}

func parseMagnitude(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMagnitude, s)
	}
	return v, nil
}

// cleanLine drops control characters, byte order marks and invalid UTF-8.
func cleanLine(s string) string {
	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
}
