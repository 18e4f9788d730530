package parser

import (
	"errors"
	"fmt"
)

// Sentinel errors for hard parse failures. Use errors.Is against a *ParseError.
var (
	ErrFieldCount = errors.New("unexpected field count")
	ErrTimestamp  = errors.New("invalid timestamp")
	ErrMagnitude  = errors.New("invalid magnitude")
)

// ParseError describes a line that could not be parsed into a CombatEvent.
type ParseError struct {
	// File is the file the line came from.
	File string

	// Line is the 1-based line number.
	Line int

	// Field names the field that failed to parse.
	Field string

	// Err is the underlying cause.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %v", e.File, e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
