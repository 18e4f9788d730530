package parser

import (
	"context"
)

// EventSource provides an iterator over parsed combat events.
// Implementations must be safe for sequential access (not concurrent).
type EventSource interface {
	// Next returns the next parsed event.
	// Returns io.EOF when no more events are available.
	// Lines that cannot be parsed are counted and skipped.
	Next(ctx context.Context) (*CombatEvent, error)

	// Stats returns per-file parse counts gathered so far.
	Stats() []LineStats

	// Close releases any resources held by the source.
	Close() error
}

// FailureFunc is called for every line that fails to parse.
type FailureFunc func(err *ParseError)
