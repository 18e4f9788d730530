package parser

import (
	"context"
	"io"
	"strings"
)

// LineSource implements EventSource over raw lines already held in memory.
type LineSource struct {
	name      string
	lines     []string
	onFailure FailureFunc

	index int
	stats LineStats
}

// NewLineSource creates an EventSource over lines. name is recorded as the
// file name of every event; line numbers are 1-based positions in lines.
func NewLineSource(name string, lines []string, onFailure FailureFunc) *LineSource {
	return &LineSource{
		name:      name,
		lines:     lines,
		onFailure: onFailure,
		stats:     LineStats{File: name},
	}
}

// Next returns the next parsed event, skipping blank and unparsable lines.
func (s *LineSource) Next(ctx context.Context) (*CombatEvent, error) {
	for s.index < len(s.lines) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw := s.lines[s.index]
		s.index++
		if strings.TrimSpace(raw) == "" {
			continue
		}

		ev, err := ParseEvent(s.name, raw, s.index)
		if err != nil {
			s.stats.Failed++
			if perr, ok := err.(*ParseError); ok && s.onFailure != nil {
				s.onFailure(perr)
			}
			continue
		}

		s.stats.Succeeded++
		return ev, nil
	}
	return nil, io.EOF
}

// Stats returns the parse counts for the in-memory lines.
func (s *LineSource) Stats() []LineStats {
	return []LineStats{s.stats}
}

// Close is a no-op.
func (s *LineSource) Close() error {
	return nil
}
