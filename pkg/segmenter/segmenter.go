// Package segmenter partitions a time-ordered event stream into combats.
package segmenter

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/combatlog/pkg/combat"
	"github.com/ccollicutt/combatlog/pkg/config"
	"github.com/ccollicutt/combatlog/pkg/parser"
)

var (
	// ErrUnsorted is returned when an event is older than the previous one.
	ErrUnsorted = errors.New("events are not sorted by timestamp")

	// ErrFinished is returned when events are added after Finish.
	ErrFinished = errors.New("segmenter already finished")
)

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithOnCombatClosed registers a callback invoked once per combat, when a
// gap closes it or when Finish closes the last one.
func WithOnCombatClosed(fn func(*combat.Combat)) Option {
	return func(s *Segmenter) {
		s.onClosed = fn
	}
}

// WithSealConcurrency bounds how many combats are sealed in parallel by Finish.
func WithSealConcurrency(n int) Option {
	return func(s *Segmenter) {
		if n > 0 {
			s.sealLimit = n
		}
	}
}

// Segmenter groups events into combats separated by inactivity gaps.
// A new combat starts when an event is more than the gap threshold after
// the current combat's last event.
type Segmenter struct {
	gap       time.Duration
	opts      combat.Options
	onClosed  func(*combat.Combat)
	sealLimit int

	combats  []*combat.Combat
	current  *combat.Combat
	last     time.Time
	finished bool
}

// New creates a Segmenter from the combat configuration.
func New(cfg config.CombatConfig, opts ...Option) *Segmenter {
	gap := cfg.GapThreshold
	if gap <= 0 {
		gap = config.DefaultGapThreshold
	}

	s := &Segmenter{
		gap:       gap,
		opts:      combat.OptionsFrom(cfg),
		sealLimit: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add feeds the next event. Events must be sorted ascending by timestamp.
func (s *Segmenter) Add(ev *parser.CombatEvent) error {
	if s.finished {
		return ErrFinished
	}

	if s.current != nil {
		if ev.Timestamp.Before(s.last) {
			return fmt.Errorf("%s:%d at %s is before %s: %w",
				ev.FileName, ev.LineNumber, ev.Timestamp.Format(time.DateTime), s.last.Format(time.DateTime), ErrUnsorted)
		}
		if ev.Timestamp.Sub(s.last) > s.gap {
			s.close()
		}
	}

	if s.current == nil {
		s.current = combat.New(s.opts)
		s.combats = append(s.combats, s.current)
	}

	if err := s.current.AddEvent(ev); err != nil {
		return fmt.Errorf("adding event %s:%d: %w", ev.FileName, ev.LineNumber, err)
	}
	s.last = ev.Timestamp
	return nil
}

func (s *Segmenter) close() {
	if s.onClosed != nil {
		s.onClosed(s.current)
	}
	s.current = nil
}

// Finish closes the open combat, seals every combat and returns them in order.
func (s *Segmenter) Finish(ctx context.Context) ([]*combat.Combat, error) {
	if s.finished {
		return s.combats, nil
	}
	s.finished = true
	if s.current != nil {
		s.close()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sealLimit)
	for _, c := range s.combats {
		c := c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c.Seal()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sealing combats: %w", err)
	}

	return s.combats, nil
}

// Segment runs a Segmenter over events and returns the sealed combats.
func Segment(ctx context.Context, cfg config.CombatConfig, events []*parser.CombatEvent, opts ...Option) ([]*combat.Combat, error) {
	s := New(cfg, opts...)
	for _, ev := range events {
		if err := s.Add(ev); err != nil {
			return nil, err
		}
	}
	return s.Finish(ctx)
}
