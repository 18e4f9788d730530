// Package inspect samples a combat log and reports how well it parses.
package inspect

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ccollicutt/combatlog/pkg/parser"
)

const (
	// DefaultSampleSize is the number of lines sampled when none is configured.
	DefaultSampleSize = 200

	maxExamples = 5
)

// Report holds the result of inspecting a log sample.
type Report struct {
	File         string         `json:"file"`
	SampledLines int            `json:"sampled_lines"`
	ParsedLines  int            `json:"parsed_lines"`
	Failures     map[string]int `json:"failures,omitempty"` // failing field -> count
	Examples     []string       `json:"examples,omitempty"` // first few failure messages
	First        time.Time      `json:"first"`
	Last         time.Time      `json:"last"`
	Players      []string       `json:"players"`
}

// Ratio returns the fraction of sampled lines that parsed, 0 when nothing was sampled.
func (r *Report) Ratio() float64 {
	if r.SampledLines == 0 {
		return 0
	}
	return float64(r.ParsedLines) / float64(r.SampledLines)
}

// Healthy reports whether every sampled line parsed.
func (r *Report) Healthy() bool {
	return r.SampledLines > 0 && r.ParsedLines == r.SampledLines
}

// Span returns the time between the first and last parsed event.
func (r *Report) Span() time.Duration {
	return r.Last.Sub(r.First)
}

// Inspector samples log files.
type Inspector struct {
	sampleSize int
}

// Option configures the Inspector.
type Option func(*Inspector)

// WithSampleSize sets the number of non-blank lines to sample.
func WithSampleSize(n int) Option {
	return func(i *Inspector) {
		if n > 0 {
			i.sampleSize = n
		}
	}
}

// New creates an Inspector.
func New(opts ...Option) *Inspector {
	i := &Inspector{sampleSize: DefaultSampleSize}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// InspectFile samples the head of the file at path.
func (i *Inspector) InspectFile(ctx context.Context, path string) (*Report, error) {
	lines, err := i.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return i.InspectLines(path, lines), nil
}

// InspectLines parses lines as if they came from the named file.
func (i *Inspector) InspectLines(name string, lines []string) *Report {
	report := &Report{File: name, Failures: make(map[string]int)}
	players := make(map[string]bool)

	n := 0
	for idx, raw := range lines {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if n == i.sampleSize {
			break
		}
		n++

		ev, err := parser.ParseEvent(name, raw, idx+1)
		if err != nil {
			field := "line"
			var perr *parser.ParseError
			if errors.As(err, &perr) {
				field = perr.Field
			}
			report.Failures[field]++
			if len(report.Examples) < maxExamples {
				report.Examples = append(report.Examples, err.Error())
			}
			continue
		}

		report.ParsedLines++
		if report.First.IsZero() || ev.Timestamp.Before(report.First) {
			report.First = ev.Timestamp
		}
		if ev.Timestamp.After(report.Last) {
			report.Last = ev.Timestamp
		}
		if ev.IsOwnerPlayer {
			players[ev.OwnerDisplay] = true
		}
		if ev.IsTargetPlayer {
			players[ev.TargetDisplay] = true
		}
	}
	report.SampledLines = n

	report.Players = make([]string, 0, len(players))
	for p := range players {
		report.Players = append(report.Players, p)
	}
	sort.Strings(report.Players)

	return report
}

// sampleFile reads up to sampleSize non-blank lines from the head of a file.
func (i *Inspector) sampleFile(ctx context.Context, path string) ([]string, error) {
	file, err := os.Open(path) // #nosec G304 -- path is provided by user via CLI
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	kept := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for kept < i.sampleSize && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()
		lines = append(lines, line)
		if strings.TrimSpace(line) != "" {
			kept++
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}
