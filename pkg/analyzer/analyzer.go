package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ccollicutt/combatlog/pkg/archive"
	"github.com/ccollicutt/combatlog/pkg/combat"
	"github.com/ccollicutt/combatlog/pkg/config"
	"github.com/ccollicutt/combatlog/pkg/parser"
	"github.com/ccollicutt/combatlog/pkg/postprocess"
	"github.com/ccollicutt/combatlog/pkg/segmenter"
)

// Analyzer runs combat log parses for one configuration.
type Analyzer struct {
	cfg *config.Config

	// Options
	observer  Observer
	now       func() time.Time
	timeRange *TimeRange
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithObserver registers fn to receive run notifications.
func WithObserver(fn Observer) AnalyzerOption {
	return func(a *Analyzer) {
		a.observer = fn
	}
}

// WithNow overrides the clock used for message times and the max-age window.
func WithNow(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithTimeRange drops events outside [start, end]. A zero bound is open.
func WithTimeRange(start, end time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeRange = &TimeRange{Start: start, End: end}
	}
}

// NewAnalyzer creates a new analyzer from configuration.
func NewAnalyzer(cfg *config.Config, opts ...AnalyzerOption) (*Analyzer, error) {
	if cfg == nil {
		return nil, errors.New("analyzer requires a configuration")
	}

	a := &Analyzer{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run analyzes the configured explicit files when set, otherwise the
// configured log folder.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	if len(a.cfg.LogSources.Files) > 0 {
		return a.AnalyzeFiles(ctx, a.cfg.LogSources.Files)
	}
	return a.AnalyzeFolder(ctx)
}

// AnalyzeFolder analyzes the files in the configured log folder that match
// the pattern and fall inside the max-age window.
func (a *Analyzer) AnalyzeFolder(ctx context.Context) (*Result, error) {
	ls := a.cfg.LogSources
	result := a.newResult()

	if ls.Folder == "" {
		return result, result.halt("no log folder configured")
	}

	listing, err := parser.ListLogFiles(ls.Folder, ls.Pattern, ls.MaxAge, a.now())
	if err != nil {
		return result, result.halt("listing log files: %v", err)
	}
	if listing.Matched == 0 {
		return result, result.halt("no file in %s matches %q", ls.Folder, ls.Pattern)
	}
	if len(listing.Files) == 0 {
		return result, result.halt("all %d matching files are older than %s", listing.Matched, ls.MaxAge)
	}
	if skipped := listing.Matched - len(listing.Files); skipped > 0 {
		result.Infof("skipped %d files older than %s", skipped, ls.MaxAge)
	}

	return a.analyzePaths(ctx, result, listing.Paths())
}

// AnalyzeFiles analyzes an explicit list of files. Entries may be glob patterns.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, files []string) (*Result, error) {
	result := a.newResult()

	paths, err := parser.ExpandGlobs(files)
	if err != nil {
		return result, result.halt("expanding log files: %v", err)
	}
	if len(paths) == 0 {
		return result, result.halt("no log files given")
	}

	return a.analyzePaths(ctx, result, paths)
}

func (a *Analyzer) analyzePaths(ctx context.Context, result *Result, paths []string) (*Result, error) {
	onFailure := func(perr *parser.ParseError) {
		if perr.Field == "file" {
			result.Errorf("%s: %v", perr.File, perr.Err)
		}
		a.notify(LineParseFailed{File: perr.File, Line: perr.Line, Err: perr})
	}

	// Files are read one at a time; analyze sorts the events afterwards.
	source := parser.NewFileSource(paths, onFailure)
	defer source.Close()

	log.Info().Int("files", len(paths)).Msg("reading combat logs")
	return a.analyze(ctx, result, source)
}

// Analyze reads every event from source and turns them into combats.
func (a *Analyzer) Analyze(ctx context.Context, source parser.EventSource) (*Result, error) {
	return a.analyze(ctx, a.newResult(), source)
}

func (a *Analyzer) analyze(ctx context.Context, result *Result, source parser.EventSource) (*Result, error) {
	if a.cfg.PostProcessing.RejectWithoutAccount && a.cfg.AccountCharacter == "" {
		return result, result.halt("reject_without_account is enabled but no account character is set")
	}

	var (
		events []*parser.CombatEvent
		seen   map[uint64]struct{}
	)
	if a.cfg.Combat.DeduplicateEvents {
		seen = make(map[uint64]struct{})
	}

	for {
		ev, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("reading log source: %w", err)
		}

		result.Metadata.EventsParsed++
		if !a.timeRange.Contains(ev.Timestamp) {
			result.Metadata.EventsOutOfRange++
			continue
		}
		if seen != nil {
			h := ev.Hash()
			if _, dup := seen[h]; dup {
				result.Metadata.DuplicatesDropped++
				continue
			}
			seen[h] = struct{}{}
		}
		events = append(events, ev)
	}

	result.Files = source.Stats()
	for _, f := range result.Files {
		result.Metadata.Sources = append(result.Metadata.Sources, f.File)
		if f.Failed > 0 {
			result.Warnf("%s: %d of %d lines could not be parsed", f.File, f.Failed, f.Succeeded+f.Failed)
		}
	}
	if result.Metadata.DuplicatesDropped > 0 {
		result.Infof("dropped %d duplicate events", result.Metadata.DuplicatesDropped)
	}

	if len(events) == 0 {
		return result, result.halt("no events survived parsing")
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	combats, err := segmenter.Segment(ctx, a.cfg.Combat, events,
		segmenter.WithOnCombatClosed(func(c *combat.Combat) { a.notify(CombatClosed{Combat: c}) }))
	if err != nil {
		return result, fmt.Errorf("segmenting combats: %w", err)
	}
	result.Metadata.CombatsSegmented = len(combats)
	log.Info().Int("events", len(events)).Int("combats", len(combats)).Msg("segmented combats")

	return a.finish(ctx, result, combats)
}

// Reimport loads archived combats from paths. With reprocess set, the
// post-processing pipeline runs again on the imported combats.
func (a *Analyzer) Reimport(ctx context.Context, paths []string, reprocess bool) (*Result, error) {
	result := a.newResult()
	result.Metadata.Imported = true

	var combats []*combat.Combat
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		imported, err := archive.ImportFile(path)
		if err != nil {
			result.Errorf("importing %v", err)
			continue
		}
		result.Metadata.Sources = append(result.Metadata.Sources, path)
		combats = append(combats, imported...)
	}

	if len(combats) == 0 {
		return result, result.halt("no combats imported")
	}
	result.Metadata.CombatsSegmented = len(combats)

	if !reprocess {
		result.Combats = combats
		result.Infof("imported %d combats", len(combats))
		result.Metadata.EndTime = a.now()
		return result, nil
	}
	return a.finish(ctx, result, combats)
}

// finish runs the post-processing pipeline and records the summary.
func (a *Analyzer) finish(ctx context.Context, result *Result, combats []*combat.Combat) (*Result, error) {
	kept, err := postprocess.FromConfig(a.cfg).Run(ctx, combats, result)
	if err != nil {
		return result, err
	}

	result.Combats = kept
	result.Metadata.EndTime = a.now()
	result.Infof("%d combats kept of %d", len(kept), len(combats))
	log.Info().Int("kept", len(kept)).Int("segmented", len(combats)).Msg("post-processing complete")
	return result, nil
}

func (a *Analyzer) newResult() *Result {
	result := newResult(a.now)
	result.Metadata.TimeRange = a.timeRange
	return result
}

func (a *Analyzer) notify(n Notification) {
	if a.observer != nil {
		a.observer(n)
	}
}
