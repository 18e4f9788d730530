package output

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ccollicutt/combatlog/pkg/analyzer"
	"github.com/ccollicutt/combatlog/pkg/combat"
)

var (
	haltColor    = color.New(color.FgRed, color.Bold)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	debugColor   = color.New(color.FgHiBlack)
	headerColor  = color.New(color.Bold)
)

const timeLayout = "2006-01-02 15:04:05"

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(ctx, report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	s := report.Summary
	_, err := fmt.Fprintf(w, "combatlog: %d combats kept (%d rejected) of %d, %d lines parsed, %d failed [%s]\n",
		s.CombatsKept, s.CombatsRejected, s.CombatsSegmented, s.LinesSucceeded, s.LinesFailed, s.Level)
	return err
}

func (f *TextFormatter) formatFull(ctx context.Context, report *Report, w io.Writer) error {
	headerColor.Fprintln(w, "=== Combat Log Report ===")
	fmt.Fprintln(w)

	if err := f.formatMessages(report, w); err != nil {
		return err
	}

	if f.opts.Verbose && len(report.Files) > 0 {
		if err := formatFiles(report, w); err != nil {
			return err
		}
	}

	if len(report.Combats) == 0 {
		fmt.Fprintln(w, "No combats")
	} else if err := formatCombats(report.Combats, w); err != nil {
		return err
	}

	if f.opts.Verbose {
		for i, c := range report.Combats {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := formatCombatDetail(i+1, c, w); err != nil {
				return err
			}
		}
	}

	// Summary
	s := report.Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d combats kept, %d rejected, %d segmented; %d lines parsed, %d failed\n",
		s.CombatsKept, s.CombatsRejected, s.CombatsSegmented, s.LinesSucceeded, s.LinesFailed)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(time.Millisecond))
	}
	return nil
}

func (f *TextFormatter) formatMessages(report *Report, w io.Writer) error {
	printed := false
	for _, m := range report.Messages {
		if m.Level == analyzer.LevelDebug && !f.opts.Verbose {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", levelColor(m.Level).Sprintf("[%s]", m.Level), m.Text); err != nil {
			return err
		}
		printed = true
	}
	if printed {
		fmt.Fprintln(w)
	}
	return nil
}

func levelColor(l analyzer.Level) *color.Color {
	switch l {
	case analyzer.LevelHalt:
		return haltColor
	case analyzer.LevelError:
		return errorColor
	case analyzer.LevelWarning:
		return warningColor
	case analyzer.LevelInfo:
		return infoColor
	default:
		return debugColor
	}
}

func formatFiles(report *Report, w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"File", "Parsed", "Failed"})

	var data [][]string
	for _, f := range report.Files {
		failed := strconv.Itoa(f.Failed)
		if f.OpenError != "" {
			failed = errorColor.Sprint("unreadable")
		}
		data = append(data, []string{f.File, strconv.Itoa(f.Succeeded), failed})
	}
	return render(table, data)
}

func formatCombats(combats []*combat.Combat, w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Start", "Duration", "Map", "Players", "Events", "Status"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, c := range combats {
		mapName := c.Map()
		if mapName == "" {
			mapName = "-"
		}
		status := "ok"
		if c.Rejected() {
			status = errorColor.Sprint("rejected: " + c.RejectionReason())
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			c.Start().Format(timeLayout),
			formatDuration(c.Duration()),
			mapName,
			strconv.Itoa(c.PlayerCount()),
			strconv.Itoa(c.EventCount()),
			status,
		})
	}
	return render(table, data)
}

// formatCombatDetail renders the entity table of one combat followed by the
// event types of each player.
func formatCombatDetail(n int, c *combat.Combat, w io.Writer) error {
	fmt.Fprintln(w)
	headerColor.Fprintf(w, "Combat %d: %s, %s\n", n, c.Start().Format(timeLayout), formatDuration(c.Duration()))

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Entity", "Player", "Damage", "DPS", "Max Hit", "Hits", "Crits", "Kills", "Heals", "Active"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, e := range c.Entities() {
		s := e.Stats()
		name := e.Name()
		if e.Rejected() {
			name = errorColor.Sprint(name + " (rejected)")
		}
		data = append(data, []string{
			name,
			yesNo(e.IsPlayer()),
			formatFloat(s.All.Total),
			formatFloat(s.All.PerSecond),
			formatFloat(s.All.Max),
			strconv.Itoa(s.All.Hits),
			strconv.Itoa(s.CriticalCount),
			strconv.Itoa(s.KillCount),
			formatFloat(s.HealTotal),
			formatDuration(s.ActiveTime()),
		})
	}
	if err := render(table, data); err != nil {
		return err
	}

	for _, e := range c.Players() {
		if err := formatEventTypes(e, w); err != nil {
			return err
		}
	}
	return nil
}

func formatEventTypes(e *combat.Entity, w io.Writer) error {
	s := e.Stats()
	if len(s.EventTypes)+len(s.PetEventTypes) == 0 {
		return nil
	}

	name := e.OwnerDisplay()
	if name == "" {
		name = e.Name()
	}
	fmt.Fprintf(w, "%s event types\n", name)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Source", "Event", "Count", "Damage", "DPS", "Max Hit", "Crit %", "Flank %", "Kills", "Heals"})

	var data [][]string
	add := func(types []combat.EventType) {
		for _, et := range types {
			source := et.SourceDisplay
			if source == "" {
				source = et.Key.Source
			}
			if source == "" {
				source = "-"
			}
			data = append(data, []string{
				source,
				et.Key.EventDisplay,
				strconv.Itoa(et.Count),
				formatFloat(et.Damage),
				formatFloat(et.DPS),
				formatFloat(et.MaxHit),
				formatFloat(et.CritPercent),
				formatFloat(et.FlankPercent),
				strconv.Itoa(et.Kills),
				formatFloat(et.Heals),
			})
		}
	}
	add(s.EventTypes)
	add(s.PetEventTypes)
	return render(table, data)
}

func render(table *tablewriter.Table, data [][]string) error {
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatDuration(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
