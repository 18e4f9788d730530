package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/combatlog/pkg/inspect"
)

// InspectOptions holds command-line options for the inspect command.
type InspectOptions struct {
	Output     string
	SampleSize int
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <log-file>",
		Short: "Check how well a combat log parses",
		Long: `Sample the head of a combat log and parse every sampled line.

Reports the share of lines that parse, failure counts per failing field, the
time span covered and the player names seen.

Example:
  combatlog inspect Combatlog.log
  combatlog inspect -n 1000 -o json Combatlog.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", inspect.DefaultSampleSize, "Number of lines to sample")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string, opts *InspectOptions) error {
	logFile := args[0]
	ctx := commandContext(cmd)

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	report, err := inspect.New(inspect.WithSampleSize(opts.SampleSize)).InspectFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("inspection failed: %w", err)
	}

	out := cmd.OutOrStdout()
	switch opts.Output {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "text", "":
		outputInspectText(out, report)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", opts.Output)
	}
}

func outputInspectText(w io.Writer, r *inspect.Report) {
	fmt.Fprintln(w, "=== Combat Log Inspection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", r.File)
	fmt.Fprintf(w, "Lines sampled: %d\n", r.SampledLines)
	fmt.Fprintf(w, "Lines parsed: %d (%.1f%%)\n", r.ParsedLines, r.Ratio()*100)

	if r.ParsedLines > 0 {
		fmt.Fprintf(w, "Time span: %s to %s (%s)\n",
			r.First.Format("2006-01-02 15:04:05"), r.Last.Format("2006-01-02 15:04:05"), r.Span())
		fmt.Fprintf(w, "Players: %d\n", len(r.Players))
		for _, p := range r.Players {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}

	if len(r.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failures by field:")
		fields := make([]string, 0, len(r.Failures))
		for f := range r.Failures {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(w, "  %s: %d\n", f, r.Failures[f])
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Examples:")
		for _, e := range r.Examples {
			fmt.Fprintf(w, "  %s\n", truncate(e, 120))
		}
	}

	fmt.Fprintln(w)
	if r.Healthy() {
		fmt.Fprintln(w, "Every sampled line parsed.")
	} else if r.ParsedLines == 0 {
		fmt.Fprintln(w, "No sampled line parsed; this does not look like a combat log.")
	} else {
		fmt.Fprintln(w, "Some lines failed to parse; they will be skipped and counted.")
	}
}
