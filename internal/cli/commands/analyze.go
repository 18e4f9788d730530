package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/combatlog/pkg/analyzer"
	"github.com/ccollicutt/combatlog/pkg/archive"
	"github.com/ccollicutt/combatlog/pkg/config"
	"github.com/ccollicutt/combatlog/pkg/output"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitRunErrors   = 1
	ExitConfigError = 2
)

// ExitCode is set by commands to indicate the result
var ExitCode = ExitOK

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	Output    string
	TimeRange string
	Export    string
	Verbose   bool
	Quiet     bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <config-file> [log-file...]",
		Short: "Parse combat logs into combats",
		Long: `Parse combat logs according to the configuration file.

Without log files, the configured log folder is scanned for files matching the
pattern and inside the max-age window. Log file arguments replace the folder
and may be glob patterns.

Exit codes:
  0 - Run completed
  1 - Run completed with errors (unreadable files)
  2 - Configuration error or halted run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.TimeRange, "time-range", "", "Only keep events from the last window (e.g., 2h, 24h)")
	cmd.Flags().StringVar(&opts.Export, "export", "", "Write the resulting combats to a JSON archive")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show per-entity and per-event-type tables")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	ExitCode = ExitOK
	configPath := args[0]
	ctx := commandContext(cmd)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if len(args) > 1 {
		cfg.LogSources.Files = args[1:]
	}

	formatter, err := createFormatter(opts.Output, opts.Verbose, opts.Quiet)
	if err != nil {
		return err
	}

	var analyzerOpts []analyzer.AnalyzerOption
	if opts.TimeRange != "" {
		duration, err := time.ParseDuration(opts.TimeRange)
		if err != nil {
			return fmt.Errorf("invalid time-range %q: %w", opts.TimeRange, err)
		}
		end := time.Now()
		analyzerOpts = append(analyzerOpts, analyzer.WithTimeRange(end.Add(-duration), end))
	}

	a, err := analyzer.NewAnalyzer(cfg, analyzerOpts...)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	result, runErr := a.Run(ctx)
	if runErr != nil && !errors.Is(runErr, analyzer.ErrHalted) {
		return fmt.Errorf("analysis failed: %w", runErr)
	}

	if opts.Export != "" && len(result.Combats) > 0 {
		if err := archive.ExportFile(opts.Export, result.Combats); err != nil {
			return fmt.Errorf("exporting combats: %w", err)
		}
		log.Info().Str("path", opts.Export).Int("combats", len(result.Combats)).Msg("exported combats")
	}

	return writeReport(ctx, cmd.OutOrStdout(), formatter, result, configPath)
}

// writeReport renders result and sets ExitCode from its level.
func writeReport(ctx context.Context, w io.Writer, formatter output.Formatter, result *analyzer.Result, configPath string) error {
	report := output.NewReport(result, configPath)
	if err := formatter.Format(ctx, report, w); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	switch {
	case result.Halted():
		ExitCode = ExitConfigError
	case result.HasErrors():
		ExitCode = ExitRunErrors
	}
	return nil
}

func createFormatter(name string, verbose, quiet bool) (output.Formatter, error) {
	return output.NewFormatter(name, output.FormatOptions{
		Verbose: verbose,
		Quiet:   quiet,
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
