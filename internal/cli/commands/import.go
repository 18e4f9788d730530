package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/combatlog/pkg/analyzer"
	"github.com/ccollicutt/combatlog/pkg/config"
)

// ImportOptions holds command-line options for the import command.
type ImportOptions struct {
	Output    string
	Reprocess bool
	Verbose   bool
	Quiet     bool
}

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <config-file> <archive.json...>",
		Short: "Report combats from JSON archives",
		Long: `Load combats previously written with 'analyze --export' and report them.

Every archived event is re-parsed from its raw log line and the combat is
rebuilt with its original options. With --reprocess, post-processing runs
again under the current configuration.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVar(&opts.Reprocess, "reprocess", false, "Run post-processing again on the imported combats")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show per-entity and per-event-type tables")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	return cmd
}

func runImport(cmd *cobra.Command, args []string, opts *ImportOptions) error {
	ExitCode = ExitOK
	configPath := args[0]
	ctx := commandContext(cmd)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	formatter, err := createFormatter(opts.Output, opts.Verbose, opts.Quiet)
	if err != nil {
		return err
	}

	a, err := analyzer.NewAnalyzer(cfg)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	result, runErr := a.Reimport(ctx, args[1:], opts.Reprocess)
	if runErr != nil && !errors.Is(runErr, analyzer.ErrHalted) {
		return fmt.Errorf("import failed: %w", runErr)
	}

	return writeReport(ctx, cmd.OutOrStdout(), formatter, result, configPath)
}
