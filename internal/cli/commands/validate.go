package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/combatlog/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a combatlog configuration file without parsing any logs.

Checks:
  - YAML syntax
  - Duration and count bounds
  - Map rules (names, patterns, player bounds)
  - The map rules file, when one is referenced`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	if len(cfg.LogSources.Files) > 0 {
		fmt.Fprintf(out, "  Log files:      %d\n", len(cfg.LogSources.Files))
	} else {
		fmt.Fprintf(out, "  Log folder:     %s (%s)\n", orNone(cfg.LogSources.Folder), cfg.LogSources.Pattern)
	}
	fmt.Fprintf(out, "  Gap threshold:  %s\n", cfg.Combat.GapThreshold)
	fmt.Fprintf(out, "  Min inactivity: %s\n", cfg.Combat.MinInactivity)
	fmt.Fprintf(out, "  Account:        %s\n", orNone(cfg.AccountCharacter))
	fmt.Fprintf(out, "  Map rules:      %d\n", len(cfg.MapDetection.Maps))

	if len(cfg.MapDetection.Maps) > 0 {
		fmt.Fprintf(out, "\nMaps:\n")
		for i, m := range cfg.MapDetection.Maps {
			patterns := make([]string, len(m.Patterns))
			for j, p := range m.Patterns {
				patterns[j] = p.Pattern
				if p.UniqueToMap {
					patterns[j] += " (unique)"
				}
			}
			fmt.Fprintf(out, "  %d. %s: %s\n", i+1, m.Name, strings.Join(patterns, ", "))
		}
	}

	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
