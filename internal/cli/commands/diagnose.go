package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/combatlog/pkg/config"
	"github.com/ccollicutt/combatlog/pkg/inspect"
	"github.com/ccollicutt/combatlog/pkg/parser"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// diagnoseSampleSize is the number of lines parsed from the newest log.
const diagnoseSampleSize = 50

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file>",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

This command checks your configuration file for common problems:
- Config file syntax and structure
- Log folder existence and files matched inside the max-age window
- Whether the newest log actually parses
- Post-processing and map rule consistency

Example:
  combatlog diagnose config.yaml
  combatlog diagnose -v config.yaml  # verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(commandContext(cmd), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	// 1. Check config file existence
	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 2. Parse config file
	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 3. Check log sources
	files, logResults := checkLogSources(cfg, time.Now())
	results = append(results, logResults...)

	// 4. Parse the newest log
	if len(files) > 0 {
		results = append(results, checkLogParses(ctx, files[len(files)-1], opts))
	}

	// 5. Check post-processing settings
	results = append(results, checkPostProcessing(cfg)...)

	// 6. Check map rules
	results = append(results, checkMapRules(cfg)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{"Check the file path is correct"}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Gap threshold: %s", cfg.Combat.GapThreshold),
		fmt.Sprintf("Min inactivity: %s", cfg.Combat.MinInactivity),
		fmt.Sprintf("Map rules: %d", len(cfg.MapDetection.Maps)),
	}
	return cfg, result
}

// checkLogSources returns the log files a run would read, oldest first.
func checkLogSources(cfg *config.Config, now time.Time) ([]string, []DiagnosticResult) {
	ls := cfg.LogSources

	if len(ls.Files) > 0 {
		result := DiagnosticResult{Check: "Log Files"}
		files, err := parser.ExpandGlobs(ls.Files)
		if err != nil {
			result.Status = "error"
			result.Message = fmt.Sprintf("Invalid file pattern: %v", err)
			return nil, []DiagnosticResult{result}
		}

		var existing, missing []string
		for _, f := range files {
			if _, err := os.Stat(f); err != nil {
				missing = append(missing, f)
				continue
			}
			existing = append(existing, f)
		}

		switch {
		case len(existing) == 0:
			result.Status = "error"
			result.Message = "None of the configured log files exist"
			result.Details = missing
		case len(missing) > 0:
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d of %d log files are missing", len(missing), len(files))
			result.Details = missing
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("%d log file(s) found", len(existing))
			result.Details = existing
		}
		return existing, []DiagnosticResult{result}
	}

	result := DiagnosticResult{Check: "Log Folder"}
	if ls.Folder == "" {
		result.Status = "error"
		result.Message = "No log folder or log files configured"
		result.Suggests = []string{
			"Set log_sources.folder to your combat log directory",
			fmt.Sprintf("Or export %s", config.EnvLogFolder),
		}
		return nil, []DiagnosticResult{result}
	}

	listing, err := parser.ListLogFiles(ls.Folder, ls.Pattern, ls.MaxAge, now)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot list log folder: %v", err)
		result.Suggests = []string{"Check the folder path and permissions"}
		return nil, []DiagnosticResult{result}
	}

	switch {
	case listing.Matched == 0:
		result.Status = "error"
		result.Message = fmt.Sprintf("Pattern %q matches no files in %s", ls.Pattern, ls.Folder)
		result.Suggests = []string{
			"Check log_sources.pattern (doublestar syntax, relative to the folder)",
		}
	case len(listing.Files) == 0:
		result.Status = "error"
		result.Message = fmt.Sprintf("All %d matching files are older than %s", listing.Matched, ls.MaxAge)
		result.Suggests = []string{"Increase log_sources.max_age or set it to 0 to disable the window"}
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d of %d matching files inside the window", len(listing.Files), listing.Matched)
		for _, f := range listing.Files {
			result.Details = append(result.Details,
				fmt.Sprintf("%s (%s)", f.Path, f.ModTime.Format("2006-01-02 15:04:05")))
		}
	}
	return listing.Paths(), []DiagnosticResult{result}
}

func checkLogParses(ctx context.Context, path string, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Parse Test: %s", path),
	}

	report, err := inspect.New(inspect.WithSampleSize(diagnoseSampleSize)).InspectFile(ctx, path)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return result
	}

	switch {
	case report.SampledLines == 0:
		result.Status = "warning"
		result.Message = "Log file is empty"
	case report.ParsedLines == 0:
		result.Status = "error"
		result.Message = "No sampled line parses as a combat event"
		result.Suggests = []string{
			"Run 'combatlog inspect " + path + "' for per-field failures",
		}
	case report.Ratio() < 0.5:
		result.Status = "warning"
		result.Message = fmt.Sprintf("Only %d/%d sample lines parse", report.ParsedLines, report.SampledLines)
	default:
		result.Status = "ok"
		result.Message = fmt.Sprintf("%d/%d sample lines parse", report.ParsedLines, report.SampledLines)
	}

	if result.Status != "ok" || opts.Verbose {
		for _, e := range report.Examples {
			result.Details = append(result.Details, truncate(e, 80))
		}
		if len(report.Players) > 0 {
			result.Details = append(result.Details, "Players: "+strings.Join(report.Players, ", "))
		}
	}
	return result
}

func checkPostProcessing(cfg *config.Config) []DiagnosticResult {
	pp := cfg.PostProcessing
	result := DiagnosticResult{Check: "Post-Processing"}

	var issues, warnings []string
	if pp.RejectWithoutAccount && cfg.AccountCharacter == "" {
		issues = append(issues, "reject_without_account is enabled but account_character is empty")
	}
	if pp.RejectBelowMinEvents && pp.MinEvents == 0 {
		warnings = append(warnings, "reject_below_min_events is enabled with min_events 0; nothing is rejected")
	}
	if pp.RemoveUnrelatedEntities && !pp.RemoveUnrelatedPlayers && !pp.RemoveUnrelatedNonPlayers {
		warnings = append(warnings, "remove_unrelated_entities is enabled for neither players nor non-players")
	}

	switch {
	case len(issues) > 0:
		result.Status = "error"
		result.Message = fmt.Sprintf("%d configuration issue(s)", len(issues))
		result.Details = append(issues, warnings...)
		result.Suggests = []string{
			fmt.Sprintf("Set account_character or export %s", config.EnvAccountCharacter),
		}
	case len(warnings) > 0:
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
		result.Details = warnings
	default:
		result.Status = "ok"
		result.Message = "Post-processing settings are consistent"
	}
	return []DiagnosticResult{result}
}

func checkMapRules(cfg *config.Config) []DiagnosticResult {
	md := cfg.MapDetection
	if !cfg.PostProcessing.DetectMaps {
		return []DiagnosticResult{{Check: "Map Rules", Status: "ok", Message: "Map detection disabled"}}
	}
	if len(md.Maps) == 0 {
		return []DiagnosticResult{{
			Check:    "Map Rules",
			Status:   "warning",
			Message:  "No map rules defined; only generic maps can be detected",
			Suggests: []string{"Add map_detection.maps or reference a rules_file"},
		}}
	}

	var results []DiagnosticResult
	for _, rule := range md.Maps {
		result := DiagnosticResult{Check: fmt.Sprintf("Map: %s", rule.Name)}

		var warnings []string
		if rule.MinPlayers > 0 && rule.MaxPlayers > 0 && rule.MinPlayers > rule.MaxPlayers {
			warnings = append(warnings, fmt.Sprintf("min_players %d exceeds max_players %d", rule.MinPlayers, rule.MaxPlayers))
		}
		for _, p := range rule.Patterns {
			for _, ex := range md.Exclusions {
				if strings.Contains(p.Pattern, ex) {
					warnings = append(warnings, fmt.Sprintf("pattern %q contains global exclusion %q and never matches", p.Pattern, ex))
				}
			}
		}

		if len(warnings) > 0 {
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d warning(s)", len(warnings))
			result.Details = warnings
		} else {
			result.Status = "ok"
			result.Message = fmt.Sprintf("%d pattern(s), %d exclusion(s)", len(rule.Patterns), len(rule.Exclusions))
		}
		results = append(results, result)
	}
	return results
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== combatlog Configuration Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		// Status icon
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running analysis.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
