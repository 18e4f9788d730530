package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ccollicutt/combatlog/pkg/analyzer"
)

// JSONFormatter writes reports as indented JSON. Combats are encoded in
// their document shape, so the output doubles as an importable archive
// body once extracted.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format renders the report. Quiet output is the summary alone; debug
// messages are dropped unless verbose.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if f.opts.Quiet {
		return encoder.Encode(report.Summary)
	}
	if f.opts.Verbose {
		return encoder.Encode(report)
	}

	filtered := *report
	filtered.Messages = make([]analyzer.Message, 0, len(report.Messages))
	for _, m := range report.Messages {
		if m.Level > analyzer.LevelDebug {
			filtered.Messages = append(filtered.Messages, m)
		}
	}
	return encoder.Encode(&filtered)
}
