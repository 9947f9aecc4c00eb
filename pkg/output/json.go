package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter writes a report as indented JSON: the summary, the decoded
// points and the run metadata.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter returns a JSON formatter.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns "json".
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format encodes the report. In quiet mode only the summary counts and
// detected technology are written.
func (f *JSONFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	var v any = report
	if f.opts.Quiet {
		v = report.Summary
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
