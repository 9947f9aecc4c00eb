package output

import (
	"context"
	"fmt"
	"io"
)

// Formatter renders decode reports in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json, geojson).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose enables detailed output including individual events.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool
}

// Formats lists the names accepted by NewFormatter.
var Formats = []string{"text", "json", "geojson"}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	case "geojson":
		return NewGeoJSONFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (must be text, json, or geojson)", name)
	}
}
