package output

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/ccollicutt/drivelog/pkg/model"
)

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
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	fmt.Fprintf(w, "drivelog: %s, %d measurement points, %d events, %d signaling points\n",
		report.Summary.DetectedTechnology,
		report.Summary.MeasurementPoints,
		report.Summary.EventPoints,
		report.Summary.SignalingPoints)
	return nil
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	s := report.Summary

	// Header
	fmt.Fprintln(w, "=== drivelog Decode Report ===")
	fmt.Fprintf(w, "ID: %s\n", report.ID)
	fmt.Fprintf(w, "Technology: %s\n", s.DetectedTechnology)
	if s.Bounds != nil {
		fmt.Fprintf(w, "Bounds: %.6f,%.6f to %.6f,%.6f\n",
			s.Bounds.MinLat, s.Bounds.MinLng, s.Bounds.MaxLat, s.Bounds.MaxLng)
	}
	fmt.Fprintln(w)

	f.formatEvents(report, w)
	f.formatConfig(report, w)

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d measurement points, %d events, %d signaling points\n",
		s.MeasurementPoints, s.EventPoints, s.SignalingPoints)

	if f.opts.Verbose {
		m := report.Metadata
		for _, src := range m.Sources {
			fmt.Fprintf(w, "Source: %s\n", src)
		}
		fmt.Fprintf(w, "Records read: %d\n", m.RecordsRead)
		if m.Truncated {
			fmt.Fprintln(w, "Input truncated at the record limit")
		}
		if m.Unpositioned > 0 {
			fmt.Fprintf(w, "Measurements without position: %d\n", m.Unpositioned)
		}
		if m.UnknownTechnology > 0 {
			fmt.Fprintf(w, "Measurements with unknown technology: %d\n", m.UnknownTechnology)
		}
		fmt.Fprintf(w, "Duration: %s\n", m.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatEvents(report *Report, w io.Writer) {
	s := report.Summary
	if len(s.EventCounts) == 0 {
		fmt.Fprintln(w, "[EVENTS]")
		fmt.Fprintln(w, "  No events inferred")
		fmt.Fprintln(w)
		return
	}

	kinds := make([]string, 0, len(s.EventCounts))
	for k := range s.EventCounts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	fmt.Fprintln(w, "[EVENTS]")
	for _, k := range kinds {
		fmt.Fprintf(w, "  %s: %d\n", k, s.EventCounts[k])
	}

	if f.opts.Verbose && report.Result != nil {
		for i := range report.Result.EventPoints {
			f.formatEvent(&report.Result.EventPoints[i], w)
		}
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatEvent(e *model.EventPoint, w io.Writer) {
	if e.Located() {
		fmt.Fprintf(w, "  - %s %s: %s (%.6f,%.6f)\n", e.Time, e.Kind, e.Message, *e.Lat, *e.Lng)
		return
	}
	fmt.Fprintf(w, "  - %s %s: %s\n", e.Time, e.Kind, e.Message)
}

func (f *TextFormatter) formatConfig(report *Report, w io.Writer) {
	if report.Result == nil {
		return
	}
	c, ok := report.Result.LatestConfig()
	if !ok {
		return
	}

	fmt.Fprintln(w, "[ACTIVE SET CONFIG]")
	fmt.Fprintf(w, "  %d change(s), latest at %s\n", report.Summary.ConfigChanges, c.Time)
	fmt.Fprintf(w, "  Hysteresis %.1f dB, range %.1f dB, time to trigger %d ms, max active set %d\n",
		c.Hysteresis, c.Range, c.TimeToTrigger, c.MaxActiveSet)
	if c.ThresholdRSCP != nil {
		fmt.Fprintf(w, "  RSCP threshold %.1f dBm\n", *c.ThresholdRSCP)
	}
	if c.ThresholdEcNo != nil {
		fmt.Fprintf(w, "  EcNo threshold %.1f dB\n", *c.ThresholdEcNo)
	}
	fmt.Fprintln(w)
}
