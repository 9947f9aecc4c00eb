// Package detector identifies whether an input is a tagged drive-test log
// or a spreadsheet export.
package detector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ccollicutt/drivelog/pkg/parser"
	"github.com/ccollicutt/drivelog/pkg/tabular"
)

// DetectionResult holds the result of analyzing an input file.
type DetectionResult struct {
	Matches      []FormatMatch  // Formats that matched, sorted by confidence descending
	SampledLines int            // Number of lines sampled
	ParsedLines  int            // Number of lines accepted by the best match
	Tags         map[string]int // Known record tags seen, with counts
}

// FormatMatch represents a format that matched with its confidence score.
type FormatMatch struct {
	Format     *InputFormat
	Confidence float64 // 0.0 to 1.0 (share of sampled lines matched)
	MatchCount int     // Number of lines that matched
	SampleLine string  // Example line that matched
}

// Detector analyzes input files to identify their format.
type Detector struct {
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a new Detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		sampleSize: 100,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile analyzes a file and returns detected formats. Workbooks
// are recognized by extension and scored on their first sheet.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		sheet, err := tabular.ReadXLSX(path)
		if err != nil {
			return nil, err
		}
		return d.DetectFromSheet(sheet, FormatWorkbook), nil
	}

	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines analyzes a slice of text lines.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{
		SampledLines: len(lines),
		Tags:         map[string]int{},
	}

	if len(lines) == 0 {
		return result
	}

	if m, ok := d.scoreTagged(lines, result.Tags); ok {
		result.Matches = append(result.Matches, m)
	}

	sheet, err := tabular.ParseCSV("sample", strings.NewReader(strings.Join(lines, "\n")))
	if err == nil {
		sheetResult := d.DetectFromSheet(sheet, FormatDelimitedSheet)
		result.Matches = append(result.Matches, sheetResult.Matches...)
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Confidence > result.Matches[j].Confidence
	})

	if len(result.Matches) > 0 {
		result.ParsedLines = result.Matches[0].MatchCount
	}

	return result
}

// scoreTagged counts lines that carry an uppercase record tag followed by
// a clock stamp.
func (d *Detector) scoreTagged(lines []string, tags map[string]int) (FormatMatch, bool) {
	m := FormatMatch{Format: FormatTaggedLog}
	for _, line := range lines {
		rec, ok := parser.Tokenize(line)
		if !ok || !recordTag.MatchString(rec.Fields[0]) || !rec.Stamp().Valid {
			continue
		}
		if m.MatchCount == 0 {
			m.SampleLine = line
		}
		m.MatchCount++
		if KnownTags[rec.Tag()] {
			tags[rec.Tag()]++
		}
	}
	if m.MatchCount == 0 {
		return m, false
	}
	m.Confidence = float64(m.MatchCount) / float64(len(lines))
	return m, true
}

// DetectFromSheet scores a table: the header must name both coordinates,
// and each data row with parseable coordinates counts as a match.
func (d *Detector) DetectFromSheet(sheet *tabular.Sheet, format *InputFormat) *DetectionResult {
	rows := sheet.Rows
	if len(rows) > d.sampleSize {
		rows = rows[:d.sampleSize]
	}
	result := &DetectionResult{
		SampledLines: len(rows) + 1,
		Tags:         map[string]int{},
	}

	cm := tabular.ResolveColumns(sheet.Header, nil, tabular.ResolveOptions{})
	if cm.Lat < 0 || cm.Lng < 0 {
		return result
	}

	m := FormatMatch{
		Format:     format,
		MatchCount: 1,
		SampleLine: strings.Join(sheet.Header, ","),
	}
	for _, row := range rows {
		_, okLat := tabular.ParseNumber(cellAt(row, cm.Lat))
		_, okLng := tabular.ParseNumber(cellAt(row, cm.Lng))
		if okLat && okLng {
			m.MatchCount++
		}
	}
	m.Confidence = float64(m.MatchCount) / float64(result.SampledLines)
	result.Matches = []FormatMatch{m}
	result.ParsedLines = m.MatchCount
	return result
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// sampleFile reads up to sampleSize lines from a file.
// Uses simple head sampling for efficiency.
func (d *Detector) sampleFile(_ context.Context, path string) ([]string, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() && len(lines) < d.sampleSize {
		line := scanner.Text()
		// Skip empty lines and comments
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			lines = append(lines, line)
		}
	}

	// An overlong line ends the sample.
	if err := scanner.Err(); err != nil && !errors.Is(err, bufio.ErrTooLong) {
		return nil, fmt.Errorf("sampling %s: %w", path, err)
	}

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *FormatMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one format matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}

// SortedTags returns the recognized tags ordered by count, then name.
func (r *DetectionResult) SortedTags() []string {
	tags := make([]string, 0, len(r.Tags))
	for t := range r.Tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if r.Tags[tags[i]] != r.Tags[tags[j]] {
			return r.Tags[tags[i]] > r.Tags[tags[j]]
		}
		return tags[i] < tags[j]
	})
	return tags
}
