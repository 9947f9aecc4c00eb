package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/drivelog/pkg/config"
	"github.com/ccollicutt/drivelog/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <file>",
		Short: "Detect the kind of an input file",
		Long: `Sample an input file and report whether it is a tagged drive-test log
or a measurement sheet, and which command reads it.

For tagged logs the record tags seen are listed. Optionally generates a
starter config file with --write-config.

Example:
  drivelog detect drive.nmf
  drivelog detect --sample 500 export.csv
  drivelog detect -w drivelog.yaml drive.nmf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 100, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all detected formats, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	file := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(file); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", file)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := d.DetectFromFile(ctx, file)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	w := cmd.OutOrStdout()

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(w, result, file, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(w, result, file, opts)
	default:
		return outputDetectText(w, result, file, opts)
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, file string, opts *DetectOptions) error {
	fmt.Fprintln(w, "=== Input Format Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", file)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Lines recognised: %d\n", result.ParsedLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No known input format detected.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: tagged logs start each line with an upper case tag and a time,")
		fmt.Fprintln(w, "and sheets need latitude and longitude columns.")
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Format: %s\n", best.Format.Name)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d lines matched)\n", best.Confidence*100, best.MatchCount)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample match:\n  %s\n", best.SampleLine)
	fmt.Fprintln(w)

	if tags := result.SortedTags(); len(tags) > 0 {
		fmt.Fprintln(w, "Record tags:")
		for _, tag := range tags {
			fmt.Fprintf(w, "  %-10s %d\n", tag, result.Tags[tag])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Read it with:\n  drivelog %s %s\n", best.Format.Command, file)
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Alternative formats detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence)\n", i+2, m.Format.Name, m.Confidence*100)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// JSONMatch represents a format match in JSON output.
type JSONMatch struct {
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Command    string  `json:"command"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
	SampleLine string  `json:"sample_line"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File         string         `json:"file"`
	Matches      []JSONMatch    `json:"matches"`
	SampledLines int            `json:"sampled_lines"`
	ParsedLines  int            `json:"parsed_lines"`
	Tags         map[string]int `json:"tags,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, file string, opts *DetectOptions) error {
	out := JSONOutput{
		File:         file,
		SampledLines: result.SampledLines,
		ParsedLines:  result.ParsedLines,
		Tags:         result.Tags,
		Matches:      make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1] // Only show best match
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Name:       m.Format.Name,
			Kind:       string(m.Format.Kind),
			Command:    m.Format.Command,
			Confidence: m.Confidence,
			MatchCount: m.MatchCount,
			SampleLine: m.SampleLine,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeStarterConfig generates a starter config file naming the input.
func writeStarterConfig(w io.Writer, result *detector.DetectionResult, file, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.HasMatch() {
		return fmt.Errorf("cannot generate config: no input format detected")
	}

	content := generateStarterConfig(file, result.BestMatch())

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(file string, match *detector.FormatMatch) string {
	absFile := file
	if abs, err := filepath.Abs(file); err == nil {
		absFile = abs
	}

	return fmt.Sprintf(`# drivelog configuration
# Generated by: drivelog detect
# Detected format: %s (%.0f%% confidence)
# Run: drivelog %s --config <this file>

inputs:
  - %s
  # Add more files or use globs:
  # - /data/drives/*.nmf

decoder:
  max_records: %d
  neighbor_cap: %d
  swap_level_bound: %g
  snapshot_neighbors: %d

tabular:
  sample_rows: %d
  pci_majority: %g
  pci_threshold: %g
  merge_radius_m: %g
  merge_precision: %d

store:
  path: ""          # sqlite archive, empty disables it

# webhooks:
#   - name: ops
#     url: https://example.com/hooks/drivelog
#     token: ${DRIVELOG_WEBHOOK_TOKEN}
#     trigger: on_data
`, match.Format.Name, match.Confidence*100, match.Format.Command,
		absFile,
		config.DefaultMaxRecords, config.DefaultNeighborCap, config.DefaultSwapLevelBound, config.DefaultSnapshotNeighbors,
		config.DefaultSampleRows, config.DefaultPCIMajority, config.DefaultPCIThreshold,
		config.DefaultMergeRadiusM, config.DefaultMergePrecision)
}
