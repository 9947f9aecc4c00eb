package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/drivelog/pkg/config"
	"github.com/ccollicutt/drivelog/pkg/decoder"
	"github.com/ccollicutt/drivelog/pkg/output"
	"github.com/ccollicutt/drivelog/pkg/parser"
)

// DecodeOptions holds command-line options for the decode command.
type DecodeOptions struct {
	ReportOptions
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand() *cobra.Command {
	opts := &DecodeOptions{}

	cmd := &cobra.Command{
		Use:   "decode [files...]",
		Short: "Decode tagged drive-test logs",
		Long: `Decode one or more tagged drive-test logs into measurement, event and
signaling points.

Files may be globs. When none are given, the inputs of the configuration
file (or DRIVELOG_INPUTS) are used. Records from several files are merged
in time order before decoding.

Exit codes:
  0 - Data decoded
  1 - Nothing could be decoded
  2 - Configuration or runtime error`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, args, opts)
		},
	}

	addReportFlags(cmd, &opts.ReportOptions)

	return cmd
}

func runDecode(cmd *cobra.Command, args []string, opts *DecodeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Resolve(ctx, opts.Config, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Fail on a bad format before reading anything.
	if _, err := createFormatter(&opts.ReportOptions); err != nil {
		return err
	}

	files, err := parser.ExpandGlobs(cfg.Inputs)
	if err != nil {
		return fmt.Errorf("expanding inputs: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files matched patterns: %v", cfg.Inputs)
	}

	// Create record source with time-ordered merging across files
	var source parser.RecordSource
	if len(files) == 1 {
		source = parser.NewFileSource(files[0])
	} else {
		sources := make([]parser.RecordSource, len(files))
		for i, file := range files {
			sources[i] = parser.NewFileSource(file)
		}
		source = parser.NewMergedSource(sources...)
	}
	defer source.Close()

	d := decoder.New(
		decoder.WithLogger(logger),
		decoder.WithMaxRecords(cfg.Decoder.MaxRecords),
		decoder.WithNeighborCap(cfg.Decoder.NeighborCap),
		decoder.WithSwapLevelBound(cfg.Decoder.SwapLevelBound),
		decoder.WithSnapshotNeighbors(cfg.Decoder.SnapshotNeighbors),
	)

	start := time.Now()
	res, err := d.Decode(ctx, source)

	var report *output.Report
	switch {
	case errors.Is(err, decoder.ErrNoData):
		logger.Warn("nothing decoded", zap.Strings("files", files))
		report = output.NewReport(nil, output.Metadata{
			ConfigFile:  opts.Config,
			Kind:        output.KindTaggedLog,
			Sources:     files,
			ProcessedAt: time.Now(),
			Duration:    time.Since(start),
		})
	case err != nil:
		return fmt.Errorf("decoding failed: %w", err)
	default:
		report = output.NewDecodeReport(res, opts.Config)
	}

	return publishReport(ctx, cmd.OutOrStdout(), logger, cfg, &opts.ReportOptions, report)
}
