package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/drivelog/pkg/config"
	"github.com/ccollicutt/drivelog/pkg/model"
	"github.com/ccollicutt/drivelog/pkg/output"
	"github.com/ccollicutt/drivelog/pkg/parser"
	"github.com/ccollicutt/drivelog/pkg/tabular"
)

// ImportOptions holds command-line options for the import command.
type ImportOptions struct {
	ReportOptions
}

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import [sheets...]",
		Short: "Import measurement spreadsheets",
		Long: `Import CSV or XLSX measurement exports.

Columns are recognised by their headers. Rows from several files that lie
within the merge radius of each other are folded into one point. Files that
cannot be read are skipped with a warning.

Exit codes:
  0 - Data imported
  1 - No positioned rows found
  2 - Configuration or runtime error`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, opts)
		},
	}

	addReportFlags(cmd, &opts.ReportOptions)

	return cmd
}

func runImport(cmd *cobra.Command, args []string, opts *ImportOptions) error {
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

	p := tabular.New(
		tabular.WithLogger(logger),
		tabular.WithSampleRows(cfg.Tabular.SampleRows),
		tabular.WithPCIMajority(cfg.Tabular.PCIMajority),
		tabular.WithPCIThreshold(cfg.Tabular.PCIThreshold),
		tabular.WithMaxRows(cfg.Tabular.MaxRows),
		tabular.WithMergeRadius(cfg.Tabular.MergeRadiusM),
		tabular.WithMergePrecision(cfg.Tabular.MergePrecision),
	)

	start := time.Now()
	var (
		results []*model.ParseResult
		rows    int
	)
	for _, file := range files {
		sheet, err := tabular.ReadSheet(file)
		if err != nil {
			logger.Warn("sheet unreadable", zap.String("file", file), zap.Error(err))
			continue
		}
		rows += len(sheet.Rows)

		res, err := p.ParseSheet(sheet)
		if errors.Is(err, tabular.ErrNoData) {
			logger.Warn("sheet skipped", zap.String("file", file), zap.Error(err))
			continue
		}
		if err != nil {
			return fmt.Errorf("parsing %s: %w", file, err)
		}
		results = append(results, res)
	}

	merged, err := p.Merge(results...)
	if err != nil && !errors.Is(err, tabular.ErrNoData) {
		return fmt.Errorf("merging sheets: %w", err)
	}

	report := output.NewReport(merged, output.Metadata{
		ConfigFile:  opts.Config,
		Kind:        output.KindSheet,
		Sources:     files,
		RecordsRead: rows,
		ProcessedAt: time.Now(),
		Duration:    time.Since(start),
	})

	return publishReport(ctx, cmd.OutOrStdout(), logger, cfg, &opts.ReportOptions, report)
}
