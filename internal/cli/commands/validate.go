package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/drivelog/pkg/config"
	"github.com/ccollicutt/drivelog/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a drivelog configuration file without decoding anything.

Checks:
  - YAML syntax
  - Required fields
  - Decoder and sheet import tuning ranges
  - Webhook URLs and triggers
  - Input file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Inputs:       %d pattern(s)\n", len(cfg.Inputs))
	fmt.Fprintf(w, "  Neighbor cap: %d\n", cfg.Decoder.NeighborCap)
	fmt.Fprintf(w, "  Merge radius: %gm\n", cfg.Tabular.MergeRadiusM)
	if cfg.Store.Path != "" {
		fmt.Fprintf(w, "  Archive:      %s\n", cfg.Store.Path)
	}
	fmt.Fprintf(w, "  Webhooks:     %d\n", len(cfg.Webhooks))

	files, err := parser.ExpandGlobs(cfg.Inputs)
	if err != nil {
		fmt.Fprintf(w, "\nWarning: Error expanding input patterns: %v\n", err)
	} else if len(files) == 0 {
		fmt.Fprintf(w, "\nWarning: No files match input patterns\n")
	} else {
		fmt.Fprintf(w, "\nInput files matched: %d\n", len(files))
		for _, f := range files {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}

	return nil
}
