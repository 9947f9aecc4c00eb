// Package cli provides the command-line interface for drivelog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/drivelog/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return run(NewRootCommand(), os.Args[1:])
}

func run(rootCmd *cobra.Command, args []string) int {
	commands.ExitCode = commands.ExitOK
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors prevents Cobra from printing this
		_, _ = fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return commands.ExitError
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drivelog",
		Short: "Decode drive-test logs into geolocated radio measurements",
		Long: `drivelog decodes drive-test recordings into geolocated radio measurements,
inferred network events and signaling messages.

It reads:
  - Tagged logs (one record per line: TAG,time,...) with 'decode'
  - CSV and XLSX measurement exports with 'import'

Measurements are joined with the GPS fix and serving cell identity that
held at their time. Neighbors are labeled as active (A), monitored (M) or
detected (D). Reports can be written as text, JSON or GeoJSON, archived in
sqlite and posted to webhooks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", commands.DefaultLogLevel, "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(commands.NewDecodeCommand())
	rootCmd.AddCommand(commands.NewImportCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewSessionsCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
