package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// DefaultLogLevel is used when no --log-level flag is present.
const DefaultLogLevel = "warn"

// newLogger builds a console logger on stderr at the level named by the
// inherited --log-level flag.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	name := DefaultLogLevel
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Value.String() != "" {
		name = f.Value.String()
	}

	level, err := zap.ParseAtomicLevel(name)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
